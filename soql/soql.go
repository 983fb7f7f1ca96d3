// Package soql parses, composes and validates SOQL queries that may carry
// Jitterbit variable references such as [name] or '[name{default}]'.
//
// Errors are fault.Fault values: fault.LexicalCode for a malformed variable
// token, fault.StructuralCode for anything the grammar rejects, both with a
// fault.PositionMetadata pointing into the query text.
package soql

import (
	"github.com/thisisjab/jitsoql/soql/ast"
	"github.com/thisisjab/jitsoql/soql/lexer"
	"github.com/thisisjab/jitsoql/soql/parser"
)

var defaultComposer = NewComposer(ComposerOptions{})

// ParseQuery parses query into a tree.
func ParseQuery(query string) (*ast.Query, error) {
	return parser.New(lexer.New(query)).ParseQuery()
}

// ComposeQuery renders q back to query text.
func ComposeQuery(q *ast.Query) (string, error) {
	return defaultComposer.Compose(q)
}

// IsQueryValid reports whether query parses.
func IsQueryValid(query string) bool {
	_, err := ParseQuery(query)
	return err == nil
}

// Normalize parses query and composes it again.
func Normalize(query string) (string, error) {
	q, err := ParseQuery(query)
	if err != nil {
		return "", err
	}
	return ComposeQuery(q)
}
