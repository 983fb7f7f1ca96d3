package soql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql/ast"
	"github.com/thisisjab/jitsoql/soql/lexer"
	"github.com/thisisjab/jitsoql/soql/token"
)

// LiteralRenderer writes the right-hand side of a comparison.
type LiteralRenderer func(lit ast.Literal) (string, error)

// ComposerOptions holds configuration for the query composer.
type ComposerOptions struct {
	// RenderLiteral overrides how comparison values are written.
	// If nil, every literal is written back as its source text.
	RenderLiteral LiteralRenderer
}

// Composer turns a query tree back into query text.
type Composer struct {
	opts ComposerOptions
}

// NewComposer creates a new composer with the given options.
func NewComposer(opts ComposerOptions) *Composer {
	if opts.RenderLiteral == nil {
		opts.RenderLiteral = sourceText
	}
	return &Composer{opts: opts}
}

func sourceText(lit ast.Literal) (string, error) {
	return lit.Text(), nil
}

// Compose renders q in canonical form:
//
//	SELECT a, b FROM X WHERE c = v AND d = w ORDER BY e DESC LIMIT n OFFSET m
//
// A malformed tree is reported as a bad input fault.
func (c *Composer) Compose(q *ast.Query) (string, error) {
	if q == nil {
		return "", fault.New(fault.BadInputCode, "query is nil")
	}
	if q.SObject == "" {
		return "", fault.New(fault.BadInputCode, "query has no object to select from")
	}

	var sb strings.Builder
	if err := c.writeQuery(&sb, q, q.SObject); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *Composer) writeQuery(sb *strings.Builder, q *ast.Query, from string) error {
	selectClause, err := c.buildSelectClause(q.Fields)
	if err != nil {
		return err
	}

	sb.WriteString("SELECT ")
	sb.WriteString(selectClause)
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	if q.Where != nil {
		whereClause, err := c.buildWhereClause(q.Where)
		if err != nil {
			return err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(whereClause)
	}

	if len(q.OrderBy) > 0 {
		orderByClause, err := buildOrderByClause(q.OrderBy)
		if err != nil {
			return err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderByClause)
	}

	if q.Limit != nil {
		if *q.Limit < 0 {
			return fault.Newf(fault.BadInputCode, "LIMIT must be non-negative, got %d", *q.Limit)
		}
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*q.Limit))
	}

	if q.Offset != nil {
		if *q.Offset < 0 {
			return fault.Newf(fault.BadInputCode, "OFFSET must be non-negative, got %d", *q.Offset)
		}
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(*q.Offset))
	}

	return nil
}

func (c *Composer) buildSelectClause(fields []ast.FieldSpec) (string, error) {
	if len(fields) == 0 {
		return "", fault.New(fault.BadInputCode, "query selects no fields")
	}

	parts := make([]string, 0, len(fields))
	for i, field := range fields {
		part, err := c.formatField(field)
		if err != nil {
			return "", fmt.Errorf("field #%d: %w", i, err)
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, ", "), nil
}

func (c *Composer) formatField(field ast.FieldSpec) (string, error) {
	switch f := field.(type) {
	case ast.Field:
		if f.Name == "" {
			return "", fault.New(fault.BadInputCode, "field has no name")
		}
		return f.Name, nil

	case ast.FieldFunctionExpression:
		if f.RawValue != "" {
			return f.RawValue, nil
		}
		if f.FunctionName == "" {
			return "", fault.New(fault.BadInputCode, "function field has no name")
		}
		return fmt.Sprintf("%s(%s)", f.FunctionName, strings.Join(f.Parameters, ", ")), nil

	case ast.FieldSubquery:
		if f.Subquery == nil {
			return "", fault.Newf(fault.BadInputCode, "subquery over %q is nil", f.RelationshipName)
		}
		if f.RelationshipName == "" {
			return "", fault.New(fault.BadInputCode, "subquery has no relationship name")
		}

		var sb strings.Builder
		sb.WriteByte('(')
		if err := c.writeQuery(&sb, f.Subquery, f.RelationshipName); err != nil {
			return "", fmt.Errorf("subquery over %s: %w", f.RelationshipName, err)
		}
		sb.WriteByte(')')
		return sb.String(), nil

	default:
		return "", fault.Newf(fault.BadInputCode, "unknown field type %T", field)
	}
}

// buildWhereClause walks the condition chain left to right. Chains are never
// parenthesized, matching how they were written.
func (c *Composer) buildWhereClause(node *ast.ConditionNode) (string, error) {
	var parts []string

	for ; node != nil; node = node.Right {
		cond, err := c.formatComparison(node.Left)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)

		if node.IsTerminal() {
			if node.Operator != "" {
				return "", fault.Newf(fault.BadInputCode, "condition on %q has operator %s but nothing to its right", node.Left.Field, node.Operator)
			}
			break
		}

		switch node.Operator {
		case ast.OperatorAnd, ast.OperatorOr:
			parts = append(parts, string(node.Operator))
		case "":
			return "", fault.Newf(fault.BadInputCode, "condition on %q is followed by another condition without AND/OR", node.Left.Field)
		default:
			return "", fault.Newf(fault.BadInputCode, "unsupported logical operator: %q", node.Operator)
		}
	}

	return strings.Join(parts, " "), nil
}

func (c *Composer) formatComparison(v ast.ValueCondition) (string, error) {
	if v.Field == "" || v.Value == nil {
		return "", fault.New(fault.BadInputCode, "invalid condition: missing field name or value")
	}
	if !v.Operator.Valid() {
		return "", fault.Newf(fault.BadInputCode, "unsupported operator: %q", v.Operator)
	}

	if err := checkLiteral(v.Value); err != nil {
		return "", err
	}

	value, err := c.opts.RenderLiteral(v.Value)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s %s", v.Field, v.Operator, value), nil
}

// checkLiteral rescans the text of lit and accepts it only when it reads back
// as exactly one token of the literal's own kind.
func checkLiteral(lit ast.Literal) error {
	text := lit.Text()

	tokens, err := lexer.Tokenize(text)
	if err != nil || len(tokens) != 2 || tokens[0].Literal != text {
		return fault.Newf(fault.BadInputCode, "%s value %q is not a single literal", lit.LiteralType(), text)
	}
	tok := tokens[0]

	var ok bool
	switch l := lit.(type) {
	case ast.StringLiteral:
		ok = tok.Type == token.STRING
	case ast.NumberLiteral:
		ok = tok.Type == token.INT || tok.Type == token.DECIMAL
	case ast.BooleanLiteral:
		ok = tok.Type == token.TRUE || tok.Type == token.FALSE
	case ast.NullLiteral:
		ok = tok.Type == token.NULL
	case ast.VariableLiteral:
		ok = tok.Type == token.VARIABLE &&
			tok.Var.Name == l.Variable &&
			sameDefault(tok.Var.Default, l.DefaultValue)
	}

	if !ok {
		return fault.Newf(fault.BadInputCode, "%s value %q does not match its type", lit.LiteralType(), text)
	}
	return nil
}

func sameDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func buildOrderByClause(items []ast.OrderSpec) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Field == "" {
			return "", fault.New(fault.BadInputCode, "ORDER BY item has no field")
		}

		switch item.Order {
		case "":
			parts = append(parts, item.Field)
		case ast.OrderAsc, ast.OrderDesc:
			parts = append(parts, fmt.Sprintf("%s %s", item.Field, item.Order))
		default:
			return "", fault.Newf(fault.BadInputCode, "field `%s` has unsupported sort order %q", item.Field, item.Order)
		}
	}

	return strings.Join(parts, ", "), nil
}
