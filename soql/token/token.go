package token

import "strings"

const (
	ILLEGAL TokenType = iota
	EOF

	// Identifiers + literals
	IDENT
	INT
	DECIMAL
	STRING
	VARIABLE
	NULL
	TRUE
	FALSE

	// Delimiters
	COMMA
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET

	EQUAL
	NOTEQUAL
	LESS
	LESSEQUAL
	GREATER
	GREATEREQUAL

	// Keywords
	SELECT
	FROM
	WHERE
	AND
	OR
	ORDER
	BY
	ASC
	DESC
	LIMIT
	OFFSET
)

type TokenType int

var names = [...]string{
	ILLEGAL:      "ILLEGAL",
	EOF:          "EOF",
	IDENT:        "IDENT",
	INT:          "INT",
	DECIMAL:      "DECIMAL",
	STRING:       "STRING",
	VARIABLE:     "VARIABLE",
	NULL:         "NULL",
	TRUE:         "TRUE",
	FALSE:        "FALSE",
	COMMA:        ",",
	LPAREN:       "(",
	RPAREN:       ")",
	LBRACKET:     "[",
	RBRACKET:     "]",
	EQUAL:        "=",
	NOTEQUAL:     "!=",
	LESS:         "<",
	LESSEQUAL:    "<=",
	GREATER:      ">",
	GREATEREQUAL: ">=",
	SELECT:       "SELECT",
	FROM:         "FROM",
	WHERE:        "WHERE",
	AND:          "AND",
	OR:           "OR",
	ORDER:        "ORDER",
	BY:           "BY",
	ASC:          "ASC",
	DESC:         "DESC",
	LIMIT:        "LIMIT",
	OFFSET:       "OFFSET",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

var keywords = map[string]TokenType{
	"SELECT": SELECT,
	"FROM":   FROM,
	"WHERE":  WHERE,
	"AND":    AND,
	"OR":     OR,
	"ORDER":  ORDER,
	"BY":     BY,
	"ASC":    ASC,
	"DESC":   DESC,
	"LIMIT":  LIMIT,
	"OFFSET": OFFSET,
	"NULL":   NULL,
	"TRUE":   TRUE,
	"FALSE":  FALSE,
}

// LookupIdent resolves keywords case-insensitively; anything else is an IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsComparison reports whether t is one of = != < <= > >=.
func (t TokenType) IsComparison() bool {
	return t >= EQUAL && t <= GREATEREQUAL
}

type Position struct {
	Offset int // rune offset into the input
	Line   int
	Column int
}

// Variable is the decoded payload of a VARIABLE token.
// Default is nil when the reference had no {...} segment.
type Variable struct {
	Name    string
	Default *string
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     Position

	// Var is set for VARIABLE tokens only.
	Var *Variable
}
