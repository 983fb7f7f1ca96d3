package parser

import (
	"fmt"
	"strconv"

	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql/ast"
	"github.com/thisisjab/jitsoql/soql/lexer"
	"github.com/thisisjab/jitsoql/soql/token"
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token

	// Lexical errors travel with the token slot they were raised for, so
	// they surface exactly when the parser reaches that token.
	curErr  error
	peekErr error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken, p.curErr = p.peekToken, p.peekErr
	p.peekToken, p.peekErr = p.l.NextToken()
}

// ParseQuery parses a complete top-level query. Any trailing input is an error.
func (p *Parser) ParseQuery() (*ast.Query, error) {
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	if p.curToken.Type != token.EOF {
		return nil, p.unexpected("end of query")
	}

	return q, nil
}

func (p *Parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}

	if err := p.expect(token.SELECT, "SELECT"); err != nil {
		return nil, err
	}

	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	q.Fields = fields

	if err := p.expect(token.FROM, "FROM"); err != nil {
		return nil, err
	}

	if p.curToken.Type != token.IDENT {
		return nil, p.unexpected("object name")
	}
	q.SObject = p.curToken.Literal
	p.nextToken()

	if p.curToken.Type == token.WHERE {
		p.nextToken()
		where, err := p.parseConditionChain()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if p.curToken.Type == token.ORDER {
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = orderBy
	}

	if p.curToken.Type == token.LIMIT {
		p.nextToken()
		limit, err := p.parseCount("LIMIT")
		if err != nil {
			return nil, err
		}
		q.Limit = &limit
	}

	if p.curToken.Type == token.OFFSET {
		p.nextToken()
		offset, err := p.parseCount("OFFSET")
		if err != nil {
			return nil, err
		}
		q.Offset = &offset
	}

	return q, nil
}

func (p *Parser) parseFieldList() ([]ast.FieldSpec, error) {
	var fields []ast.FieldSpec

	for {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)

		if p.curToken.Type != token.COMMA {
			return fields, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseField() (ast.FieldSpec, error) {
	switch p.curToken.Type {
	case token.LPAREN:
		return p.parseSubquery()
	case token.IDENT:
		if p.peekToken.Type == token.LPAREN && p.peekErr == nil {
			return p.parseFunctionField()
		}
		field := ast.Field{Name: p.curToken.Literal}
		p.nextToken()
		return field, nil
	default:
		return nil, p.unexpected("field")
	}
}

// parseFunctionField parses name(arg, ...) and keeps the untouched source
// text so composing does not have to re-derive spacing or casing.
func (p *Parser) parseFunctionField() (ast.FieldSpec, error) {
	start := p.curToken.Pos.Offset
	fn := ast.FieldFunctionExpression{FunctionName: p.curToken.Literal}

	p.nextToken() // name
	p.nextToken() // (

	for p.curToken.Type != token.RPAREN {
		if len(fn.Parameters) > 0 {
			if err := p.expect(token.COMMA, "',' or ')'"); err != nil {
				return nil, err
			}
		}
		if p.curToken.Type != token.IDENT {
			return nil, p.unexpected("function parameter")
		}
		fn.Parameters = append(fn.Parameters, p.curToken.Literal)
		p.nextToken()
	}

	end := p.curToken.Pos.Offset + 1
	fn.RawValue = p.l.Slice(start, end)
	p.nextToken() // )

	return fn, nil
}

// parseSubquery parses ( SELECT ... FROM relationship ... ). The inner FROM
// target becomes the relationship name.
func (p *Parser) parseSubquery() (ast.FieldSpec, error) {
	p.nextToken() // (

	sub, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	if p.curToken.Type != token.RPAREN {
		return nil, p.unexpected("')' closing subquery")
	}
	p.nextToken()

	relationship := sub.SObject
	sub.SObject = ""

	return ast.FieldSubquery{RelationshipName: relationship, Subquery: sub}, nil
}

// parseConditionChain parses `cond ((AND|OR) chain)?` right-recursively, so
// `a OR b OR c` nests as a -> (b -> c).
func (p *Parser) parseConditionChain() (*ast.ConditionNode, error) {
	left, err := p.parseValueCondition()
	if err != nil {
		return nil, err
	}

	node := &ast.ConditionNode{Left: left}

	var op ast.LogicalOperator
	switch p.curToken.Type {
	case token.AND:
		op = ast.OperatorAnd
	case token.OR:
		op = ast.OperatorOr
	default:
		return node, nil
	}
	p.nextToken()

	right, err := p.parseConditionChain()
	if err != nil {
		return nil, err
	}

	node.Operator = op
	node.Right = right

	return node, nil
}

var comparisonOperators = map[token.TokenType]ast.ComparisonOperator{
	token.EQUAL:        ast.OperatorEq,
	token.NOTEQUAL:     ast.OperatorNe,
	token.GREATER:      ast.OperatorGt,
	token.GREATEREQUAL: ast.OperatorGte,
	token.LESS:         ast.OperatorLt,
	token.LESSEQUAL:    ast.OperatorLte,
}

func (p *Parser) parseValueCondition() (ast.ValueCondition, error) {
	if p.curToken.Type != token.IDENT {
		return ast.ValueCondition{}, p.unexpected("field name")
	}
	cond := ast.ValueCondition{Field: p.curToken.Literal}
	p.nextToken()

	op, ok := comparisonOperators[p.curToken.Type]
	if !ok {
		return ast.ValueCondition{}, p.unexpected("comparison operator")
	}
	cond.Operator = op
	p.nextToken()

	value, err := p.parseLiteral()
	if err != nil {
		return ast.ValueCondition{}, err
	}
	cond.Value = value

	return cond, nil
}

func (p *Parser) parseLiteral() (ast.Literal, error) {
	tok := p.curToken

	var lit ast.Literal
	switch tok.Type {
	case token.STRING:
		lit = ast.StringLiteral(tok.Literal)
	case token.VARIABLE:
		lit = ast.VariableLiteral{TextValue: tok.Literal, Variable: tok.Var.Name, DefaultValue: tok.Var.Default}
	case token.INT, token.DECIMAL:
		lit = ast.NumberLiteral(tok.Literal)
	case token.TRUE, token.FALSE:
		lit = ast.BooleanLiteral(tok.Literal)
	case token.NULL:
		lit = ast.NullLiteral(tok.Literal)
	case token.LBRACKET:
		return nil, p.structuralError(tok.Pos, "unmatched '[': variable reference is never closed")
	case token.RBRACKET:
		return nil, p.structuralError(tok.Pos, "unmatched ']': no variable reference was opened")
	case token.IDENT:
		if p.peekToken.Type == token.RBRACKET && p.peekErr == nil {
			return nil, p.structuralError(p.peekToken.Pos, "unmatched ']' after %q: no variable reference was opened", tok.Literal)
		}
		return nil, p.unexpected("literal value")
	default:
		return nil, p.unexpected("literal value")
	}

	p.nextToken()
	return lit, nil
}

func (p *Parser) parseOrderBy() ([]ast.OrderSpec, error) {
	p.nextToken() // ORDER
	if err := p.expect(token.BY, "BY"); err != nil {
		return nil, err
	}

	var items []ast.OrderSpec
	for {
		if p.curToken.Type != token.IDENT {
			return nil, p.unexpected("order field")
		}
		item := ast.OrderSpec{Field: p.curToken.Literal}
		p.nextToken()

		switch p.curToken.Type {
		case token.ASC:
			item.Order = ast.OrderAsc
			p.nextToken()
		case token.DESC:
			item.Order = ast.OrderDesc
			p.nextToken()
		}
		items = append(items, item)

		if p.curToken.Type != token.COMMA {
			return items, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseCount(clause string) (int, error) {
	if p.curToken.Type != token.INT {
		return 0, p.unexpected(fmt.Sprintf("non-negative integer after %s", clause))
	}

	n, err := strconv.Atoi(p.curToken.Literal)
	if err != nil || n < 0 {
		return 0, p.structuralError(p.curToken.Pos, "%s must be a non-negative integer, got %q", clause, p.curToken.Literal)
	}
	p.nextToken()

	return n, nil
}

func (p *Parser) expect(t token.TokenType, what string) error {
	if p.curToken.Type != t {
		return p.unexpected(what)
	}
	p.nextToken()
	return nil
}

// unexpected reports the current token as not matching the grammar. A token
// that failed to scan reports its lexical error instead.
func (p *Parser) unexpected(expected string) error {
	if p.curErr != nil {
		return p.curErr
	}

	tok := p.curToken
	switch tok.Type {
	case token.EOF:
		return p.structuralError(tok.Pos, "expected %s, got end of query", expected)
	case token.LBRACKET:
		return p.structuralError(tok.Pos, "unmatched '[': expected %s", expected)
	case token.RBRACKET:
		return p.structuralError(tok.Pos, "unmatched ']': expected %s", expected)
	default:
		return p.structuralError(tok.Pos, "expected %s, got %q", expected, tok.Literal)
	}
}

func (p *Parser) structuralError(pos token.Position, format string, args ...any) error {
	return fault.Newf(fault.StructuralCode, format, args...).
		WithMetadata(fault.PositionMetadata{Offset: pos.Offset, Line: pos.Line, Column: pos.Column})
}
