package ast

import "strings"

// Query is a parsed SELECT statement. Subqueries share the shape but leave
// SObject empty; the owning FieldSubquery names the relationship instead.
type Query struct {
	Fields  []FieldSpec
	SObject string
	Where   *ConditionNode
	OrderBy []OrderSpec
	Limit   *int
	Offset  *int
}

// FieldSpec is one entry of the SELECT list. The private marker method keeps
// the set of implementations closed to this package.
type FieldSpec interface {
	fieldSpec()
}

// Field is a plain column or relationship path, e.g. "Person.Name".
type Field struct {
	Name string
}

func (Field) fieldSpec() {}

// FieldFunctionExpression is a function call in the SELECT list.
// RawValue holds the exact source text and is what gets composed.
type FieldFunctionExpression struct {
	FunctionName string
	Parameters   []string
	RawValue     string
}

func (FieldFunctionExpression) fieldSpec() {}

// FieldSubquery is a parenthesized nested query over a child relationship.
type FieldSubquery struct {
	RelationshipName string
	Subquery         *Query
}

func (FieldSubquery) fieldSpec() {}

type LogicalOperator string

const (
	OperatorAnd LogicalOperator = "AND"
	OperatorOr  LogicalOperator = "OR"
)

// ConditionNode is a right-leaning chain of comparisons. Operator and Right
// are either both set or both empty; a node without Right ends the chain.
type ConditionNode struct {
	Left     ValueCondition  `json:"left"`
	Operator LogicalOperator `json:"operator,omitempty"`
	Right    *ConditionNode  `json:"right,omitempty"`
}

// IsTerminal reports whether the node ends the chain.
func (c *ConditionNode) IsTerminal() bool {
	return c.Right == nil
}

type ComparisonOperator string

const (
	OperatorEq  ComparisonOperator = "="
	OperatorNe  ComparisonOperator = "!="
	OperatorGt  ComparisonOperator = ">"
	OperatorGte ComparisonOperator = ">="
	OperatorLt  ComparisonOperator = "<"
	OperatorLte ComparisonOperator = "<="
)

func (o ComparisonOperator) Valid() bool {
	switch o {
	case OperatorEq, OperatorNe, OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}

// ValueCondition compares a field against a literal.
type ValueCondition struct {
	Field    string
	Operator ComparisonOperator
	Value    Literal
}

// LiteralType reports the kind of Value. It is derived, never stored, so it
// cannot disagree with the literal.
func (v ValueCondition) LiteralType() LiteralType {
	if v.Value == nil {
		return ""
	}
	return v.Value.LiteralType()
}

type LiteralType string

const (
	LiteralString            LiteralType = "STRING"
	LiteralInteger           LiteralType = "INTEGER"
	LiteralDecimal           LiteralType = "DECIMAL"
	LiteralBoolean           LiteralType = "BOOLEAN"
	LiteralNull              LiteralType = "NULL"
	LiteralJitterbitVariable LiteralType = "JITTERBIT_VARIABLE"
)

// Literal is the right-hand side of a comparison.
type Literal interface {
	LiteralType() LiteralType
	// Text is the literal exactly as it appeared in the source.
	Text() string
}

// StringLiteral is the raw quoted text including its single quotes.
type StringLiteral string

func (StringLiteral) LiteralType() LiteralType { return LiteralString }
func (s StringLiteral) Text() string           { return string(s) }

// NumberLiteral is an integer or decimal in source form.
type NumberLiteral string

func (n NumberLiteral) LiteralType() LiteralType {
	if strings.ContainsRune(string(n), '.') {
		return LiteralDecimal
	}
	return LiteralInteger
}

func (n NumberLiteral) Text() string { return string(n) }

// BooleanLiteral keeps the source casing of true/false.
type BooleanLiteral string

func (BooleanLiteral) LiteralType() LiteralType { return LiteralBoolean }
func (b BooleanLiteral) Text() string           { return string(b) }

// NullLiteral keeps the source casing of null.
type NullLiteral string

func (NullLiteral) LiteralType() LiteralType { return LiteralNull }
func (n NullLiteral) Text() string           { return string(n) }

// VariableLiteral is a Jitterbit variable reference. TextValue is the exact
// source span, quotes included when the reference was written inside a
// string; Variable and DefaultValue are read-only projections of it.
type VariableLiteral struct {
	TextValue    string  `json:"text"`
	Variable     string  `json:"variable"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

func (VariableLiteral) LiteralType() LiteralType { return LiteralJitterbitVariable }
func (v VariableLiteral) Text() string           { return v.TextValue }

// Quoted reports whether the reference was written inside a string literal.
func (v VariableLiteral) Quoted() bool {
	return strings.HasPrefix(v.TextValue, "'")
}

type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// OrderSpec is one ORDER BY item. Order is empty when the source omitted it.
type OrderSpec struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order,omitempty"`
}
