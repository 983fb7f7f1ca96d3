package ast

import (
	"encoding/json"
	"fmt"

	"github.com/thisisjab/jitsoql/fault"
)

// The JSON form tags every field with its variant name and every condition
// with its literal type:
//
//	{"fields":[{"type":"Field","field":"Id"}],"sObject":"Account",
//	 "where":{"left":{"field":"Id","operator":"=","literalType":"JITTERBIT_VARIABLE",
//	          "value":{"text":"[v]","variable":"v"}}}}

const (
	fieldTypeField    = "Field"
	fieldTypeFunction = "FieldFunctionExpression"
	fieldTypeSubquery = "FieldSubquery"
)

type queryJSON struct {
	Fields  []json.RawMessage `json:"fields"`
	SObject string            `json:"sObject,omitempty"`
	Where   *ConditionNode    `json:"where,omitempty"`
	OrderBy []OrderSpec       `json:"orderBy,omitempty"`
	Limit   *int              `json:"limit,omitempty"`
	Offset  *int              `json:"offset,omitempty"`
}

type fieldJSON struct {
	Type             string   `json:"type"`
	Field            string   `json:"field,omitempty"`
	FunctionName     string   `json:"functionName,omitempty"`
	Parameters       []string `json:"parameters,omitempty"`
	RawValue         string   `json:"rawValue,omitempty"`
	RelationshipName string   `json:"relationshipName,omitempty"`
	Subquery         *Query   `json:"subquery,omitempty"`
}

func (q Query) MarshalJSON() ([]byte, error) {
	out := queryJSON{
		Fields:  make([]json.RawMessage, 0, len(q.Fields)),
		SObject: q.SObject,
		Where:   q.Where,
		OrderBy: q.OrderBy,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	for i, f := range q.Fields {
		var fj fieldJSON
		switch f := f.(type) {
		case Field:
			fj = fieldJSON{Type: fieldTypeField, Field: f.Name}
		case FieldFunctionExpression:
			fj = fieldJSON{Type: fieldTypeFunction, FunctionName: f.FunctionName, Parameters: f.Parameters, RawValue: f.RawValue}
		case FieldSubquery:
			fj = fieldJSON{Type: fieldTypeSubquery, RelationshipName: f.RelationshipName, Subquery: f.Subquery}
		default:
			return nil, fmt.Errorf("field #%d: unknown field type %T", i, f)
		}

		raw, err := json.Marshal(fj)
		if err != nil {
			return nil, fmt.Errorf("field #%d: %w", i, err)
		}
		out.Fields = append(out.Fields, raw)
	}

	return json.Marshal(out)
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var in queryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	fields := make([]FieldSpec, 0, len(in.Fields))
	for i, raw := range in.Fields {
		var fj fieldJSON
		if err := json.Unmarshal(raw, &fj); err != nil {
			return err
		}

		switch fj.Type {
		case fieldTypeField:
			fields = append(fields, Field{Name: fj.Field})
		case fieldTypeFunction:
			fields = append(fields, FieldFunctionExpression{FunctionName: fj.FunctionName, Parameters: fj.Parameters, RawValue: fj.RawValue})
		case fieldTypeSubquery:
			fields = append(fields, FieldSubquery{RelationshipName: fj.RelationshipName, Subquery: fj.Subquery})
		default:
			return fault.Newf(fault.BadInputCode, "field #%d: unknown field type %q", i, fj.Type)
		}
	}

	*q = Query{
		Fields:  fields,
		SObject: in.SObject,
		Where:   in.Where,
		OrderBy: in.OrderBy,
		Limit:   in.Limit,
		Offset:  in.Offset,
	}
	return nil
}

type valueConditionJSON struct {
	Field       string             `json:"field"`
	Operator    ComparisonOperator `json:"operator"`
	LiteralType LiteralType        `json:"literalType"`
	Value       json.RawMessage    `json:"value"`
}

func (v ValueCondition) MarshalJSON() ([]byte, error) {
	if v.Value == nil {
		return nil, fmt.Errorf("condition on %q has no value", v.Field)
	}

	var (
		value []byte
		err   error
	)
	if variable, ok := v.Value.(VariableLiteral); ok {
		value, err = json.Marshal(variable)
	} else {
		value, err = json.Marshal(v.Value.Text())
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(valueConditionJSON{
		Field:       v.Field,
		Operator:    v.Operator,
		LiteralType: v.Value.LiteralType(),
		Value:       value,
	})
}

func (v *ValueCondition) UnmarshalJSON(data []byte) error {
	var in valueConditionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	value, err := decodeLiteral(in.LiteralType, in.Value)
	if err != nil {
		return fault.Newf(fault.BadInputCode, "condition on %q: %v", in.Field, err)
	}

	*v = ValueCondition{Field: in.Field, Operator: in.Operator, Value: value}
	return nil
}

func decodeLiteral(lt LiteralType, raw json.RawMessage) (Literal, error) {
	if lt == LiteralJitterbitVariable {
		var variable VariableLiteral
		if err := json.Unmarshal(raw, &variable); err != nil {
			return nil, err
		}
		if variable.Variable == "" {
			return nil, fmt.Errorf("variable name is required")
		}
		if variable.TextValue == "" {
			variable.TextValue = variable.Reference()
		}
		return variable, nil
	}

	// Scalars are accepted either as their source text or as plain JSON
	// values (numbers, booleans, null).
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	if lt == LiteralNull && text == "" {
		text = "NULL"
	}

	switch lt {
	case LiteralString:
		return StringLiteral(text), nil
	case LiteralInteger, LiteralDecimal:
		return NumberLiteral(text), nil
	case LiteralBoolean:
		return BooleanLiteral(text), nil
	case LiteralNull:
		return NullLiteral(text), nil
	default:
		return nil, fmt.Errorf("unknown literal type %q", lt)
	}
}

// Reference renders the unquoted `[name]` / `[name{default}]` form.
func (v VariableLiteral) Reference() string {
	if v.DefaultValue == nil {
		return "[" + v.Variable + "]"
	}
	return "[" + v.Variable + "{" + *v.DefaultValue + "}]"
}
