package ast

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/jitsoql/fault"
)

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func TestLiteralTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		literal  Literal
		expected LiteralType
	}{
		{StringLiteral("'Bob'"), LiteralString},
		{NumberLiteral("42"), LiteralInteger},
		{NumberLiteral("-4.2"), LiteralDecimal},
		{BooleanLiteral("TRUE"), LiteralBoolean},
		{NullLiteral("null"), LiteralNull},
		{VariableLiteral{TextValue: "[v]", Variable: "v"}, LiteralJitterbitVariable},
	}

	for _, tt := range tests {
		cond := ValueCondition{Field: "Id", Operator: OperatorEq, Value: tt.literal}
		assert.Equal(t, tt.expected, cond.LiteralType(), "literal %q", tt.literal.Text())
	}

	assert.Equal(t, LiteralType(""), ValueCondition{Field: "Id"}.LiteralType())
}

func TestVariableLiteral(t *testing.T) {
	t.Parallel()

	v := VariableLiteral{TextValue: "'[v{d}]'", Variable: "v", DefaultValue: strPtr("d")}
	assert.True(t, v.Quoted())
	assert.Equal(t, "[v{d}]", v.Reference())

	v = VariableLiteral{TextValue: "[v]", Variable: "v"}
	assert.False(t, v.Quoted())
	assert.Equal(t, "[v]", v.Reference())
}

func TestQueryJSON(t *testing.T) {
	t.Parallel()

	q := Query{
		Fields: []FieldSpec{
			Field{Name: "Id"},
			FieldFunctionExpression{FunctionName: "COUNT", Parameters: []string{"Id"}, RawValue: "COUNT(Id)"},
			FieldSubquery{
				RelationshipName: "Contacts",
				Subquery: &Query{
					Fields: []FieldSpec{Field{Name: "Name"}},
				},
			},
		},
		SObject: "Account",
		Where: &ConditionNode{
			Left:     ValueCondition{Field: "Id", Operator: OperatorEq, Value: VariableLiteral{TextValue: "[variable{default}]", Variable: "variable", DefaultValue: strPtr("default")}},
			Operator: OperatorOr,
			Right: &ConditionNode{
				Left: ValueCondition{Field: "Name", Operator: OperatorNe, Value: StringLiteral("'Bob'")},
			},
		},
		OrderBy: []OrderSpec{{Field: "Name", Order: OrderDesc}},
		Limit:   intPtr(10),
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	expected := `{
		"fields": [
			{"type": "Field", "field": "Id"},
			{"type": "FieldFunctionExpression", "functionName": "COUNT", "parameters": ["Id"], "rawValue": "COUNT(Id)"},
			{"type": "FieldSubquery", "relationshipName": "Contacts", "subquery": {"fields": [{"type": "Field", "field": "Name"}]}}
		],
		"sObject": "Account",
		"where": {
			"left": {
				"field": "Id",
				"operator": "=",
				"literalType": "JITTERBIT_VARIABLE",
				"value": {"text": "[variable{default}]", "variable": "variable", "defaultValue": "default"}
			},
			"operator": "OR",
			"right": {
				"left": {"field": "Name", "operator": "!=", "literalType": "STRING", "value": "'Bob'"}
			}
		},
		"orderBy": [{"field": "Name", "order": "DESC"}],
		"limit": 10
	}`
	assert.JSONEq(t, expected, string(data))

	var decoded Query
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(q, decoded); diff != "" {
		t.Fatalf("decoded query mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryJSONPlainValues(t *testing.T) {
	t.Parallel()

	input := `{
		"fields": [{"type": "Field", "field": "Id"}],
		"sObject": "Account",
		"where": {
			"left": {"field": "Age", "operator": ">", "literalType": "INTEGER", "value": 21},
			"operator": "AND",
			"right": {
				"left": {"field": "Active", "operator": "=", "literalType": "BOOLEAN", "value": true},
				"operator": "AND",
				"right": {
					"left": {"field": "Owner", "operator": "=", "literalType": "NULL", "value": null},
					"operator": "AND",
					"right": {
						"left": {"field": "Id", "operator": "=", "literalType": "JITTERBIT_VARIABLE", "value": {"variable": "v"}}
					}
				}
			}
		}
	}`

	var q Query
	require.NoError(t, json.Unmarshal([]byte(input), &q))

	cond := q.Where
	assert.Equal(t, NumberLiteral("21"), cond.Left.Value)
	cond = cond.Right
	assert.Equal(t, BooleanLiteral("true"), cond.Left.Value)
	cond = cond.Right
	assert.Equal(t, NullLiteral("NULL"), cond.Left.Value)
	cond = cond.Right
	assert.Equal(t, VariableLiteral{TextValue: "[v]", Variable: "v"}, cond.Left.Value)
	assert.True(t, cond.IsTerminal())
}

func TestQueryJSONErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown field type":   `{"fields": [{"type": "Bogus"}], "sObject": "A"}`,
		"unknown literal type": `{"fields": [], "sObject": "A", "where": {"left": {"field": "Id", "operator": "=", "literalType": "DATE", "value": "x"}}}`,
		"nameless variable":    `{"fields": [], "sObject": "A", "where": {"left": {"field": "Id", "operator": "=", "literalType": "JITTERBIT_VARIABLE", "value": {"text": "[x]"}}}}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var q Query
			err := json.Unmarshal([]byte(input), &q)
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.BadInputCode), "got %v", err)
		})
	}

	_, err := json.Marshal(ValueCondition{Field: "Id", Operator: OperatorEq})
	assert.Error(t, err)
}
