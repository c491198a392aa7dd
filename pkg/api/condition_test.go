package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/pkg/api"
)

func TestConditionIsGroup(t *testing.T) {
	tests := []struct {
		name     string
		operator api.Operator
		expected bool
	}{
		{name: "and group", operator: api.OpAnd, expected: true},
		{name: "or group", operator: api.OpOr, expected: true},
		{name: "uppercase group", operator: "AND", expected: true},
		{name: "padded group", operator: " or ", expected: true},
		{name: "equals leaf", operator: api.OpEquals, expected: false},
		{name: "unknown leaf", operator: "frobnicate", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := &api.ConditionExpression{Operator: tt.operator}
			assert.Equal(t, tt.expected, expr.IsGroup())
		})
	}
}

func TestConditionValidate(t *testing.T) {
	t.Run("valid leaf", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable: "status",
			Operator: api.OpEquals,
			Value:    "approved",
		}
		assert.NoError(t, expr.Validate())
	})

	t.Run("valid nested group", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Operator: api.OpAnd,
			Conditions: []*api.ConditionExpression{
				{Variable: "age", Operator: api.OpGreaterThan, Value: 18.0},
				{
					Operator: api.OpOr,
					Conditions: []*api.ConditionExpression{
						{Variable: "state", Operator: api.OpEquals, Value: "CA"},
						{Variable: "state", Operator: api.OpEquals, Value: "NY"},
					},
				},
			},
		}
		assert.NoError(t, expr.Validate())
	})

	t.Run("empty group", func(t *testing.T) {
		expr := &api.ConditionExpression{Operator: api.OpAnd}
		assert.NoError(t, expr.Validate())
	})

	t.Run("unknown operator", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable: "status",
			Operator: "resembles",
		}
		assert.ErrorIs(t, expr.Validate(), api.ErrUnknownOperator)
	})

	t.Run("invalid value type", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable:  "status",
			Operator:  api.OpEquals,
			Value:     "x",
			ValueType: "literal",
		}
		assert.ErrorIs(t, expr.Validate(), api.ErrInvalidValueType)
	})

	t.Run("between missing bounds", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable: "age",
			Operator: api.OpBetween,
			Value:    18.0,
		}
		assert.ErrorIs(t, expr.Validate(), api.ErrBetweenBounds)
	})

	t.Run("between with value2", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable: "age",
			Operator: api.OpBetween,
			Value:    18.0,
			Value2:   65.0,
		}
		assert.NoError(t, expr.Validate())
	})

	t.Run("between with range object", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Variable: "age",
			Operator: api.OpBetween,
			Value:    map[string]any{"min": 18.0, "max": 65.0},
		}
		assert.NoError(t, expr.Validate())
	})

	t.Run("nil child rejected", func(t *testing.T) {
		expr := &api.ConditionExpression{
			Operator:   api.OpOr,
			Conditions: []*api.ConditionExpression{nil},
		}
		assert.ErrorIs(t, expr.Validate(), api.ErrConditionNil)
	})
}

func TestConditionJSONRoundTrip(t *testing.T) {
	payload := `{
		"operator": "and",
		"conditions": [
			{"variable": "income", "operator": "greater_than", "value": 50000},
			{
				"variable": "state",
				"operator": "equals",
				"value": "employment_state",
				"valueType": "variable"
			}
		]
	}`

	var expr api.ConditionExpression
	require.NoError(t, json.Unmarshal([]byte(payload), &expr))

	assert.True(t, expr.IsGroup())
	require.Len(t, expr.Conditions, 2)
	assert.Equal(t, api.Key("income"), expr.Conditions[0].Variable)
	assert.Equal(t, 50000.0, expr.Conditions[0].Value)
	assert.Equal(t, api.ValueVariable, expr.Conditions[1].ValueType)

	out, err := json.Marshal(&expr)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}
