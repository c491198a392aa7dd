package api

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Operator names a comparison or grouping operation in a condition
	// expression. Matching is case-insensitive on the wire
	Operator string

	// ValueType declares how a leaf's comparison value is interpreted:
	// as a literal constant or as a reference to another answer
	ValueType string

	// ConditionExpression is a node in a visibility condition tree. A group
	// node carries a logical operator and child conditions; a leaf node
	// compares the answer under Variable against Value (and Value2 for
	// range checks). Groups nest to arbitrary depth
	ConditionExpression struct {
		Operator   Operator               `json:"operator"`
		Conditions []*ConditionExpression `json:"conditions,omitempty"`
		Variable   Key                    `json:"variable,omitempty"`
		Value      any                    `json:"value,omitempty"`
		Value2     any                    `json:"value2,omitempty"`
		ValueType  ValueType              `json:"valueType,omitempty"`
	}
)

const (
	OpAnd Operator = "and"
	OpOr  Operator = "or"

	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	OpBetween        Operator = "between"
	OpIsTrue         Operator = "is_true"
	OpIsFalse        Operator = "is_false"
	OpIsEmpty        Operator = "is_empty"
	OpIsNotEmpty     Operator = "is_not_empty"
	OpIncludes       Operator = "includes"
	OpNotIncludes    Operator = "not_includes"
	OpIncludesAll    Operator = "includes_all"
	OpIncludesAny    Operator = "includes_any"
)

const (
	ValueConstant ValueType = "constant"
	ValueVariable ValueType = "variable"
)

var (
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrInvalidValueType = errors.New("invalid value type")
	ErrConditionNil     = errors.New("condition is nil")
	ErrBetweenBounds    = errors.New("between requires value and value2")
)

var validLeafOperators = SetOf(
	OpEquals,
	OpNotEquals,
	OpContains,
	OpNotContains,
	OpStartsWith,
	OpEndsWith,
	OpGreaterThan,
	OpLessThan,
	OpGreaterOrEqual,
	OpLessOrEqual,
	OpBetween,
	OpIsTrue,
	OpIsFalse,
	OpIsEmpty,
	OpIsNotEmpty,
	OpIncludes,
	OpNotIncludes,
	OpIncludesAll,
	OpIncludesAny,
)

// Normalize lowercases and trims an operator for case-insensitive matching
func (o Operator) Normalize() Operator {
	return Operator(strings.ToLower(strings.TrimSpace(string(o))))
}

// IsGroup returns true if the expression is a logical group (and/or) rather
// than a leaf comparison
func (c *ConditionExpression) IsGroup() bool {
	op := c.Operator.Normalize()
	return op == OpAnd || op == OpOr
}

// Validate checks an expression tree for authoring mistakes. Evaluation is
// deliberately more permissive than validation: a tree that fails Validate
// still evaluates without error
func (c *ConditionExpression) Validate() error {
	if c == nil {
		return ErrConditionNil
	}
	if c.IsGroup() {
		for _, child := range c.Conditions {
			if child == nil {
				return ErrConditionNil
			}
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	op := c.Operator.Normalize()
	if !validLeafOperators.Contains(op) {
		return fmt.Errorf("%w: %s", ErrUnknownOperator, c.Operator)
	}
	if c.ValueType != "" &&
		c.ValueType != ValueConstant && c.ValueType != ValueVariable {
		return fmt.Errorf("%w: %s", ErrInvalidValueType, c.ValueType)
	}
	if op == OpBetween && c.Value2 == nil && !hasRangeShape(c.Value) {
		return ErrBetweenBounds
	}
	return nil
}

func hasRangeShape(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	_, hasMin := m["min"]
	_, hasMax := m["max"]
	return hasMin && hasMax
}
