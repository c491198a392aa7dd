package condition

import (
	"fmt"
	"strings"

	"github.com/fieldline/engine/pkg/api"
)

// DescribeAlways is the rendering of a condition that always holds
const DescribeAlways = "Always"

var operatorPhrases = map[api.Operator]string{
	api.OpEquals:         "is",
	api.OpNotEquals:      "is not",
	api.OpContains:       "contains",
	api.OpNotContains:    "does not contain",
	api.OpStartsWith:     "starts with",
	api.OpEndsWith:       "ends with",
	api.OpGreaterThan:    "is greater than",
	api.OpLessThan:       "is less than",
	api.OpGreaterOrEqual: "is at least",
	api.OpLessOrEqual:    "is at most",
	api.OpIncludes:       "includes",
	api.OpNotIncludes:    "does not include",
	api.OpIncludesAll:    "includes all of",
	api.OpIncludesAny:    "includes any of",
}

// Describe renders a condition expression as text for editors. Variables
// are replaced by their labels when one is known; nested groups are
// parenthesized and joined by AND/OR
func Describe(
	expr *api.ConditionExpression, labels map[api.Key]string,
) string {
	if expr == nil {
		return DescribeAlways
	}
	return describe(expr, labels, false)
}

func describe(
	expr *api.ConditionExpression, labels map[api.Key]string, nested bool,
) string {
	if !expr.IsGroup() {
		return describeLeaf(expr, labels)
	}

	parts := make([]string, 0, len(expr.Conditions))
	for _, child := range expr.Conditions {
		if child == nil {
			continue
		}
		parts = append(parts, describe(child, labels, true))
	}
	switch len(parts) {
	case 0:
		return DescribeAlways
	case 1:
		return parts[0]
	}

	joiner := " AND "
	if expr.Operator.Normalize() == api.OpOr {
		joiner = " OR "
	}
	joined := strings.Join(parts, joiner)
	if nested {
		return "(" + joined + ")"
	}
	return joined
}

func describeLeaf(
	expr *api.ConditionExpression, labels map[api.Key]string,
) string {
	if strings.TrimSpace(string(expr.Variable)) == "" {
		return DescribeAlways
	}
	name := labelFor(expr.Variable, labels)

	switch expr.Operator.Normalize() {
	case api.OpIsTrue:
		return name + " is true"
	case api.OpIsFalse:
		return name + " is false"
	case api.OpIsEmpty:
		return name + " is empty"
	case api.OpIsNotEmpty:
		return name + " is not empty"
	case api.OpBetween:
		lo, hi := betweenBounds(expr)
		return fmt.Sprintf("%s is between %s and %s",
			name, formatValue(lo), formatValue(hi))
	}

	phrase, ok := operatorPhrases[expr.Operator.Normalize()]
	if !ok {
		phrase = string(expr.Operator)
	}
	return fmt.Sprintf("%s %s %s", name, phrase, formatOperand(expr, labels))
}

func betweenBounds(expr *api.ConditionExpression) (Value, Value) {
	lo := ValueOf(expr.Value)
	hi := ValueOf(expr.Value2)
	if hi.IsNull() && lo.Kind() == KindObject {
		min, okMin := lo.obj["min"]
		max, okMax := lo.obj["max"]
		if okMin && okMax {
			return min, max
		}
	}
	return lo, hi
}

func formatOperand(
	expr *api.ConditionExpression, labels map[api.Key]string,
) string {
	if expr.ValueType == api.ValueVariable {
		if name, ok := expr.Value.(string); ok {
			return labelFor(api.Key(name), labels)
		}
	}
	return formatValue(ValueOf(expr.Value))
}

func formatValue(v Value) string {
	switch v.Kind() {
	case KindString:
		return fmt.Sprintf("%q", v.AsText())
	case KindNull:
		return "nothing"
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, elem := range v.arr {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.AsText()
	}
}

func labelFor(key api.Key, labels map[api.Key]string) string {
	if label, ok := labels[key]; ok && label != "" {
		return label
	}
	return string(key)
}
