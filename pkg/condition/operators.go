package condition

import (
	"fmt"
	"strings"

	"github.com/fieldline/engine/pkg/api"
)

// Apply evaluates a single comparison between a resolved answer and the
// expression's comparison values. Unknown operators return
// api.ErrUnknownOperator; the callers decide how permissive to be about it
func Apply(op api.Operator, left, right, right2 Value) (bool, error) {
	switch op.Normalize() {
	case api.OpEquals:
		return left.Equal(right), nil

	case api.OpNotEquals:
		return !left.Equal(right), nil

	case api.OpContains:
		return left.Contains(right), nil

	case api.OpNotContains:
		return !left.Contains(right), nil

	case api.OpStartsWith:
		return strings.HasPrefix(foldText(left), foldText(right)), nil

	case api.OpEndsWith:
		return strings.HasSuffix(foldText(left), foldText(right)), nil

	case api.OpGreaterThan:
		return compareNumeric(left, right, func(a, b float64) bool {
			return a > b
		}), nil

	case api.OpLessThan:
		return compareNumeric(left, right, func(a, b float64) bool {
			return a < b
		}), nil

	case api.OpGreaterOrEqual:
		return compareNumeric(left, right, func(a, b float64) bool {
			return a >= b
		}), nil

	case api.OpLessOrEqual:
		return compareNumeric(left, right, func(a, b float64) bool {
			return a <= b
		}), nil

	case api.OpBetween:
		return applyBetween(left, right, right2), nil

	case api.OpIsTrue:
		return left.Truthy(), nil

	case api.OpIsFalse:
		return !left.Truthy(), nil

	case api.OpIsEmpty:
		return left.IsEmpty(), nil

	case api.OpIsNotEmpty:
		return !left.IsEmpty(), nil

	case api.OpIncludes:
		return includes(left, right), nil

	case api.OpNotIncludes:
		return !includes(left, right), nil

	case api.OpIncludesAll:
		return includesAll(left, right), nil

	case api.OpIncludesAny:
		return includesAny(left, right), nil

	default:
		return false, fmt.Errorf("%w: %s", api.ErrUnknownOperator, op)
	}
}

func compareNumeric(left, right Value, cmp func(a, b float64) bool) bool {
	a, ok := left.AsNumber()
	if !ok {
		return false
	}
	b, ok := right.AsNumber()
	if !ok {
		return false
	}
	return cmp(a, b)
}

// applyBetween checks lo <= left <= hi, inclusive of both bounds. Bounds
// come from value and value2, or from a {min, max} object in value
func applyBetween(left, lo, hi Value) bool {
	if hi.IsNull() && lo.Kind() == KindObject {
		bounds := lo.obj
		var ok bool
		lo, ok = boundsField(bounds, "min")
		if !ok {
			return false
		}
		hi, ok = boundsField(bounds, "max")
		if !ok {
			return false
		}
	}

	val, ok := left.AsNumber()
	if !ok {
		return false
	}
	min, ok := lo.AsNumber()
	if !ok {
		return false
	}
	max, ok := hi.AsNumber()
	if !ok {
		return false
	}
	return val >= min && val <= max
}

func boundsField(bounds map[string]Value, name string) (Value, bool) {
	val, ok := bounds[name]
	return val, ok
}

func includes(left, right Value) bool {
	for _, elem := range left.Elements() {
		if elem.Equal(right) {
			return true
		}
	}
	return false
}

func includesAll(left, right Value) bool {
	for _, want := range right.Elements() {
		if !includes(left, want) {
			return false
		}
	}
	return true
}

func includesAny(left, right Value) bool {
	for _, want := range right.Elements() {
		if includes(left, want) {
			return true
		}
	}
	return false
}

func foldText(v Value) string {
	return strings.ToLower(v.AsText())
}
