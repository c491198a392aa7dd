package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type (
	// Kind discriminates the closed set of value shapes a condition can
	// compare. Every answer coerces into exactly one Kind
	Kind int

	// Value is a JSON-shaped answer value in normalized form. The zero
	// Value is null. Coercions between kinds are explicit and total: they
	// report failure instead of guessing
	Value struct {
		arr  []Value
		obj  map[string]Value
		str  string
		num  float64
		kind Kind
		b    bool
	}
)

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

// dateLayouts are the timestamp shapes answers arrive in. Date-valued
// strings coerce to epoch milliseconds for ordering comparisons
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ValueOf normalizes any JSON-shaped Go value into a Value. Unknown types
// are stringified rather than rejected
func ValueOf(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{}
	case Value:
		return val
	case string:
		return Value{kind: KindString, str: val}
	case bool:
		return Value{kind: KindBoolean, b: val}
	case float64:
		return Value{kind: KindNumber, num: val}
	case float32:
		return Value{kind: KindNumber, num: float64(val)}
	case int:
		return Value{kind: KindNumber, num: float64(val)}
	case int8:
		return Value{kind: KindNumber, num: float64(val)}
	case int16:
		return Value{kind: KindNumber, num: float64(val)}
	case int32:
		return Value{kind: KindNumber, num: float64(val)}
	case int64:
		return Value{kind: KindNumber, num: float64(val)}
	case uint:
		return Value{kind: KindNumber, num: float64(val)}
	case uint8:
		return Value{kind: KindNumber, num: float64(val)}
	case uint16:
		return Value{kind: KindNumber, num: float64(val)}
	case uint32:
		return Value{kind: KindNumber, num: float64(val)}
	case uint64:
		return Value{kind: KindNumber, num: float64(val)}
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Value{kind: KindNumber, num: f}
		}
		return Value{kind: KindString, str: val.String()}
	case []any:
		arr := make([]Value, len(val))
		for i, elem := range val {
			arr[i] = ValueOf(elem)
		}
		return Value{kind: KindArray, arr: arr}
	case []string:
		arr := make([]Value, len(val))
		for i, elem := range val {
			arr[i] = ValueOf(elem)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(val))
		for k, elem := range val {
			obj[k] = ValueOf(elem)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return Value{kind: KindString, str: fmt.Sprint(v)}
	}
}

// Kind returns the value's shape
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true for null and absent answers
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsNumber coerces the value to a float64 for ordering comparisons.
// Numbers pass through, booleans become 0 or 1, and strings parse as
// numerics or as dates (epoch milliseconds). Arrays, objects, and null
// do not coerce
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBoolean:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return float64(t.UnixMilli()), true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsText renders the value as a string for substring comparisons. Null
// renders empty; arrays and objects render as JSON
func (v Value) AsText() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNull:
		return ""
	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Interface returns the value in plain JSON-shaped Go form
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		arr := make([]any, len(v.arr))
		for i, elem := range v.arr {
			arr[i] = elem.Interface()
		}
		return arr
	default:
		obj := make(map[string]any, len(v.obj))
		for k, elem := range v.obj {
			obj[k] = elem.Interface()
		}
		return obj
	}
}

// Truthy reports whether the value counts as an affirmative answer:
// boolean true, or the strings "true", "yes", "1" in any case
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindNull:
		return false
	default:
		s := strings.ToLower(strings.TrimSpace(v.AsText()))
		return s == "true" || s == "yes" || s == "1"
	}
}

// IsEmpty reports whether the value counts as unanswered: null,
// whitespace-only text, or an empty array or object. Zero and false are
// answers, not blanks
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindArray:
		return len(v.arr) == 0
	case KindObject:
		return len(v.obj) == 0
	default:
		return false
	}
}

// Equal compares two values loosely, the way answers compare on the wire:
// text case-insensitively, numerics across numeric strings, booleans
// across their string forms, arrays as multisets, objects structurally.
// Null equals only null
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == other.kind
	}

	if v.kind == other.kind {
		switch v.kind {
		case KindString:
			return strings.EqualFold(v.str, other.str)
		case KindNumber:
			return v.num == other.num
		case KindBoolean:
			return v.b == other.b
		case KindArray:
			return multisetEqual(v.arr, other.arr)
		default:
			return objectEqual(v.obj, other.obj)
		}
	}

	if a, ok := v.AsNumber(); ok {
		if b, ok := other.AsNumber(); ok {
			return a == b
		}
	}

	if v.kind == KindBoolean || other.kind == KindBoolean {
		a, ok1 := v.asBool()
		b, ok2 := other.asBool()
		if ok1 && ok2 {
			return a == b
		}
	}

	return false
}

// Contains reports substring containment for text values and membership
// for arrays. Any other left operand never contains anything
func (v Value) Contains(other Value) bool {
	switch v.kind {
	case KindArray:
		for _, elem := range v.arr {
			if elem.Equal(other) {
				return true
			}
		}
		return false
	case KindString:
		return strings.Contains(
			strings.ToLower(v.str),
			strings.ToLower(other.AsText()),
		)
	default:
		return false
	}
}

// Elements returns the value as a list: arrays return their elements,
// null returns nothing, and scalars return themselves as a single element
func (v Value) Elements() []Value {
	switch v.kind {
	case KindArray:
		return v.arr
	case KindNull:
		return nil
	default:
		return []Value{v}
	}
}

func (v Value) asBool() (bool, bool) {
	switch v.kind {
	case KindBoolean:
		return v.b, true
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
		return false, false
	case KindNumber:
		switch v.num {
		case 1:
			return true, true
		case 0:
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func multisetEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, av := range a {
		found := false
		for j, bv := range b {
			if !used[j] && av.Equal(bv) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func objectEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}
