package condition

import (
	"log/slog"
	"strings"

	"github.com/fieldline/engine/pkg/api"
)

type (
	// Evaluator evaluates condition expression trees against run data.
	// The zero resolver and logger are usable defaults
	Evaluator struct {
		resolver api.AliasResolver
		logger   *slog.Logger
		maxDepth int
	}

	// Details reports an evaluation outcome for editors and debugging,
	// including how many leaf conditions were actually evaluated before
	// the result was known
	Details struct {
		Reason    string `json:"reason"`
		Evaluated int    `json:"evaluated"`
		Satisfied bool   `json:"satisfied"`
	}
)

// MaxDepth bounds condition tree recursion. Trees deeper than this are
// treated as satisfied rather than risking the stack
const MaxDepth = 64

const (
	ReasonSatisfied    = "Conditions satisfied"
	ReasonNotSatisfied = "Conditions not satisfied"
)

// NewEvaluator creates an evaluator with the given alias resolver and
// logger. A nil resolver treats every variable as a raw key; a nil logger
// falls back to slog.Default
func NewEvaluator(resolver api.AliasResolver, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		resolver: resolver,
		logger:   logger,
		maxDepth: MaxDepth,
	}
}

// Evaluate reports whether the expression is satisfied by the data using a
// default evaluator
func Evaluate(
	expr *api.ConditionExpression, data api.DataMap, resolver api.AliasResolver,
) bool {
	return NewEvaluator(resolver, nil).Evaluate(expr, data)
}

// EvaluateWithDetails evaluates the expression and reports the outcome with
// a display reason and the count of evaluated leaf conditions
func EvaluateWithDetails(
	expr *api.ConditionExpression, data api.DataMap, resolver api.AliasResolver,
) Details {
	return NewEvaluator(resolver, nil).EvaluateWithDetails(expr, data)
}

// Evaluate reports whether the expression is satisfied by the data. A nil
// expression is always satisfied
func (e *Evaluator) Evaluate(
	expr *api.ConditionExpression, data api.DataMap,
) bool {
	ok, _ := e.eval(expr, data, 0)
	return ok
}

// EvaluateWithDetails evaluates the expression and reports the outcome with
// a display reason and the count of evaluated leaf conditions
func (e *Evaluator) EvaluateWithDetails(
	expr *api.ConditionExpression, data api.DataMap,
) Details {
	ok, evaluated := e.eval(expr, data, 0)
	reason := ReasonNotSatisfied
	if ok {
		reason = ReasonSatisfied
	}
	return Details{
		Satisfied: ok,
		Reason:    reason,
		Evaluated: evaluated,
	}
}

func (e *Evaluator) eval(
	expr *api.ConditionExpression, data api.DataMap, depth int,
) (bool, int) {
	if expr == nil {
		return true, 0
	}
	if depth > e.maxDepth {
		e.logger.Warn("condition tree exceeds depth limit, treating as satisfied",
			slog.Int("depth", depth),
		)
		return true, 0
	}
	if expr.IsGroup() {
		return e.evalGroup(expr, data, depth)
	}
	return e.evalLeaf(expr, data)
}

func (e *Evaluator) evalGroup(
	expr *api.ConditionExpression, data api.DataMap, depth int,
) (bool, int) {
	evaluated := 0

	if expr.Operator.Normalize() == api.OpAnd {
		for _, child := range expr.Conditions {
			ok, n := e.eval(child, data, depth+1)
			evaluated += n
			if !ok {
				return false, evaluated
			}
		}
		return true, evaluated
	}

	// an empty or-group is satisfied, mirroring the and-group
	if len(expr.Conditions) == 0 {
		return true, 0
	}
	for _, child := range expr.Conditions {
		ok, n := e.eval(child, data, depth+1)
		evaluated += n
		if ok {
			return true, evaluated
		}
	}
	return false, evaluated
}

func (e *Evaluator) evalLeaf(
	expr *api.ConditionExpression, data api.DataMap,
) (bool, int) {
	if strings.TrimSpace(string(expr.Variable)) == "" {
		return true, 1
	}

	left := e.operand(expr.Variable, data)
	right, right2 := e.comparands(expr, data)

	ok, err := Apply(expr.Operator, left, right, right2)
	if err != nil {
		e.logger.Debug("unknown operator, treating condition as satisfied",
			slog.String("operator", string(expr.Operator)),
			slog.String("variable", string(expr.Variable)),
		)
		return true, 1
	}
	return ok, 1
}

// operand resolves a variable to its answer value. The resolved step ID is
// tried first, then the raw key, since answers may be recorded under either
func (e *Evaluator) operand(key api.Key, data api.DataMap) Value {
	resolved := api.Resolve(e.resolver, key)
	if raw, ok := data.Lookup(resolved); ok {
		return ValueOf(raw)
	}
	if resolved != key {
		if raw, ok := data.Lookup(key); ok {
			return ValueOf(raw)
		}
	}
	return Value{}
}

func (e *Evaluator) comparands(
	expr *api.ConditionExpression, data api.DataMap,
) (Value, Value) {
	right2 := ValueOf(expr.Value2)
	if expr.ValueType != api.ValueVariable {
		return ValueOf(expr.Value), right2
	}
	name, ok := expr.Value.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Value{}, right2
	}
	return e.operand(api.Key(name), data), right2
}
