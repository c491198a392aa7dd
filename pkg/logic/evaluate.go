package logic

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/condition"
)

// Evaluator folds logic rules into evaluation results. The zero resolver
// and logger are usable defaults
type Evaluator struct {
	resolver api.AliasResolver
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator with the given alias resolver and
// logger. A nil resolver treats every condition step ID as a raw key; a
// nil logger falls back to slog.Default
func NewEvaluator(resolver api.AliasResolver, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		resolver: resolver,
		logger:   logger,
	}
}

// EvaluateRules folds the rules into a fresh evaluation result using a
// default evaluator
func EvaluateRules(
	rules []*api.LogicRule, data api.DataMap, resolver api.AliasResolver,
) *api.EvaluationResult {
	return NewEvaluator(resolver, nil).EvaluateRules(rules, data)
}

// EffectiveRequiredSteps adjusts a baseline required set by the
// require/make_optional rules using a default evaluator
func EffectiveRequiredSteps(
	initial api.Set[api.StepID], rules []*api.LogicRule,
	data api.DataMap, resolver api.AliasResolver,
) api.Set[api.StepID] {
	return NewEvaluator(resolver, nil).EffectiveRequiredSteps(
		initial, rules, data,
	)
}

// EvaluateRules folds the rules into a fresh evaluation result. Rules apply
// in ascending Order, each evaluated once against the same data snapshot;
// the result starts empty and later rules override earlier ones
func (e *Evaluator) EvaluateRules(
	rules []*api.LogicRule, data api.DataMap,
) *api.EvaluationResult {
	return e.ApplyRules(api.NewEvaluationResult(), rules, data)
}

// ApplyRules folds the rules over an existing result, so callers may seed
// visibility before rule deltas apply. The initial result is left unchanged
func (e *Evaluator) ApplyRules(
	initial *api.EvaluationResult, rules []*api.LogicRule, data api.DataMap,
) *api.EvaluationResult {
	res := initial
	if res == nil {
		res = api.NewEvaluationResult()
	}
	for _, r := range sortedRules(rules) {
		res = e.applyRule(r, data, res)
	}
	return res
}

// EffectiveRequiredSteps applies only the require and make_optional actions
// of step-targeted rules to a caller-supplied baseline. The baseline is
// never mutated; a fresh set is always returned
func (e *Evaluator) EffectiveRequiredSteps(
	initial api.Set[api.StepID], rules []*api.LogicRule, data api.DataMap,
) api.Set[api.StepID] {
	res := initial.Clone()
	for _, r := range sortedRules(rules) {
		if r.Action != api.ActionRequire && r.Action != api.ActionMakeOptional {
			continue
		}
		id, ok := r.StepTarget()
		if !ok {
			continue
		}
		if !e.matches(r, data) {
			continue
		}
		if r.Action == api.ActionRequire {
			res = res.With(id)
		} else {
			res = res.Without(id)
		}
	}
	return res
}

// applyRule folds a single rule into the result. Rules with no target for
// their target type are skipped entirely, as are rules whose condition is
// not satisfied
func (e *Evaluator) applyRule(
	r *api.LogicRule, data api.DataMap, res *api.EvaluationResult,
) *api.EvaluationResult {
	if !hasTarget(r) {
		return res
	}
	if !e.matches(r, data) {
		return res
	}

	switch r.Action {
	case api.ActionShow:
		if id, ok := r.SectionTarget(); ok {
			return res.ShowSection(id)
		}
		if id, ok := r.StepTarget(); ok {
			return res.ShowStep(id)
		}
	case api.ActionHide:
		if id, ok := r.SectionTarget(); ok {
			return res.HideSection(id)
		}
		if id, ok := r.StepTarget(); ok {
			return res.HideStep(id)
		}
	case api.ActionRequire:
		if id, ok := r.StepTarget(); ok {
			return res.RequireStep(id)
		}
	case api.ActionMakeOptional:
		if id, ok := r.StepTarget(); ok {
			return res.MakeStepOptional(id)
		}
	case api.ActionSkipTo:
		if id, ok := r.SectionTarget(); ok {
			return res.SetSkipTo(id)
		}
	}
	return res
}

// matches evaluates the rule's single condition with the shared operator
// table. An unknown operator logs a warning and leaves the rule unapplied,
// unlike the expression evaluator's permissive default
func (e *Evaluator) matches(r *api.LogicRule, data api.DataMap) bool {
	left := e.operand(r.ConditionStepID, data)
	ok, err := condition.Apply(
		r.Operator, left, condition.ValueOf(r.ConditionValue),
		condition.ValueOf(nil),
	)
	if err != nil {
		e.logger.Warn("unknown operator, rule not applied",
			slog.String("operator", string(r.Operator)),
			slog.String("step", string(r.ConditionStepID)),
		)
		return false
	}
	return ok
}

// operand resolves a condition step ID to its answer value. The resolved
// step ID is tried first, then the raw key, matching the expression
// evaluator so alias-based and id-based rules behave the same
func (e *Evaluator) operand(key api.Key, data api.DataMap) condition.Value {
	resolved := api.Resolve(e.resolver, key)
	if raw, ok := data.Lookup(resolved); ok {
		return condition.ValueOf(raw)
	}
	if resolved != key {
		if raw, ok := data.Lookup(key); ok {
			return condition.ValueOf(raw)
		}
	}
	return condition.ValueOf(nil)
}

func hasTarget(r *api.LogicRule) bool {
	if _, ok := r.SectionTarget(); ok {
		return true
	}
	_, ok := r.StepTarget()
	return ok
}

// sortedRules returns the rules in ascending Order with nil entries
// dropped. The sort is stable so rules sharing an Order keep their
// authored sequence, which decides last-write-wins conflicts
func sortedRules(rules []*api.LogicRule) []*api.LogicRule {
	res := make([]*api.LogicRule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			res = append(res, r)
		}
	}
	slices.SortStableFunc(res, func(a, b *api.LogicRule) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return res
}
