// Package run composes the engine pipeline the way the runtime consumes
// it: answers in, a fully derived view of the workflow out. Every answer
// change re-evaluates the whole pipeline; nothing is patched incrementally.
package run

import (
	"log/slog"

	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/condition"
	"github.com/fieldline/engine/pkg/logic"
	"github.com/fieldline/engine/pkg/nav"
	"github.com/fieldline/engine/pkg/progress"
)

type (
	// Runner evaluates workflows against run data
	Runner struct {
		logger *slog.Logger
	}

	// View is the derived state of one workflow for one set of answers:
	// what is visible, what is required, and where an explicit skip rule
	// points. Views are immutable snapshots; evaluate again after any
	// answer change
	View struct {
		VisibleSections api.Set[api.SectionID] `json:"visibleSections"`
		VisibleSteps    api.Set[api.StepID]    `json:"visibleSteps"`
		RequiredSteps   api.Set[api.StepID]    `json:"requiredSteps"`
		SkipTo          api.SectionID          `json:"skipToSectionId,omitempty"`

		wf *api.Workflow
	}
)

// NewRunner creates a runner. A nil logger falls back to slog.Default
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Evaluate derives a view using a default runner
func Evaluate(wf *api.Workflow, data api.DataMap) *View {
	return NewRunner(nil).Evaluate(wf, data)
}

// Evaluate derives the workflow's view for the given answers. Visibility
// seeds from each section and step visibleIf, legacy rules apply as deltas
// over the seeds, and the required set is the design-time baseline adjusted
// by require/make_optional rules. Hidden steps are never required
func (r *Runner) Evaluate(wf *api.Workflow, data api.DataMap) *View {
	view := &View{
		VisibleSections: api.Set[api.SectionID]{},
		VisibleSteps:    api.Set[api.StepID]{},
		RequiredSteps:   api.Set[api.StepID]{},
	}
	if wf == nil {
		return view
	}

	resolver := wf.Resolver()
	conds := condition.NewEvaluator(resolver, r.logger)
	rules := logic.NewEvaluator(resolver, r.logger)

	folded := rules.ApplyRules(r.seed(conds, wf, data), wf.Rules, data)

	baseline := api.Set[api.StepID]{}
	for _, id := range wf.BaselineRequired() {
		if folded.VisibleSteps.Contains(id) {
			baseline[id] = struct{}{}
		}
	}
	effective := rules.EffectiveRequiredSteps(baseline, wf.Rules, data)

	required := api.Set[api.StepID]{}
	for id := range effective {
		if folded.VisibleSteps.Contains(id) {
			required[id] = struct{}{}
		}
	}

	view.VisibleSections = folded.VisibleSections
	view.VisibleSteps = folded.VisibleSteps
	view.RequiredSteps = required
	view.SkipTo = folded.SkipToSectionID
	view.wf = wf
	return view
}

// seed derives rule-independent visibility from visibleIf conditions. Steps
// of a hidden section stay hidden regardless of their own conditions
func (r *Runner) seed(
	conds *condition.Evaluator, wf *api.Workflow, data api.DataMap,
) *api.EvaluationResult {
	res := api.NewEvaluationResult()
	for _, sect := range wf.Sections {
		if sect == nil || !conds.Evaluate(sect.VisibleIf, data) {
			continue
		}
		res = res.ShowSection(sect.ID)
		for _, step := range sect.Steps {
			if step == nil {
				continue
			}
			if conds.Evaluate(step.VisibleIf, data) {
				res = res.ShowStep(step.ID)
			}
		}
	}
	return res
}

// NextAfter returns the section a run moves to from current, honoring the
// view's skip target and visibility. ok is false when the workflow is
// complete
func (v *View) NextAfter(current api.SectionID) (api.SectionID, bool) {
	if v.wf == nil {
		return "", false
	}
	return nav.ResolveNextSection(
		current, v.SkipTo, v.wf.Sections, v.VisibleSections,
	)
}

// Validate checks the answers against the view's required steps, reporting
// missing steps in form order
func (v *View) Validate(data api.DataMap) api.Validation {
	ordered := make([]api.StepID, 0, v.RequiredSteps.Len())
	if v.wf != nil {
		for _, sect := range v.wf.OrderedSections() {
			for _, step := range sect.OrderedSteps() {
				if v.RequiredSteps.Contains(step.ID) {
					ordered = append(ordered, step.ID)
				}
			}
		}
	}
	return progress.ValidateRequiredSteps(ordered, data)
}
