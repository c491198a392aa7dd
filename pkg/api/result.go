package api

type (
	// EvaluationResult is the outcome of folding logic rules over a run's
	// answers. Sets marshal as sorted JSON arrays. All mutators are
	// copy-on-write: the receiver is never modified
	EvaluationResult struct {
		VisibleSections Set[SectionID] `json:"visibleSections"`
		VisibleSteps    Set[StepID]    `json:"visibleSteps"`
		RequiredSteps   Set[StepID]    `json:"requiredSteps"`
		SkipToSectionID SectionID      `json:"skipToSectionId,omitempty"`
	}

	// Validation reports whether every required step has an answer.
	// MissingSteps preserves the order required steps were checked in
	Validation struct {
		Valid        bool     `json:"valid"`
		MissingSteps []StepID `json:"missingSteps"`
	}
)

// NewEvaluationResult returns a result with empty visibility and requirement
// sets and no skip target
func NewEvaluationResult() *EvaluationResult {
	return &EvaluationResult{
		VisibleSections: Set[SectionID]{},
		VisibleSteps:    Set[StepID]{},
		RequiredSteps:   Set[StepID]{},
	}
}

// ShowSection returns a new result with the section visible
func (r *EvaluationResult) ShowSection(id SectionID) *EvaluationResult {
	res := *r
	res.VisibleSections = r.VisibleSections.With(id)
	return &res
}

// HideSection returns a new result with the section hidden
func (r *EvaluationResult) HideSection(id SectionID) *EvaluationResult {
	res := *r
	res.VisibleSections = r.VisibleSections.Without(id)
	return &res
}

// ShowStep returns a new result with the step visible
func (r *EvaluationResult) ShowStep(id StepID) *EvaluationResult {
	res := *r
	res.VisibleSteps = r.VisibleSteps.With(id)
	return &res
}

// HideStep returns a new result with the step hidden. A hidden step can
// never block progress, so it is also removed from the required set
func (r *EvaluationResult) HideStep(id StepID) *EvaluationResult {
	res := *r
	res.VisibleSteps = r.VisibleSteps.Without(id)
	res.RequiredSteps = r.RequiredSteps.Without(id)
	return &res
}

// RequireStep returns a new result with the step required
func (r *EvaluationResult) RequireStep(id StepID) *EvaluationResult {
	res := *r
	res.RequiredSteps = r.RequiredSteps.With(id)
	return &res
}

// MakeStepOptional returns a new result with the step no longer required
func (r *EvaluationResult) MakeStepOptional(id StepID) *EvaluationResult {
	res := *r
	res.RequiredSteps = r.RequiredSteps.Without(id)
	return &res
}

// SetSkipTo returns a new result with the skip target set. Later rules
// overwrite earlier ones
func (r *EvaluationResult) SetSkipTo(id SectionID) *EvaluationResult {
	res := *r
	res.SkipToSectionID = id
	return &res
}

// Equal returns true if both results carry the same sets and skip target
func (r *EvaluationResult) Equal(other *EvaluationResult) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.VisibleSections.Equal(other.VisibleSections) &&
		r.VisibleSteps.Equal(other.VisibleSteps) &&
		r.RequiredSteps.Equal(other.RequiredSteps) &&
		r.SkipToSectionID == other.SkipToSectionID
}
