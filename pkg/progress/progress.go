// Package progress checks run answers against the effective required-step
// set to decide whether a run may move forward.
package progress

import (
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/condition"
)

// ValidateRequiredSteps reports which required steps are still unanswered.
// A step is missing when its answer is absent, whitespace-only text, or an
// empty collection; 0 and false are answers. The emptiness test is the
// operator table's is_empty, so the two checks cannot disagree.
// MissingSteps preserves the order of required
func ValidateRequiredSteps(
	required []api.StepID, data api.DataMap,
) api.Validation {
	missing := make([]api.StepID, 0, len(required))
	for _, id := range required {
		if id == "" {
			continue
		}
		raw, ok := data.Lookup(api.Key(id))
		if !ok || condition.ValueOf(raw).IsEmpty() {
			missing = append(missing, id)
		}
	}
	return api.Validation{
		Valid:        len(missing) == 0,
		MissingSteps: missing,
	}
}

// ValidateRequiredSet is ValidateRequiredSteps over a set; missing steps
// are reported in sorted ID order for determinism
func ValidateRequiredSet(
	required api.Set[api.StepID], data api.DataMap,
) api.Validation {
	return ValidateRequiredSteps(required.Sorted(), data)
}
