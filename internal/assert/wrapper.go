package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldline/engine/internal/config"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/run"
)

// Wrapper wraps testify assertions with Fieldline-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 100 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus Fieldline-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// WorkflowValid asserts that a workflow definition is valid
func (w *Wrapper) WorkflowValid(wf *api.Workflow) {
	w.Helper()
	w.NoError(wf.Validate())
	w.NotEmpty(wf.ID)
	w.NotEmpty(wf.Name)
}

// WorkflowInvalid asserts that a workflow definition is invalid and returns
// the validation error
func (w *Wrapper) WorkflowInvalid(
	wf *api.Workflow, expectedErrorContains string,
) error {
	w.Helper()
	err := wf.Validate()
	w.Error(err)
	if err != nil && expectedErrorContains != "" {
		w.Contains(err.Error(), expectedErrorContains)
	}
	return err
}

// SectionsVisible asserts that a view shows all of the given sections
func (w *Wrapper) SectionsVisible(v *run.View, ids ...api.SectionID) {
	w.Helper()
	for _, id := range ids {
		w.True(v.VisibleSections.Contains(id),
			"section should be visible: %s", id)
	}
}

// SectionsHidden asserts that a view hides all of the given sections
func (w *Wrapper) SectionsHidden(v *run.View, ids ...api.SectionID) {
	w.Helper()
	for _, id := range ids {
		w.False(v.VisibleSections.Contains(id),
			"section should be hidden: %s", id)
	}
}

// StepsRequired asserts that a view requires all of the given steps
func (w *Wrapper) StepsRequired(v *run.View, ids ...api.StepID) {
	w.Helper()
	for _, id := range ids {
		w.True(v.RequiredSteps.Contains(id),
			"step should be required: %s", id)
	}
}

// StepsOptional asserts that a view requires none of the given steps
func (w *Wrapper) StepsOptional(v *run.View, ids ...api.StepID) {
	w.Helper()
	for _, id := range ids {
		w.False(v.RequiredSteps.Contains(id),
			"step should be optional: %s", id)
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.True(cfg.SessionTTL > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

// EventuallyWithError runs a condition that returns an error until it succeeds
// or times out
func (w *Wrapper) EventuallyWithError(
	condition func() error, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := condition()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(DefaultRetryInterval)
	}
	if lastErr != nil {
		w.Fail(msg+": last error: "+lastErr.Error(), args...)
		return
	}
	w.Fail(msg, args...)
}
