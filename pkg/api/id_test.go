package api_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldline/engine/pkg/api"
)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{name: "clean id", input: "my-workflow", expected: "my-workflow"},
		{
			name: "uppercase lowercased", input: "My-Workflow",
			expected: "my-workflow",
		},
		{
			name: "spaces become hyphens", input: "my workflow",
			expected: "my-workflow",
		},
		{name: "colons stripped", input: "my:workflow", expected: "myworkflow"},
		{
			name: "leading hyphen trimmed", input: "-my-workflow",
			expected: "my-workflow",
		},
		{
			name: "trailing hyphen trimmed", input: "my-workflow-",
			expected: "my-workflow",
		},
		{
			name: "invalid chars stripped", input: "my@workflow!",
			expected: "myworkflow",
		},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t,
				api.WorkflowID(tt.expected),
				api.SanitizeID(api.WorkflowID(tt.input)),
			)
			assert.Equal(t,
				api.StepID(tt.expected),
				api.SanitizeID(api.StepID(tt.input)),
			)
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, api.ValidateID("loan-application"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, api.ValidateID(""), api.ErrWorkflowIDEmpty)
	})

	t.Run("too long", func(t *testing.T) {
		id := api.WorkflowID(strings.Repeat("a", api.MaxWorkflowIDLen+1))
		assert.ErrorIs(t, api.ValidateID(id), api.ErrWorkflowIDTooLong)
	})

	t.Run("invalid characters", func(t *testing.T) {
		assert.ErrorIs(t, api.ValidateID("Loan App"), api.ErrWorkflowIDInvalid)
	})
}
