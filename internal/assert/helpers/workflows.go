package helpers

import (
	"github.com/google/uuid"

	"github.com/fieldline/engine/internal/config"
	"github.com/fieldline/engine/pkg/api"
)

// NewTestConfig creates a default configuration with debug logging enabled
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	return cfg
}

// NewTestWorkflow creates a three-section intake form whose preferences
// section is shown only when the newsletter answer is true. Each call mints
// a fresh workflow ID
func NewTestWorkflow() *api.Workflow {
	return &api.Workflow{
		ID:   api.WorkflowID("test-workflow-" + uuid.New().String()[:8]),
		Name: "Test Intake",
		Sections: []*api.Section{
			{
				ID:    "contact",
				Title: "Contact",
				Order: 1,
				Steps: []*api.Step{
					{
						ID:       "full-name",
						Label:    "Full Name",
						Alias:    "name",
						Type:     api.StepTypeText,
						Order:    1,
						Required: true,
					},
					{
						ID:    "newsletter",
						Label: "Newsletter",
						Alias: "newsletter",
						Type:  api.StepTypeBoolean,
						Order: 2,
					},
				},
			},
			{
				ID:    "preferences",
				Title: "Preferences",
				Order: 2,
				VisibleIf: &api.ConditionExpression{
					Variable: "newsletter",
					Operator: api.OpEquals,
					Value:    true,
				},
				Steps: []*api.Step{
					{
						ID:       "frequency",
						Label:    "Frequency",
						Type:     api.StepTypeSelect,
						Order:    1,
						Required: true,
					},
				},
			},
			{
				ID:    "review",
				Title: "Review",
				Order: 3,
				Steps: []*api.Step{
					{
						ID:       "confirm",
						Label:    "Confirm",
						Type:     api.StepTypeBoolean,
						Order:    1,
						Required: true,
					},
				},
			},
		},
	}
}

// NewBranchingWorkflow creates a workflow that exercises the flat rule set:
// a rule that requires the comments step for unhappy respondents and a rule
// that skips straight to the review section for happy ones
func NewBranchingWorkflow() *api.Workflow {
	return &api.Workflow{
		ID:   api.WorkflowID("test-branching-" + uuid.New().String()[:8]),
		Name: "Test Branching",
		Sections: []*api.Section{
			{
				ID:    "survey",
				Title: "Survey",
				Order: 1,
				Steps: []*api.Step{
					{
						ID:       "rating",
						Label:    "Rating",
						Alias:    "rating",
						Type:     api.StepTypeNumber,
						Order:    1,
						Required: true,
					},
				},
			},
			{
				ID:    "follow-up",
				Title: "Follow Up",
				Order: 2,
				Steps: []*api.Step{
					{
						ID:    "comments",
						Label: "Comments",
						Type:  api.StepTypeTextarea,
						Order: 1,
					},
				},
			},
			{
				ID:    "review",
				Title: "Review",
				Order: 3,
				Steps: []*api.Step{
					{
						ID:       "confirm",
						Label:    "Confirm",
						Type:     api.StepTypeBoolean,
						Order:    1,
						Required: true,
					},
				},
			},
		},
		Rules: []*api.LogicRule{
			{
				ID:              "require-comments",
				Order:           1,
				Action:          api.ActionRequire,
				TargetType:      api.TargetStep,
				TargetStepID:    "comments",
				ConditionStepID: "rating",
				Operator:        api.OpLessThan,
				ConditionValue:  3,
			},
			{
				ID:              "skip-follow-up",
				Order:           2,
				Action:          api.ActionSkipTo,
				TargetType:      api.TargetSection,
				TargetSectionID: "review",
				ConditionStepID: "rating",
				Operator:        api.OpGreaterOrEqual,
				ConditionValue:  4,
			},
		},
	}
}

// NewSimpleWorkflow creates a minimal single-section workflow with the
// specified ID
func NewSimpleWorkflow(id api.WorkflowID) *api.Workflow {
	return &api.Workflow{
		ID:   id,
		Name: "Test Workflow",
		Sections: []*api.Section{
			{
				ID:    "main",
				Title: "Main",
				Order: 1,
				Steps: []*api.Step{
					{
						ID:    "answer",
						Label: "Answer",
						Type:  api.StepTypeText,
						Order: 1,
					},
				},
			},
		},
	}
}
