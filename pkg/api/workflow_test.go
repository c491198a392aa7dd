package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/pkg/api"
)

func sampleWorkflow() *api.Workflow {
	return &api.Workflow{
		ID:   "loan-application",
		Name: "Loan Application",
		Sections: []*api.Section{
			{
				ID:    "review",
				Title: "Review",
				Order: 3,
				Steps: []*api.Step{
					{ID: "confirm", Label: "Confirm", Type: api.StepTypeBoolean,
						Order: 1, Required: true},
				},
			},
			{
				ID:    "intro",
				Title: "Introduction",
				Order: 1,
				Steps: []*api.Step{
					{ID: "full-name", Label: "Full Name", Alias: "name",
						Type: api.StepTypeText, Order: 1, Required: true},
					{ID: "email", Label: "Email", Type: api.StepTypeText,
						Order: 2},
				},
			},
			{
				ID:    "income",
				Title: "Income",
				Order: 2,
				Steps: []*api.Step{
					{ID: "salary", Label: "Salary", Alias: "income",
						Type: api.StepTypeNumber, Order: 1},
				},
			},
		},
	}
}

func TestWorkflowValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, sampleWorkflow().Validate())
	})

	t.Run("empty id", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.ID = ""
		assert.ErrorIs(t, wf.Validate(), api.ErrWorkflowIDEmpty)
	})

	t.Run("empty name", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Name = ""
		assert.ErrorIs(t, wf.Validate(), api.ErrWorkflowNameEmpty)
	})

	t.Run("duplicate section", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Sections = append(wf.Sections, &api.Section{ID: "intro"})
		assert.ErrorIs(t, wf.Validate(), api.ErrDuplicateSectionID)
	})

	t.Run("duplicate step", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Sections[0].Steps = append(wf.Sections[0].Steps,
			&api.Step{ID: "full-name"})
		assert.ErrorIs(t, wf.Validate(), api.ErrDuplicateStepID)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Sections[0].Steps = append(wf.Sections[0].Steps,
			&api.Step{ID: "other", Alias: "name"})
		assert.ErrorIs(t, wf.Validate(), api.ErrDuplicateAlias)
	})

	t.Run("invalid step type", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Sections[0].Steps[0].Type = "signature"
		assert.ErrorIs(t, wf.Validate(), api.ErrInvalidStepType)
	})

	t.Run("invalid rule", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Rules = []*api.LogicRule{{
			ID:              "r1",
			TargetType:      "page",
			ConditionStepID: "email",
			Action:          api.ActionShow,
		}}
		assert.ErrorIs(t, wf.Validate(), api.ErrInvalidTargetType)
	})

	t.Run("invalid visibility condition", func(t *testing.T) {
		wf := sampleWorkflow()
		wf.Sections[0].VisibleIf = &api.ConditionExpression{
			Variable: "email",
			Operator: "resembles",
		}
		assert.ErrorIs(t, wf.Validate(), api.ErrUnknownOperator)
	})
}

func TestStepDefaultValue(t *testing.T) {
	tests := []struct {
		name     string
		stepType api.StepType
		value    string
		valid    bool
	}{
		{name: "text string", stepType: api.StepTypeText,
			value: `"hello"`, valid: true},
		{name: "text number", stepType: api.StepTypeText,
			value: `42`, valid: false},
		{name: "number", stepType: api.StepTypeNumber,
			value: `42`, valid: true},
		{name: "number string", stepType: api.StepTypeNumber,
			value: `"42"`, valid: false},
		{name: "boolean", stepType: api.StepTypeBoolean,
			value: `true`, valid: true},
		{name: "multi select array", stepType: api.StepTypeMultiSelect,
			value: `["a","b"]`, valid: true},
		{name: "multi select scalar", stepType: api.StepTypeMultiSelect,
			value: `"a"`, valid: false},
		{name: "object", stepType: api.StepTypeObject,
			value: `{"k":"v"}`, valid: true},
		{name: "invalid json", stepType: api.StepTypeText,
			value: `{nope`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := &api.Step{
				ID:           "step-1",
				Type:         tt.stepType,
				DefaultValue: tt.value,
			}
			err := step.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, api.ErrInvalidDefaultValue)
			}
		})
	}
}

func TestOrderedSections(t *testing.T) {
	wf := sampleWorkflow()

	ordered := wf.OrderedSections()

	require.Len(t, ordered, 3)
	assert.Equal(t, api.SectionID("intro"), ordered[0].ID)
	assert.Equal(t, api.SectionID("income"), ordered[1].ID)
	assert.Equal(t, api.SectionID("review"), ordered[2].ID)

	// receiver slice is untouched
	assert.Equal(t, api.SectionID("review"), wf.Sections[0].ID)
}

func TestBaselineRequired(t *testing.T) {
	wf := sampleWorkflow()

	required := wf.BaselineRequired()

	assert.Equal(t, []api.StepID{"full-name", "confirm"}, required)
}

func TestWorkflowLookups(t *testing.T) {
	wf := sampleWorkflow()

	sec, ok := wf.Section("income")
	require.True(t, ok)
	assert.Equal(t, "Income", sec.Title)

	_, ok = wf.Section("missing")
	assert.False(t, ok)

	step, ok := wf.Step("salary")
	require.True(t, ok)
	assert.Equal(t, "Salary", step.Label)

	_, ok = wf.Step("missing")
	assert.False(t, ok)
}

func TestWorkflowResolver(t *testing.T) {
	wf := sampleWorkflow()
	resolver := wf.Resolver()

	id, ok := resolver.ResolveAlias("name")
	assert.True(t, ok)
	assert.Equal(t, api.Key("full-name"), id)

	_, ok = resolver.ResolveAlias("unknown")
	assert.False(t, ok)

	assert.Equal(t, api.Key("full-name"), api.Resolve(resolver, "name"))
	assert.Equal(t, api.Key("email"), api.Resolve(resolver, "email"))
	assert.Equal(t, api.Key("email"), api.Resolve(nil, "email"))
}

func TestWorkflowLabels(t *testing.T) {
	wf := sampleWorkflow()

	labels := wf.Labels()

	assert.Equal(t, "Full Name", labels["full-name"])
	assert.Equal(t, "Full Name", labels["name"])
	assert.Equal(t, "Salary", labels["income"])
}

func TestWorkflowDigest(t *testing.T) {
	wf := sampleWorkflow()
	wf.Rules = []*api.LogicRule{{
		ID:              "r1",
		TargetType:      api.TargetStep,
		TargetStepID:    "email",
		ConditionStepID: "full-name",
		Operator:        api.OpIsNotEmpty,
		Action:          api.ActionShow,
	}}

	digest := wf.Digest()

	assert.Equal(t, api.WorkflowID("loan-application"), digest.ID)
	assert.Equal(t, 3, digest.Sections)
	assert.Equal(t, 1, digest.Rules)
}
