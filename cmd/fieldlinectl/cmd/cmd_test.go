package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/internal/assert/helpers"
	"github.com/fieldline/engine/pkg/api"
)

func newCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd, out, errOut
}

func writeDefinition(t *testing.T, wf *api.Workflow) string {
	t.Helper()
	data, err := json.Marshal(wf)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), string(wf.ID)+".json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckCommand(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, out, errOut := newCommand()

	require.NoError(t, runCheck(cmd, []string{path}))
	assert.Contains(t, out.String(), "ok")
	assert.Contains(t, out.String(), "3 sections, 4 steps, 0 rules")
	assert.Empty(t, errOut.String())
}

func TestCheckCommandInvalidFile(t *testing.T) {
	path := writeFile(t, "broken.json", `{"id": "broken", "sections": []}`)
	cmd, out, errOut := newCommand()

	err := runCheck(cmd, []string{path})
	assert.ErrorContains(t, err, "1 of 1 definitions failed validation")
	assert.Contains(t, errOut.String(), "workflow name empty")
	assert.Empty(t, out.String())
}

func TestCheckCommandMixedFiles(t *testing.T) {
	good := writeDefinition(t, helpers.NewTestWorkflow())
	bad := writeFile(t, "bad.yaml", "id: bad\nsections: []\n")
	cmd, out, errOut := newCommand()

	err := runCheck(cmd, []string{good, bad})
	assert.ErrorContains(t, err, "1 of 2 definitions failed validation")
	assert.Contains(t, out.String(), "ok")
	assert.Contains(t, errOut.String(), bad)
}

func TestDescribeCommand(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, out, _ := newCommand()

	require.NoError(t, runDescribe(cmd, []string{path}))
	rendered := out.String()
	assert.Contains(t, rendered, "Test Intake (")
	assert.Contains(t, rendered, "section contact: visible when Always")
	assert.Contains(t, rendered,
		"step full-name (required): visible when Always")
	assert.Contains(t, rendered,
		"section preferences: visible when Newsletter is true")
	assert.NotContains(t, rendered, "rules:")
}

func TestDescribeCommandRules(t *testing.T) {
	wf := helpers.NewBranchingWorkflow()
	// Authoring order reversed on purpose; output must follow rule order
	wf.Rules[0], wf.Rules[1] = wf.Rules[1], wf.Rules[0]
	path := writeDefinition(t, wf)
	cmd, out, _ := newCommand()

	require.NoError(t, runDescribe(cmd, []string{path}))
	rendered := out.String()
	assert.Contains(t, rendered,
		"when Rating is less than 3: require step comments")
	assert.Contains(t, rendered,
		"when Rating is at least 4: skip to section review")
	assert.Less(t,
		strings.Index(rendered, "is less than"),
		strings.Index(rendered, "is at least"),
	)
}

func TestDescribeAction(t *testing.T) {
	tests := []struct {
		name     string
		rule     *api.LogicRule
		expected string
	}{
		{
			name: "show section",
			rule: &api.LogicRule{
				Action:          api.ActionShow,
				TargetType:      api.TargetSection,
				TargetSectionID: "extras",
			},
			expected: "show section extras",
		},
		{
			name: "hide step",
			rule: &api.LogicRule{
				Action:       api.ActionHide,
				TargetType:   api.TargetStep,
				TargetStepID: "phone",
			},
			expected: "hide step phone",
		},
		{
			name: "make optional",
			rule: &api.LogicRule{
				Action:       api.ActionMakeOptional,
				TargetType:   api.TargetStep,
				TargetStepID: "phone",
			},
			expected: "make step phone optional",
		},
		{
			name:     "show without target",
			rule:     &api.LogicRule{Action: api.ActionShow},
			expected: "show nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeAction(tt.rule))
		})
	}
}

func TestEvalCommand(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, out, _ := newCommand()
	evalData = `{"newsletter": true}`
	evalCurrent = ""

	require.NoError(t, runEval(cmd, []string{path}))

	var res evalResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.View.VisibleSections.Contains("preferences"))
	assert.False(t, res.Validation.Valid)
	assert.Equal(t,
		[]api.StepID{"full-name", "frequency", "confirm"},
		res.Validation.MissingSteps,
	)
	assert.Equal(t, api.SectionID("contact"), res.Next.NextSectionID)
	assert.False(t, res.Next.Complete)
}

func TestEvalCommandAnswersFromFile(t *testing.T) {
	path := writeDefinition(t, helpers.NewBranchingWorkflow())
	answers := writeFile(t, "answers.json", `{"rating": 5}`)
	cmd, out, _ := newCommand()
	evalData = "@" + answers
	evalCurrent = "survey"

	require.NoError(t, runEval(cmd, []string{path}))

	var res evalResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, api.SectionID("review"), res.Next.NextSectionID)
	assert.False(t, res.Next.Complete)
	assert.Equal(t, []api.StepID{"confirm"}, res.Validation.MissingSteps)
}

func TestEvalCommandComplete(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, out, _ := newCommand()
	evalData = "{}"
	evalCurrent = "review"

	require.NoError(t, runEval(cmd, []string{path}))

	var res evalResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Next.Complete)
	assert.Empty(t, res.Next.NextSectionID)
}

func TestEvalCommandBadAnswers(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, _, _ := newCommand()
	evalData = "not-json"
	evalCurrent = ""

	err := runEval(cmd, []string{path})
	assert.ErrorContains(t, err, "parsing answers")
}

func TestEvalCommandMissingAnswersFile(t *testing.T) {
	path := writeDefinition(t, helpers.NewTestWorkflow())
	cmd, _, _ := newCommand()
	evalData = "@" + filepath.Join(t.TempDir(), "absent.json")
	evalCurrent = ""

	assert.Error(t, runEval(cmd, []string{path}))
}
