package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/condition"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Render a definition's conditions and rules as text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	wf, err := store.LoadFile(args[0])
	if err != nil {
		return err
	}
	labels := wf.Labels()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s (%s)\n", wf.Name, wf.ID)
	for _, sec := range wf.OrderedSections() {
		fmt.Fprintf(out, "\nsection %s: visible when %s\n",
			sec.ID, condition.Describe(sec.VisibleIf, labels))
		for _, step := range sec.OrderedSteps() {
			required := ""
			if step.Required {
				required = " (required)"
			}
			fmt.Fprintf(out, "  step %s%s: visible when %s\n",
				step.ID, required, condition.Describe(step.VisibleIf, labels))
		}
	}

	describeRules(out, wf, labels)
	return nil
}

// describeRules lists the flat rules in the order they are evaluated
func describeRules(out io.Writer, wf *api.Workflow, labels map[api.Key]string) {
	rules := make([]*api.LogicRule, 0, len(wf.Rules))
	for _, r := range wf.Rules {
		if r != nil {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return
	}
	slices.SortStableFunc(rules, func(a, b *api.LogicRule) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		default:
			return 0
		}
	})

	fmt.Fprintln(out, "\nrules:")
	for _, r := range rules {
		fmt.Fprintf(out, "  when %s: %s\n",
			condition.Describe(r.Condition(), labels), describeAction(r))
	}
}

func describeAction(r *api.LogicRule) string {
	switch r.Action {
	case api.ActionShow:
		return "show " + describeTarget(r)
	case api.ActionHide:
		return "hide " + describeTarget(r)
	case api.ActionRequire:
		return "require step " + string(r.TargetStepID)
	case api.ActionMakeOptional:
		return "make step " + string(r.TargetStepID) + " optional"
	case api.ActionSkipTo:
		return "skip to section " + string(r.TargetSectionID)
	default:
		return string(r.Action)
	}
}

func describeTarget(r *api.LogicRule) string {
	if id, ok := r.SectionTarget(); ok {
		return "section " + string(id)
	}
	if id, ok := r.StepTarget(); ok {
		return "step " + string(id)
	}
	return "nothing"
}
