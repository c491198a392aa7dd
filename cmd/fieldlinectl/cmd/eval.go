package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/run"
)

var (
	evalData    string
	evalCurrent string
)

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Evaluate a definition against a set of answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVarP(&evalData, "data", "d", "{}",
		"answers as inline JSON, or @file to read them from a file")
	evalCmd.Flags().StringVar(&evalCurrent, "current", "",
		"current section ID when resolving the next section")
}

// evalResult is the full derived state for one set of answers, printed as
// one JSON document so output can be piped into other tools
type evalResult struct {
	View       *run.View               `json:"view"`
	Validation api.Validation          `json:"validation"`
	Next       api.NextSectionResponse `json:"next"`
}

func runEval(cmd *cobra.Command, args []string) error {
	wf, err := store.LoadFile(args[0])
	if err != nil {
		return err
	}
	data, err := loadAnswers(evalData)
	if err != nil {
		return err
	}

	view := run.Evaluate(wf, data)
	next, ok := view.NextAfter(api.SectionID(evalCurrent))

	res := evalResult{
		View:       view,
		Validation: view.Validate(data),
		Next: api.NextSectionResponse{
			NextSectionID: next,
			Complete:      !ok,
		},
	}
	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func loadAnswers(arg string) (api.DataMap, error) {
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		content, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		raw = content
	}
	data := api.DataMap{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing answers: %w", err)
	}
	return data, nil
}
