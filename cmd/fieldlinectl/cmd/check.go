package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldline/engine/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate workflow definition files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		wf, err := store.LoadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
		steps := 0
		for _, sec := range wf.Sections {
			if sec == nil {
				continue
			}
			steps += len(sec.Steps)
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: ok (%s: %d sections, %d steps, %d rules)\n",
			path, wf.ID, len(wf.Sections), steps, len(wf.Rules))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d definitions failed validation",
			failed, len(args))
	}
	return nil
}
