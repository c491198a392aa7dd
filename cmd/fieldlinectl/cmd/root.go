package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fieldline/engine"
)

var rootCmd = &cobra.Command{
	Use:     "fieldlinectl",
	Short:   "Workflow definition tooling for the Fieldline engine",
	Long:    `fieldlinectl checks, describes and evaluates workflow definition files without a running server.`,
	Version: engine.Version,
}

func Execute() error {
	return rootCmd.Execute()
}
