package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/studioflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow>",
	Short: "Check a workflow without running it",
	Long: `Resolves the seed model, the weather file and every measure of a workflow document
and reports all problems found: missing measures, out-of-phase steps and unknown arguments.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := cli.NewLogger(cfg.LogLevel, false)
		if err != nil {
			return err
		}
		return cli.Validate(os.Stdout, args[0], logger)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
