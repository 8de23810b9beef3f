package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/studioflow/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Run a workflow",
	Long: `Applies the measures of a workflow document, translates and simulates the model and
post-processes the results. Use --measures-only to stop before the simulation or
--postprocess-only to rerun the reporting measures of an existing run directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowPath, _ := cmd.Flags().GetString("workflow")
		if !cmd.Flags().Changed("workflow") && len(args) > 0 {
			workflowPath = args[0]
		}
		if workflowPath == "" {
			return errors.New("a workflow document is required")
		}

		opts := cli.RunOptions{WorkflowPath: workflowPath, Config: cfg}
		opts.MeasuresOnly, _ = cmd.Flags().GetBool("measures-only")
		opts.PostProcessOnly, _ = cmd.Flags().GetBool("postprocess-only")
		opts.OutputsFile, _ = cmd.Flags().GetString("outputs")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		if cmd.Flags().Changed("debug") {
			opts.Config.Debug, _ = cmd.Flags().GetBool("debug")
		}
		if cmd.Flags().Changed("timeout") {
			opts.Config.Timeout, _ = cmd.Flags().GetDuration("timeout")
		}
		if cmd.Flags().Changed("energyplus") {
			opts.Config.EnergyPlusPath, _ = cmd.Flags().GetString("energyplus")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		_, err := cli.Run(ctx, os.Stdout, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("workflow", "w", "", "Workflow document (JSON or YAML)")
	runCmd.Flags().BoolP("measures-only", "m", false, "Stop after writing in.idf")
	runCmd.Flags().BoolP("postprocess-only", "p", false, "Only run reporting measures and post-processing")
	runCmd.Flags().Bool("debug", false, "Keep staged simulation files and log every step")
	runCmd.Flags().Duration("timeout", 0, "Simulation timeout (0 disables it)")
	runCmd.Flags().String("energyplus", "", "EnergyPlus installation directory")
	runCmd.Flags().String("outputs", "", "Analysis file listing objective function variables")
	runCmd.Flags().Bool("json", false, "Print the run record as JSON")
	runCmd.MarkFlagsMutuallyExclusive("measures-only", "postprocess-only")
}
