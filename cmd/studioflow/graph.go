package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/studioflow/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <workflow>",
	Short: "Export the workflow plan as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the measure phases of a workflow.
With --run the steps of a stored run are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		logger, err := cli.NewLogger(cfg.LogLevel, false)
		if err != nil {
			return err
		}
		return cli.Graph(cmd.Context(), os.Stdout, args[0], runID, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Overlay the state of a stored run")
}
