package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/studioflow"
	"github.com/aretw0/studioflow/internal/cli"
	"github.com/aretw0/studioflow/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves stored run records, accepts new runs and streams their step events as
server-sent events. Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		logger, err := cli.NewLogger(cfg.LogLevel, cfg.Debug)
		if err != nil {
			return err
		}

		tui.PrintBanner(os.Stdout, studioflow.Version)
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Serve(ctx, os.Stdout, addr, cfg, logger, studioflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
