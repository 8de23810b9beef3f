package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studioflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of studioflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studioflow version %s\n", strings.TrimSpace(studioflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
