package main

import (
	"fmt"

	"github.com/spf13/cobra"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pbfsm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pbfsm version %s\n", openworkflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
