package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmusatyalab/OpenWorkflow/internal/cli"
)

var buildCmd = &cobra.Command{
	Use:   "build [INSTRUCTIONS]",
	Short: "Build a linear workflow from an instruction list",
	Long: `Reads one instruction per line (from the file argument or stdin) and writes a
workflow with one state per step. Blank lines are ignored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}

		var input io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			input = f
		}

		name, _ := cmd.Flags().GetString("name")
		output, _ := cmd.Flags().GetString("output")
		return cli.Build(cmd.Context(), opts, cli.BuildOptions{
			Name:   name,
			Input:  input,
			Output: output,
		})
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("name", "", "Document name")
	buildCmd.Flags().StringP("output", "o", "", "Output file, .pbfsm or .yaml (default: app.pbfsm)")
}
