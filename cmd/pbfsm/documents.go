package main

import (
	"github.com/spf13/cobra"

	"github.com/cmusatyalab/OpenWorkflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check documents for consistency",
	Long:  `Walks every document from its start state and reports dangling transitions, duplicate names, unreachable states and callables unknown to the zoo.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		return cli.Validate(cmd.Context(), opts, args)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Export the state machine diagram",
	Long:  `Outputs a Mermaid (graph TD) or Graphviz diagram of the document.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		selected, _ := cmd.Flags().GetString("selected")
		return cli.Graph(cmd.Context(), opts, args[0], format, selected)
	},
}

var tableCmd = &cobra.Command{
	Use:   "table FILE",
	Short: "Print the processors of every state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetBool("markdown")
		plain, _ := cmd.Flags().GetBool("plain")
		width, _ := cmd.Flags().GetInt("width")
		return cli.Table(cmd.Context(), opts, args[0], raw, plain, width)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print a document as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		return cli.Dump(cmd.Context(), opts, args[0])
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile FILE",
	Short: "Convert a YAML document to .pbfsm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return cli.Compile(cmd.Context(), opts, args[0], output)
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Show the structural changes between two documents",
	Long:  `Lists added, removed and changed states and transitions. Exits with status 1 when the documents differ.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(cmd)
		if err != nil {
			return err
		}
		return cli.Diff(cmd.Context(), opts, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd, graphCmd, tableCmd, dumpCmd, compileCmd, diffCmd)

	graphCmd.Flags().String("format", "mermaid", "Diagram format: mermaid or dot")
	graphCmd.Flags().String("selected", "", "State or transition to highlight")

	tableCmd.Flags().Bool("markdown", false, "Print the Markdown source instead of rendering it")
	tableCmd.Flags().Bool("plain", false, "Render without colors")
	tableCmd.Flags().Int("width", 0, "Word wrap width (0 keeps the default)")

	compileCmd.Flags().StringP("output", "o", "", "Output file (default: input with .pbfsm extension)")
}
