package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmusatyalab/OpenWorkflow/internal/cli"
	"github.com/cmusatyalab/OpenWorkflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "pbfsm",
	Short:         "pbfsm inspects and builds OpenWorkflow state machine documents",
	Long:          `pbfsm reads .pbfsm documents (and their YAML form), validates and draws them, builds linear workflows from instruction lists and serves a document editing API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrDocumentsDiffer) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log to stderr at this level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("zoo", "", "YAML file overriding the callable zoo defaults")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every editor event")
}

// commandOptions builds the cli options from the persistent flags.
func commandOptions(cmd *cobra.Command) (cli.Options, error) {
	level, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetBool("debug")
	if debug && level == "" {
		level = "debug"
	}
	format, _ := cmd.Flags().GetString("log-format")
	logger, err := cli.NewLogger(level, format)
	if err != nil {
		return cli.Options{}, err
	}

	zooFile, _ := cmd.Flags().GetString("zoo")
	overrides, err := config.LoadZooOverrides(zooFile)
	if err != nil {
		return cli.Options{}, err
	}
	z, err := overrides.Resolve()
	if err != nil {
		return cli.Options{}, err
	}

	return cli.Options{
		Out:    cmd.OutOrStdout(),
		Logger: logger,
		Zoo:    z,
		Debug:  debug,
	}, nil
}
