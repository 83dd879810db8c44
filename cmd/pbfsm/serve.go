package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cmusatyalab/OpenWorkflow/internal/cli"
	"github.com/cmusatyalab/OpenWorkflow/internal/config"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document HTTP server",
	Long: `Serves the document editing API over HTTP. Settings come from the
OPENWORKFLOW_* environment variables; flags override them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serverConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		tui.PrintBanner(cmd.ErrOrStderr())
		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.Serve(ctx, cfg, logger); err != nil {
			return err
		}
		logger.Info("server stopped", "signal", ctx.Signal())
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the stored documents as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP on --addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serverConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.ServeMCP(ctx, cfg, logger, transport)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)

	for _, c := range []*cobra.Command{serveCmd, mcpCmd} {
		c.Flags().String("addr", "", "Listen address (OPENWORKFLOW_ADDR)")
		c.Flags().String("store", "", "Document store: memory, file or redis (OPENWORKFLOW_STORE)")
		c.Flags().String("data-dir", "", "Directory of the file store (OPENWORKFLOW_DATA_DIR)")
		c.Flags().String("redis-addr", "", "Redis address (OPENWORKFLOW_REDIS_ADDR)")
	}
	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
}

// serverConfig loads the environment and applies the flags set on cmd.
func serverConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	flags := map[string]*string{
		"addr":       &cfg.Addr,
		"store":      &cfg.Store,
		"data-dir":   &cfg.DataDir,
		"redis-addr": &cfg.RedisAddr,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
		"zoo":        &cfg.ZooFile,
	}
	for name, field := range flags {
		if cmd.Flags().Changed(name) {
			*field, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, cfg.Validate()
}
