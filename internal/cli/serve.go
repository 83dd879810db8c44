package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/config"
	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/internal/metrics"
	httpAdapter "github.com/cmusatyalab/OpenWorkflow/pkg/adapters/http"
	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/mcp"
	"github.com/cmusatyalab/OpenWorkflow/pkg/session"
)

const shutdownTimeout = 5 * time.Second

// Stack is the document service shared by the server commands.
type Stack struct {
	Documents *session.Manager
	Zoo       *config.Zoo
	Metrics   *metrics.Metrics
	Close     func() error
}

// OpenStack opens the configured store and builds the session manager.
// Metrics are registered with reg when it is not nil.
func OpenStack(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Stack, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	overrides, err := config.LoadZooOverrides(cfg.ZooFile)
	if err != nil {
		return nil, err
	}
	z, err := overrides.Resolve()
	if err != nil {
		return nil, fmt.Errorf("zoo overrides: %w", err)
	}

	backend, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	editorOpts := append(z.EditorOptions(),
		openworkflow.WithLogger(logger),
		openworkflow.WithHistoryLimit(cfg.HistoryLimit),
	)
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New()
		if err := m.Register(reg); err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		editorOpts = append(editorOpts, openworkflow.WithHooks(m.Hooks()))
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithEditorOptions(editorOpts...),
	}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker), session.WithLockTTL(cfg.LockTTL))
	}
	logger.Info("document store opened", "store", cfg.Store)

	return &Stack{
		Documents: session.NewManager(backend.Store, opts...),
		Zoo:       z,
		Metrics:   m,
		Close:     backend.Close,
	}, nil
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	stack, err := OpenStack(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer stack.Close()

	handler := httpAdapter.NewHandler(stack.Documents,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithRegistries(stack.Zoo.Processors, stack.Zoo.Predicates),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", cfg.Addr, "store", cfg.Store)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			if closeErr := srv.Close(); closeErr != nil {
				logger.Error("failed to kill server", "err", closeErr)
			}
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	}
}

// Transports of ServeMCP.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the MCP server on stdio or SSE until ctx is done.
func ServeMCP(ctx context.Context, cfg config.Config, logger *slog.Logger, transport string) error {
	stack, err := OpenStack(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcp.NewServer(stack.Documents,
		mcp.WithLogger(logger),
		mcp.WithRegistries(stack.Zoo.Processors, stack.Zoo.Predicates),
	)
	switch transport {
	case TransportStdio:
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		return srv.ServeSSE(ctx, cfg.Addr)
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", transport, TransportStdio, TransportSSE)
	}
}
