package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger configures the application logger on stderr. An empty level
// silences it; format is text or json.
func NewLogger(level, format string) (*slog.Logger, error) {
	if level == "" {
		return logging.NewNop(), nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, l, f), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[openworkflow] "+format+"\n", args...)
}

// createDebugHooks logs every editor event at debug level.
func createDebugHooks(logger *slog.Logger) domain.Hooks {
	log := func(e *domain.EditEvent) {
		attrs := []any{"type", e.Type, "document", e.Document}
		if e.Element != "" {
			attrs = append(attrs, "element", e.Element)
		}
		if e.Bytes > 0 {
			attrs = append(attrs, "bytes", e.Bytes)
		}
		if e.Err != nil {
			logger.Debug("edit failed", append(attrs, "err", e.Err)...)
			return
		}
		logger.Debug("edit", attrs...)
	}
	return domain.Hooks{OnEdit: log, OnImport: log, OnExport: log}
}
