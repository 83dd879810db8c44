// Package cli implements the pbfsm commands on top of the editor.
package cli

import (
	"io"
	"log/slog"
	"os"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/compiler"
	"github.com/cmusatyalab/OpenWorkflow/internal/config"
	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
)

// Options carries what every command needs.
type Options struct {
	Out    io.Writer
	Logger *slog.Logger
	// Zoo holds the registries; nil means the built-in ones.
	Zoo *config.Zoo
	// Debug logs every editor event.
	Debug bool
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return o.Logger
}

func (o Options) zoo() *config.Zoo {
	if o.Zoo == nil {
		z, _ := (&config.ZooOverrides{}).Resolve()
		return z
	}
	return o.Zoo
}

// editorOptions wires the logger, the zoo and, in debug mode, the event log.
func (o Options) editorOptions() []openworkflow.Option {
	opts := append([]openworkflow.Option{openworkflow.WithLogger(o.logger())}, o.zoo().EditorOptions()...)
	if o.Debug {
		opts = append(opts, openworkflow.WithHooks(createDebugHooks(o.logger())))
	}
	return opts
}

// newEditor creates an editor with the command options.
func (o Options) newEditor(extra ...openworkflow.Option) *openworkflow.Editor {
	return openworkflow.New(append(o.editorOptions(), extra...)...)
}

func (o Options) parser() *compiler.Parser {
	return compiler.NewParser()
}
