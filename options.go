package openworkflow

import (
	"log/slog"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks. Repeated calls add to the hooks
// already registered.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithHistoryLimit bounds the number of undo snapshots (default 50).
// Zero disables undo.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		if n >= 0 {
			e.historyLimit = n
		}
	}
}

// WithProcessorRegistry replaces the processor zoo used to normalize state forms.
func WithProcessorRegistry(r *zoo.Registry) Option {
	return func(e *Editor) {
		e.processors = r
	}
}

// WithPredicateRegistry replaces the predicate zoo used to normalize transition forms.
func WithPredicateRegistry(r *zoo.Registry) Option {
	return func(e *Editor) {
		e.predicates = r
	}
}

// WithDocument starts the editor on a copy of sm instead of an empty document.
func WithDocument(sm *domain.StateMachine) Option {
	return func(e *Editor) {
		if sm != nil {
			e.doc = sm.Clone()
			e.status = StatusLoaded
		}
	}
}

// WithDefaultProcessors sets the processor template used by
// LoadInstructions. The callables are normalized against the processor zoo
// when the editor is created; an invalid template is replaced by the
// built-in one and logged.
func WithDefaultProcessors(processors ...domain.Callable) Option {
	return func(e *Editor) {
		e.defaults = processors
	}
}
