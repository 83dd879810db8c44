package openworkflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/dsl"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// Status is the lifecycle position of the edited document.
type Status int

const (
	StatusEmpty    Status = iota // nothing loaded, or discarded
	StatusLoaded                 // freshly imported or built
	StatusModified               // edited since it was loaded or exported
	StatusExported               // encoded with no edit since
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoaded:
		return "loaded"
	case StatusModified:
		return "modified"
	case StatusExported:
		return "exported"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

const defaultHistoryLimit = 50

// Editor is the handle on one workflow document. It is not safe for
// concurrent use; see package session for shared access.
type Editor struct {
	doc      *domain.StateMachine
	status   Status
	selected string
	defaults []domain.Callable

	undo         []*domain.StateMachine
	redo         []*domain.StateMachine
	historyLimit int

	processors *zoo.Registry
	predicates *zoo.Registry
	hooks      domain.Hooks
	logger     *slog.Logger
}

// New creates an editor holding an empty document.
func New(opts ...Option) *Editor {
	e := &Editor{
		doc:          domain.New(domain.DefaultDocumentName),
		historyLimit: defaultHistoryLimit,
		processors:   zoo.Processors,
		predicates:   zoo.Predicates,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.defaults != nil {
		if err := e.SetDefaultProcessors(e.defaults...); err != nil {
			e.logger.Warn("default processors ignored", "err", err)
			e.defaults = nil
		}
	}
	if e.defaults == nil {
		e.defaults = []domain.Callable{dsl.DefaultProcessor()}
	}
	return e
}

// Status returns the lifecycle position of the document.
func (e *Editor) Status() Status { return e.status }

// Document returns a copy of the current document. Changes to the copy do
// not affect the editor.
func (e *Editor) Document() *domain.StateMachine {
	return e.doc.Clone()
}

// Name returns the document name.
func (e *Editor) Name() string { return e.doc.Name }

// Import replaces the document with the decoded data. Malformed data fails
// with domain.ErrInvalidFormat and duplicated names with
// domain.ErrDuplicateName; in both cases the current document is kept.
func (e *Editor) Import(data []byte) error {
	ev := e.event(domain.EventImport, "")
	ev.Bytes = len(data)

	sm, err := codec.Unmarshal(data)
	if err == nil && !sm.ValidateNames() {
		err = fmt.Errorf("%w: %s", domain.ErrDuplicateName, strings.Join(sm.DuplicateNames(), ", "))
	}
	if err != nil {
		ev.Err = err
		e.emit(e.hooks.OnImport, ev)
		return err
	}

	if sm.Name == "" {
		sm.Name = domain.DefaultDocumentName
	}
	e.replace(sm)
	ev.Document = sm.Name
	e.emit(e.hooks.OnImport, ev)
	return nil
}

// Export normalizes every callable against the zoo, encodes the document and
// returns it with the suggested file name. Callables of unknown kinds are
// exported unchanged.
//
// As with codec.Marshal, a document without start state gets its first state
// as start state; this change is kept in the editor.
func (e *Editor) Export() ([]byte, string, error) {
	ev := e.event(domain.EventExport, "")

	next := e.doc.Clone()
	for _, s := range next.States {
		s.Processors = e.normalizeLenient(e.processors, s.Name, s.Processors)
		for _, t := range s.Transitions {
			t.Predicates = e.normalizeLenient(e.predicates, t.Name, t.Predicates)
		}
	}

	data, err := codec.Marshal(next)
	if err != nil {
		ev.Err = err
		e.emit(e.hooks.OnExport, ev)
		return nil, "", err
	}

	e.doc = next
	e.status = StatusExported
	ev.Bytes = len(data)
	e.emit(e.hooks.OnExport, ev)
	return data, codec.DefaultFilename, nil
}

func (e *Editor) normalizeLenient(r *zoo.Registry, owner string, in []domain.Callable) []domain.Callable {
	for i, c := range in {
		n, err := r.Normalize(c)
		if err != nil {
			e.logger.Warn("callable left as is", "element", owner, "callable", c.Name, "err", err)
			continue
		}
		in[i] = n
	}
	return in
}

// Reset discards the document and its history.
func (e *Editor) Reset() {
	e.replace(domain.New(domain.DefaultDocumentName))
	e.status = StatusEmpty
	e.emit(e.hooks.OnEdit, e.event(domain.EventReset, ""))
}

// LoadInstructions replaces the document with the linear workflow built from
// lines (see dsl.FromInstructionList), using the editor's default processors.
func (e *Editor) LoadInstructions(lines []string) error {
	ev := e.event(domain.EventBuild, "")
	sm, err := dsl.FromInstructionList(lines,
		dsl.WithName(e.doc.Name),
		dsl.WithDefaultProcessors(e.defaults...),
	)
	if err != nil {
		ev.Err = err
		e.emit(e.hooks.OnEdit, ev)
		return err
	}
	e.replace(sm)
	e.emit(e.hooks.OnEdit, ev)
	return nil
}

// SetDefaultProcessors sets the processor template used by LoadInstructions.
func (e *Editor) SetDefaultProcessors(processors ...domain.Callable) error {
	normalized, err := e.processors.NormalizeAll(processors)
	if err != nil {
		return err
	}
	e.defaults = normalized
	return nil
}

// DefaultProcessors returns the processor template used by LoadInstructions.
func (e *Editor) DefaultProcessors() []domain.Callable {
	out := make([]domain.Callable, len(e.defaults))
	for i, c := range e.defaults {
		c.Args = maps.Clone(c.Args)
		out[i] = c
	}
	return out
}

// SetName renames the document itself.
func (e *Editor) SetName(name string) error {
	return e.apply(domain.EventDocumentRenamed, name, func(sm *domain.StateMachine) error {
		if name == "" {
			return domain.ErrEmptyName
		}
		sm.Name = name
		return nil
	})
}

// Select resolves name to the state or transition it designates and
// remembers it as the current selection. The returned element is a copy.
func (e *Editor) Select(name string) (domain.Element, error) {
	el, err := e.Document().Lookup(name)
	if err != nil {
		return nil, err
	}
	e.selected = name
	return el, nil
}

// Selected returns the name of the selected element, if it still exists.
func (e *Editor) Selected() string {
	if _, err := e.doc.Lookup(e.selected); err != nil {
		return ""
	}
	return e.selected
}

func (e *Editor) replace(sm *domain.StateMachine) {
	e.doc = sm
	e.status = StatusLoaded
	e.selected = ""
	e.undo = nil
	e.redo = nil
}

// apply runs fn on a copy of the document and keeps the copy only if fn
// succeeds.
func (e *Editor) apply(typ domain.EventType, element string, fn func(*domain.StateMachine) error) error {
	ev := e.event(typ, element)
	next := e.doc.Clone()
	if err := fn(next); err != nil {
		ev.Err = err
		e.emit(e.hooks.OnEdit, ev)
		return err
	}
	e.pushUndo(e.doc)
	e.redo = nil
	e.doc = next
	e.status = StatusModified
	e.emit(e.hooks.OnEdit, ev)
	return nil
}

func (e *Editor) event(typ domain.EventType, element string) *domain.EditEvent {
	return &domain.EditEvent{
		Timestamp: time.Now(),
		Type:      typ,
		Document:  e.doc.Name,
		Element:   element,
	}
}

func (e *Editor) emit(hook func(*domain.EditEvent), ev *domain.EditEvent) {
	if ev.Err != nil {
		level := slog.LevelWarn
		if errors.Is(ev.Err, domain.ErrInvalidFormat) {
			level = slog.LevelError
		}
		e.logger.Log(context.Background(), level, "edit rejected", "type", ev.Type, "document", ev.Document, "element", ev.Element, "err", ev.Err)
	} else {
		e.logger.Debug("edit applied", "type", ev.Type, "document", ev.Document, "element", ev.Element)
	}
	if hook != nil {
		hook(ev)
	}
}
