package dsl

import (
	"fmt"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Builder manages the document construction. States keep the order in which
// they were first declared.
type Builder struct {
	name   string
	start  string
	order  []string
	states map[string]*StateBuilder
}

// New creates a new document builder.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		states: make(map[string]*StateBuilder),
	}
}

// State declares a state.
// If the state already exists, it returns the existing builder.
func (b *Builder) State(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{name: name, builder: b}
	b.states[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Build assembles the document and validates it. Each call returns a new
// document.
func (b *Builder) Build() (*domain.StateMachine, error) {
	sm := domain.New(b.name)
	sm.StartState = b.start
	for _, name := range b.order {
		sm.AddState(b.states[name].build())
	}
	if err := sm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document %q: %w", b.name, err)
	}
	return sm, nil
}

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	name        string
	processors  []domain.Callable
	transitions []*TransitionBuilder
	builder     *Builder
}

// Start marks the state as the document's start state.
func (s *StateBuilder) Start() *StateBuilder {
	s.builder.start = s.name
	return s
}

// Process appends processors to the state.
func (s *StateBuilder) Process(processors ...domain.Callable) *StateBuilder {
	s.processors = append(s.processors, processors...)
	return s
}

// Go adds a transition called name towards target.
func (s *StateBuilder) Go(name, target string) *TransitionBuilder {
	tb := &TransitionBuilder{
		transition: domain.Transition{Name: name, NextState: target},
		from:       s,
	}
	s.transitions = append(s.transitions, tb)
	return tb
}

// Terminal marks the state as the end of the workflow: it runs no processors
// and has no outgoing transitions.
func (s *StateBuilder) Terminal() *StateBuilder {
	s.processors = nil
	s.transitions = nil
	return s
}

func (s *StateBuilder) build() *domain.State {
	st := domain.NewState(s.name, s.processors...)
	for _, tb := range s.transitions {
		t := tb.transition
		st.Transitions = append(st.Transitions, domain.NewTransition(t.Name, t.NextState, t.Instruction, t.Predicates...))
	}
	return st
}

// TransitionBuilder provides a fluent API for configuring a transition.
type TransitionBuilder struct {
	transition domain.Transition
	from       *StateBuilder
}

// When appends predicates. The transition fires once all of them hold.
func (t *TransitionBuilder) When(predicates ...domain.Callable) *TransitionBuilder {
	t.transition.Predicates = append(t.transition.Predicates, predicates...)
	return t
}

// Say sets the audio instruction.
func (t *TransitionBuilder) Say(audio string) *TransitionBuilder {
	t.transition.Instruction.Audio = audio
	return t
}

// Image attaches an image to the instruction.
func (t *TransitionBuilder) Image(image []byte) *TransitionBuilder {
	t.transition.Instruction.Image = image
	return t
}

// Video attaches a video reference to the instruction.
func (t *TransitionBuilder) Video(ref string) *TransitionBuilder {
	t.transition.Instruction.SetVideoRef(ref)
	return t
}

// From returns the builder of the state owning the transition.
func (t *TransitionBuilder) From() *StateBuilder {
	return t.from
}
