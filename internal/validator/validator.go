package validator

import (
	"errors"
	"fmt"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// Report describes how a document would be traversed at runtime.
type Report struct {
	// Start is the state the runtime begins in. When the document names no
	// start state this is the first state and ImplicitStart is set.
	Start         string `json:"start,omitempty"`
	ImplicitStart bool   `json:"implicit_start,omitempty"`

	// Reachable lists states in breadth-first order from Start.
	Reachable []string `json:"reachable"`
	// Unreachable lists the remaining states in document order.
	Unreachable []string `json:"unreachable,omitempty"`
	// Terminal lists reachable states without outgoing transitions.
	Terminal []string `json:"terminal,omitempty"`

	// Violations break the document structure; such a document cannot be
	// imported or executed.
	Violations []string `json:"violations,omitempty"`
	// Warnings are callables the zoo does not know or whose arguments do
	// not match the schema of their kind.
	Warnings []string `json:"warnings,omitempty"`

	err error
}

// Valid reports whether the document has no violations.
func (r *Report) Valid() bool { return r.err == nil }

// Err returns the structural violations joined, or nil.
func (r *Report) Err() error { return r.err }

// Option configures Analyze.
type Option func(*config)

type config struct {
	processors *zoo.Registry
	predicates *zoo.Registry
}

// WithRegistries checks callables against custom zoos.
func WithRegistries(processors, predicates *zoo.Registry) Option {
	return func(c *config) {
		c.processors = processors
		c.predicates = predicates
	}
}

// Analyze walks sm from its start state the way the runtime does and
// collects violations and warnings.
func Analyze(sm *domain.StateMachine, opts ...Option) *Report {
	cfg := config{processors: zoo.Processors, predicates: zoo.Predicates}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Report{Reachable: []string{}}
	var violations []error
	if err := sm.Validate(); err != nil {
		violations = append(violations, unwrapJoined(err)...)
	}

	r.Start = sm.StartState
	if r.Start == "" && len(sm.States) > 0 {
		r.Start = sm.States[0].Name
		r.ImplicitStart = true
	}

	visited := make(map[string]bool)
	if _, ok := sm.State(r.Start); ok {
		queue := []string{r.Start}
		visited[r.Start] = true
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			r.Reachable = append(r.Reachable, name)

			s, _ := sm.State(name)
			if len(s.Transitions) == 0 {
				r.Terminal = append(r.Terminal, name)
			}
			for _, t := range s.Transitions {
				if _, ok := sm.State(t.NextState); !ok || visited[t.NextState] {
					continue
				}
				visited[t.NextState] = true
				queue = append(queue, t.NextState)
			}
		}
	}
	for _, s := range sm.States {
		if !visited[s.Name] {
			r.Unreachable = append(r.Unreachable, s.Name)
		}
	}

	for _, s := range sm.States {
		for _, c := range s.Processors {
			if err := cfg.processors.Check(c); err != nil {
				r.Warnings = append(r.Warnings, fmt.Sprintf("state %q: processor %q: %v", s.Name, c.Name, err))
			}
		}
		for _, t := range s.Transitions {
			for _, c := range t.Predicates {
				if err := cfg.predicates.Check(c); err != nil {
					r.Warnings = append(r.Warnings, fmt.Sprintf("transition %q: predicate %q: %v", t.Name, c.Name, err))
				}
			}
		}
	}

	for _, v := range violations {
		r.Violations = append(r.Violations, v.Error())
	}
	r.err = errors.Join(violations...)
	return r
}

// Validate returns the structural violations of sm, if any.
func Validate(sm *domain.StateMachine) error {
	return Analyze(sm).Err()
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
