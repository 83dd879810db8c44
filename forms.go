package openworkflow

import (
	"fmt"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// StateForm carries the user-editable fields of a state.
type StateForm struct {
	Name       string            `json:"name"`
	Processors []domain.Callable `json:"processors,omitempty"`
	// Start makes the state the document's start state.
	Start bool `json:"start,omitempty"`
}

// TransitionForm carries the user-editable fields of a transition.
type TransitionForm struct {
	Name        string             `json:"name"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	Instruction domain.Instruction `json:"instruction"`
	Predicates  []domain.Callable  `json:"predicates,omitempty"`
}

// AddState appends a new state.
func (e *Editor) AddState(f StateForm) error {
	return e.apply(domain.EventStateAdded, f.Name, func(sm *domain.StateMachine) error {
		if err := sm.CheckName(f.Name); err != nil {
			return err
		}
		processors, err := e.processors.NormalizeAll(f.Processors)
		if err != nil {
			return err
		}
		sm.AddState(domain.NewState(f.Name, processors...))
		if f.Start {
			sm.StartState = f.Name
		}
		return nil
	})
}

// UpdateState replaces the state called current with the form content.
// A new name is propagated to every transition leading to the state.
func (e *Editor) UpdateState(current string, f StateForm) error {
	return e.apply(domain.EventStateUpdated, current, func(sm *domain.StateMachine) error {
		s, ok := sm.State(current)
		if !ok {
			return fmt.Errorf("%w: state %q", domain.ErrNotFound, current)
		}
		if f.Name != current {
			if err := sm.CheckName(f.Name); err != nil {
				return err
			}
			if err := sm.RenameState(s, f.Name); err != nil {
				return err
			}
		}
		processors, err := e.processors.NormalizeAll(f.Processors)
		if err != nil {
			return err
		}
		s.Processors = processors
		if f.Start {
			sm.StartState = f.Name
		}
		return nil
	})
}

// AddTransition adds a transition from f.From to f.To.
func (e *Editor) AddTransition(f TransitionForm) error {
	return e.apply(domain.EventTransitionAdded, f.Name, func(sm *domain.StateMachine) error {
		if err := sm.CheckName(f.Name); err != nil {
			return err
		}
		if _, ok := sm.State(f.To); !ok {
			return fmt.Errorf("%w: state %q", domain.ErrNotFound, f.To)
		}
		predicates, err := e.predicates.NormalizeAll(f.Predicates)
		if err != nil {
			return err
		}
		return sm.AddTransition(f.From, domain.NewTransition(f.Name, f.To, f.Instruction, predicates...))
	})
}

// UpdateTransition replaces the transition called current with the form
// content. Changing f.From moves the transition to that state.
func (e *Editor) UpdateTransition(current string, f TransitionForm) error {
	return e.apply(domain.EventTransitionUpdated, current, func(sm *domain.StateMachine) error {
		t, ok := sm.Transition(current)
		if !ok {
			return fmt.Errorf("%w: transition %q", domain.ErrNotFound, current)
		}
		if f.Name != current {
			if err := sm.CheckName(f.Name); err != nil {
				return err
			}
			if err := sm.RenameTransition(t, f.Name); err != nil {
				return err
			}
		}
		if _, ok := sm.State(f.To); !ok {
			return fmt.Errorf("%w: state %q", domain.ErrNotFound, f.To)
		}
		if err := sm.MoveTransition(t, f.From); err != nil {
			return err
		}
		predicates, err := e.predicates.NormalizeAll(f.Predicates)
		if err != nil {
			return err
		}
		t.NextState = f.To
		t.Instruction = f.Instruction
		t.Predicates = predicates
		return nil
	})
}

// Delete removes the state or transition called name. States that still
// have incoming or outgoing transitions are refused with
// domain.ErrUnsafeDelete.
func (e *Editor) Delete(name string) error {
	return e.apply(domain.EventDeleted, name, func(sm *domain.StateMachine) error {
		el, err := sm.Lookup(name)
		if err != nil {
			return err
		}
		return sm.Delete(el)
	})
}
