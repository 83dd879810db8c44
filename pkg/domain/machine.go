package domain

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// StateMachine is the root of an FSM document.
// States keep insertion order, which is also the diagram layout order.
type StateMachine struct {
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	StartState string            `json:"start_state,omitempty" yaml:"start_state,omitempty"`
	States     []*State          `json:"states" yaml:"states"`
	Assets     map[string][]byte `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// New creates an empty document.
func New(name string) *StateMachine {
	return &StateMachine{Name: name}
}

// State returns the first state called name.
func (sm *StateMachine) State(name string) (*State, bool) {
	for _, s := range sm.States {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Transition returns the first transition called name, in document order.
func (sm *StateMachine) Transition(name string) (*Transition, bool) {
	for _, s := range sm.States {
		for _, t := range s.Transitions {
			if t.Name == name {
				return t, true
			}
		}
	}
	return nil, false
}

// Lookup resolves a name to an element. States win over transitions when a
// (broken) document uses the same name for both.
func (sm *StateMachine) Lookup(name string) (Element, error) {
	if s, ok := sm.State(name); ok {
		return s, nil
	}
	if t, ok := sm.Transition(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: element %q", ErrNotFound, name)
}

// Owner returns the state whose transition list holds t.
func (sm *StateMachine) Owner(t *Transition) (*State, bool) {
	if t == nil {
		return nil, false
	}
	for _, s := range sm.States {
		if s.transitionIndex(t) >= 0 {
			return s, true
		}
	}
	return nil, false
}

// Transitions lists every transition in document order.
func (sm *StateMachine) Transitions() []*Transition {
	var out []*Transition
	for _, s := range sm.States {
		out = append(out, s.Transitions...)
	}
	return out
}

// TransitionCount is the number of transitions across all states.
func (sm *StateMachine) TransitionCount() int {
	n := 0
	for _, s := range sm.States {
		n += len(s.Transitions)
	}
	return n
}

// IncomingTransitions lists the transitions whose NextState is name.
func (sm *StateMachine) IncomingTransitions(name string) []*Transition {
	var out []*Transition
	for _, s := range sm.States {
		for _, t := range s.Transitions {
			if t.NextState == name {
				out = append(out, t)
			}
		}
	}
	return out
}

// Names returns every state and transition name in document order.
func (sm *StateMachine) Names() []string {
	names := make([]string, 0, len(sm.States))
	for _, s := range sm.States {
		names = append(names, s.Name)
		for _, t := range s.Transitions {
			names = append(names, t.Name)
		}
	}
	return names
}

// DuplicateNames returns, sorted, every name used more than once.
func (sm *StateMachine) DuplicateNames() []string {
	seen := make(map[string]int)
	for _, name := range sm.Names() {
		seen[name]++
	}
	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// ValidateNames reports whether all state and transition names are unique.
func (sm *StateMachine) ValidateNames() bool {
	return len(sm.DuplicateNames()) == 0
}

// CheckName is the form-level check for a new or renamed element.
func (sm *StateMachine) CheckName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if slices.Contains(sm.Names(), name) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

// AddState appends s. Name uniqueness is not re-checked.
func (sm *StateMachine) AddState(s *State) {
	if s == nil {
		return
	}
	sm.States = append(sm.States, s)
}

// AddTransition appends t to the transitions of the state called from.
func (sm *StateMachine) AddTransition(from string, t *Transition) error {
	if t == nil {
		return fmt.Errorf("%w: nil transition", ErrUnsupportedElementType)
	}
	owner, ok := sm.State(from)
	if !ok {
		return fmt.Errorf("%w: state %q", ErrNotFound, from)
	}
	owner.Transitions = append(owner.Transitions, t)
	return nil
}

// RenameState renames s and rewrites every reference to its old name.
func (sm *StateMachine) RenameState(s *State, newName string) error {
	if !slices.Contains(sm.States, s) || s == nil {
		return fmt.Errorf("%w: state is not part of %q", ErrNotFound, sm.Name)
	}
	oldName := s.Name
	if oldName == newName {
		return nil
	}
	for _, owner := range sm.States {
		for _, t := range owner.Transitions {
			if t.NextState == oldName {
				t.NextState = newName
			}
		}
	}
	if sm.StartState == oldName {
		sm.StartState = newName
	}
	s.Name = newName
	return nil
}

// RenameTransition renames t. Nothing references transitions by name.
func (sm *StateMachine) RenameTransition(t *Transition, newName string) error {
	if _, ok := sm.Owner(t); !ok {
		return fmt.Errorf("%w: transition is not part of %q", ErrNotFound, sm.Name)
	}
	t.Name = newName
	return nil
}

// MoveTransition re-attaches t to the state called newFrom.
func (sm *StateMachine) MoveTransition(t *Transition, newFrom string) error {
	current, ok := sm.Owner(t)
	if !ok {
		return fmt.Errorf("%w: transition is not part of %q", ErrNotFound, sm.Name)
	}
	target, ok := sm.State(newFrom)
	if !ok {
		return fmt.Errorf("%w: state %q", ErrNotFound, newFrom)
	}
	if target == current {
		return nil
	}
	i := current.transitionIndex(t)
	current.Transitions = slices.Delete(current.Transitions, i, i+1)
	if len(current.Transitions) == 0 {
		current.Transitions = nil
	}
	target.Transitions = append(target.Transitions, t)
	return nil
}

// IsSafeToDelete reports whether e can be removed without orphaning references.
func (sm *StateMachine) IsSafeToDelete(e Element) bool {
	kind, err := KindOf(e)
	if err != nil {
		return false
	}
	switch kind {
	case KindState:
		s := e.(*State)
		return len(s.Transitions) == 0 && len(sm.IncomingTransitions(s.Name)) == 0
	case KindTransition:
		return true
	}
	return false
}

// DeleteState removes s when it is safe to do so.
// Deleting the start state clears StartState.
func (sm *StateMachine) DeleteState(s *State) error {
	i := slices.Index(sm.States, s)
	if i < 0 || s == nil {
		return fmt.Errorf("%w: state is not part of %q", ErrNotFound, sm.Name)
	}
	if !sm.IsSafeToDelete(s) {
		return fmt.Errorf("%w: state %q has %d outgoing and %d incoming transitions",
			ErrUnsafeDelete, s.Name, len(s.Transitions), len(sm.IncomingTransitions(s.Name)))
	}
	sm.States = slices.Delete(sm.States, i, i+1)
	if sm.StartState == s.Name {
		sm.StartState = ""
	}
	return nil
}

// DeleteTransition removes t from its owner.
func (sm *StateMachine) DeleteTransition(t *Transition) error {
	owner, ok := sm.Owner(t)
	if !ok {
		return fmt.Errorf("%w: transition is not part of %q", ErrNotFound, sm.Name)
	}
	if !sm.IsSafeToDelete(t) {
		return fmt.Errorf("%w: transition %q", ErrUnsafeDelete, t.Name)
	}
	i := owner.transitionIndex(t)
	owner.Transitions = slices.Delete(owner.Transitions, i, i+1)
	if len(owner.Transitions) == 0 {
		owner.Transitions = nil
	}
	return nil
}

// Delete removes a state or a transition.
func (sm *StateMachine) Delete(e Element) error {
	kind, err := KindOf(e)
	if err != nil {
		return err
	}
	if kind == KindState {
		return sm.DeleteState(e.(*State))
	}
	return sm.DeleteTransition(e.(*Transition))
}

// Validate checks every structural invariant and reports all violations.
// Each joined error wraps ErrEmptyName, ErrDuplicateName or ErrNotFound.
func (sm *StateMachine) Validate() error {
	var errs []error
	for i, s := range sm.States {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%w: state at index %d", ErrEmptyName, i))
		}
		for j, t := range s.Transitions {
			if t.Name == "" {
				errs = append(errs, fmt.Errorf("%w: transition %d of state %q", ErrEmptyName, j, s.Name))
			}
			if _, ok := sm.State(t.NextState); !ok {
				errs = append(errs, fmt.Errorf("%w: transition %q targets unknown state %q", ErrNotFound, t.Name, t.NextState))
			}
		}
	}
	for _, name := range sm.DuplicateNames() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateName, name))
	}
	if sm.StartState != "" {
		if _, ok := sm.State(sm.StartState); !ok {
			errs = append(errs, fmt.Errorf("%w: start state %q", ErrNotFound, sm.StartState))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy that shares nothing with sm.
func (sm *StateMachine) Clone() *StateMachine {
	out := &StateMachine{
		Name:       sm.Name,
		StartState: sm.StartState,
	}
	if len(sm.States) > 0 {
		out.States = make([]*State, len(sm.States))
		for i, s := range sm.States {
			out.States[i] = s.clone()
		}
	}
	if len(sm.Assets) > 0 {
		out.Assets = make(map[string][]byte, len(sm.Assets))
		for k, v := range sm.Assets {
			out.Assets[k] = bytes.Clone(v)
		}
	}
	return out
}
