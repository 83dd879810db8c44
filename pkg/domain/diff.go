package domain

import (
	"reflect"
	"slices"
)

// DocumentDiff describes the structural changes between two documents.
// It is serialized to JSON for the HTTP API and printed by the CLI.
type DocumentDiff struct {
	Name *string `json:"name,omitempty"`

	// StartState is set when the start state changed, to the new value.
	StartState *string `json:"start_state,omitempty"`

	AddedStates        []string `json:"added_states,omitempty"`
	RemovedStates      []string `json:"removed_states,omitempty"`
	ChangedStates      []string `json:"changed_states,omitempty"`
	AddedTransitions   []string `json:"added_transitions,omitempty"`
	RemovedTransitions []string `json:"removed_transitions,omitempty"`
	ChangedTransitions []string `json:"changed_transitions,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, everything in newDoc is reported as added.
func Diff(oldDoc, newDoc *StateMachine) *DocumentDiff {
	if newDoc == nil {
		return nil
	}
	if oldDoc == nil {
		oldDoc = &StateMachine{Name: newDoc.Name}
	}

	diff := &DocumentDiff{}
	if oldDoc.Name != newDoc.Name {
		diff.Name = &newDoc.Name
	}
	if oldDoc.StartState != newDoc.StartState {
		diff.StartState = &newDoc.StartState
	}

	// States are compared by name, ignoring their transition lists.
	for _, s := range newDoc.States {
		prev, ok := oldDoc.State(s.Name)
		switch {
		case !ok:
			diff.AddedStates = append(diff.AddedStates, s.Name)
		case !reflect.DeepEqual(prev.Processors, s.Processors):
			diff.ChangedStates = append(diff.ChangedStates, s.Name)
		}
	}
	for _, s := range oldDoc.States {
		if _, ok := newDoc.State(s.Name); !ok {
			diff.RemovedStates = append(diff.RemovedStates, s.Name)
		}
	}

	for _, t := range newDoc.Transitions() {
		prev, ok := oldDoc.Transition(t.Name)
		switch {
		case !ok:
			diff.AddedTransitions = append(diff.AddedTransitions, t.Name)
		case transitionChanged(oldDoc, prev, newDoc, t):
			diff.ChangedTransitions = append(diff.ChangedTransitions, t.Name)
		}
	}
	for _, t := range oldDoc.Transitions() {
		if _, ok := newDoc.Transition(t.Name); !ok {
			diff.RemovedTransitions = append(diff.RemovedTransitions, t.Name)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func transitionChanged(oldDoc *StateMachine, prev *Transition, newDoc *StateMachine, t *Transition) bool {
	if prev.NextState != t.NextState || !reflect.DeepEqual(prev.Predicates, t.Predicates) {
		return true
	}
	if prev.Instruction.Name != t.Instruction.Name || prev.Instruction.Audio != t.Instruction.Audio ||
		!slices.Equal(prev.Instruction.Image, t.Instruction.Image) ||
		!slices.Equal(prev.Instruction.Video, t.Instruction.Video) {
		return true
	}
	prevOwner, _ := oldDoc.Owner(prev)
	owner, _ := newDoc.Owner(t)
	return prevOwner == nil || owner == nil || prevOwner.Name != owner.Name
}

// IsEmpty checks if the diff contains any changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d.Name == nil &&
		d.StartState == nil &&
		len(d.AddedStates) == 0 &&
		len(d.RemovedStates) == 0 &&
		len(d.ChangedStates) == 0 &&
		len(d.AddedTransitions) == 0 &&
		len(d.RemovedTransitions) == 0 &&
		len(d.ChangedTransitions) == 0
}
