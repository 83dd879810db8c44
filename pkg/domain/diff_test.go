package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func diffFixture() *StateMachine {
	sm := New("app")
	sm.StartState = "start"
	sm.AddState(NewState("start"))
	sm.AddState(NewState("step1", Callable{Name: "p", CallableName: "DummyCallable", Args: map[string]string{"dummy_input": "x"}}))
	_ = sm.AddTransition("start", NewTransition("start-to-step1", "step1", Instruction{Audio: "go"}))
	return sm
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		old    *StateMachine
		mutate func(*StateMachine)
		want   *DocumentDiff // nil means no changes
	}{
		{
			name:   "No Changes",
			old:    diffFixture(),
			mutate: func(*StateMachine) {},
			want:   nil,
		},
		{
			name: "State Added",
			old:  diffFixture(),
			mutate: func(sm *StateMachine) {
				sm.AddState(NewState("step2"))
			},
			want: &DocumentDiff{AddedStates: []string{"step2"}},
		},
		{
			name: "Processor Changed",
			old:  diffFixture(),
			mutate: func(sm *StateMachine) {
				s, _ := sm.State("step1")
				s.Processors[0].Args["dummy_input"] = "y"
			},
			want: &DocumentDiff{ChangedStates: []string{"step1"}},
		},
		{
			name: "Rename Cascades Into Transition",
			old:  diffFixture(),
			mutate: func(sm *StateMachine) {
				s, _ := sm.State("step1")
				_ = sm.RenameState(s, "final")
			},
			want: &DocumentDiff{
				AddedStates:        []string{"final"},
				RemovedStates:      []string{"step1"},
				ChangedTransitions: []string{"start-to-step1"},
			},
		},
		{
			name: "Transition Removed",
			old:  diffFixture(),
			mutate: func(sm *StateMachine) {
				tr, _ := sm.Transition("start-to-step1")
				_ = sm.DeleteTransition(tr)
			},
			want: &DocumentDiff{RemovedTransitions: []string{"start-to-step1"}},
		},
		{
			name: "Transition Moved",
			old:  diffFixture(),
			mutate: func(sm *StateMachine) {
				tr, _ := sm.Transition("start-to-step1")
				_ = sm.MoveTransition(tr, "step1")
			},
			want: &DocumentDiff{ChangedTransitions: []string{"start-to-step1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := tt.old.Clone()
			tt.mutate(updated)

			got := Diff(tt.old, updated)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.want)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDiffInitialLoad(t *testing.T) {
	sm := diffFixture()
	got := Diff(nil, sm)
	if got == nil {
		t.Fatal("Diff(nil, doc) = nil")
	}
	if !reflect.DeepEqual(got.AddedStates, []string{"start", "step1"}) {
		t.Errorf("AddedStates = %v", got.AddedStates)
	}
	if got.StartState == nil || *got.StartState != "start" {
		t.Errorf("StartState = %v, want start", got.StartState)
	}
	if Diff(sm, nil) != nil {
		t.Error("Diff(doc, nil) should be nil")
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	old := diffFixture()
	updated := old.Clone()
	updated.AddState(NewState("step2"))

	b, err := json.Marshal(Diff(old, updated))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"added_states":["step2"]`) {
		t.Errorf("JSON should contain added_states, got: %s", b)
	}
	if strings.Contains(string(b), `"removed_states"`) {
		t.Errorf("JSON should omit empty lists, got: %s", b)
	}
}
