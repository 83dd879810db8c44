package domain

// State is a node of the workflow. Its processors run on every input frame while
// the state is active; its transitions are evaluated in order afterwards.
type State struct {
	Name        string        `json:"name" yaml:"name"`
	Processors  []Callable    `json:"processors,omitempty" yaml:"processors,omitempty"`
	Transitions []*Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// NewState creates a state with the given processors.
func NewState(name string, processors ...Callable) *State {
	return &State{
		Name:       name,
		Processors: cloneCallables(processors),
	}
}

func (s *State) transitionIndex(t *Transition) int {
	for i, candidate := range s.Transitions {
		if candidate == t {
			return i
		}
	}
	return -1
}

func (s *State) clone() *State {
	out := &State{
		Name:       s.Name,
		Processors: cloneCallables(s.Processors),
	}
	if len(s.Transitions) > 0 {
		out.Transitions = make([]*Transition, len(s.Transitions))
		for i, t := range s.Transitions {
			out.Transitions[i] = t.clone()
		}
	}
	return out
}
