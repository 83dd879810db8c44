package domain

// Transition moves the workflow from its owning state to NextState once every
// predicate holds, delivering Instruction to the user.
type Transition struct {
	Name        string      `json:"name" yaml:"name"`
	NextState   string      `json:"next_state" yaml:"next_state"`
	Instruction Instruction `json:"instruction" yaml:"instruction,omitempty"`
	Predicates  []Callable  `json:"predicates,omitempty" yaml:"predicates,omitempty"`
}

// NewTransition creates a transition towards next.
func NewTransition(name, next string, instruction Instruction, predicates ...Callable) *Transition {
	return &Transition{
		Name:        name,
		NextState:   next,
		Instruction: instruction,
		Predicates:  cloneCallables(predicates),
	}
}

func (t *Transition) clone() *Transition {
	return &Transition{
		Name:        t.Name,
		NextState:   t.NextState,
		Instruction: t.Instruction.clone(),
		Predicates:  cloneCallables(t.Predicates),
	}
}
