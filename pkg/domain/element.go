package domain

import "fmt"

// ElementKind identifies the two editable element types.
type ElementKind int

const (
	KindState ElementKind = iota + 1
	KindTransition
)

func (k ElementKind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindTransition:
		return "transition"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// Element is the closed set {*State, *Transition}. It is what the diagram view
// hands back on selection and what the delete operations accept.
type Element interface {
	ElementName() string
	element()
}

func (s *State) ElementName() string { return s.Name }
func (*State) element()              {}

func (t *Transition) ElementName() string { return t.Name }
func (*Transition) element()              {}

// KindOf returns the kind of e, or ErrUnsupportedElementType for nil values.
func KindOf(e Element) (ElementKind, error) {
	switch v := e.(type) {
	case *State:
		if v != nil {
			return KindState, nil
		}
	case *Transition:
		if v != nil {
			return KindTransition, nil
		}
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupportedElementType, e)
}
