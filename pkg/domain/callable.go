package domain

import "maps"

// Callable is a named, typed and parameterized unit of work.
// Attached to a State it acts as a processor; attached to a Transition it acts as
// a predicate. Name only needs to be unique within the owner's list.
type Callable struct {
	Name         string            `json:"name" yaml:"name"`
	CallableName string            `json:"callable_name" yaml:"callable_name"`
	Args         map[string]string `json:"callable_args,omitempty" yaml:"callable_args,omitempty"`
}

func (c Callable) clone() Callable {
	c.Args = cloneArgs(c.Args)
	return c
}

func cloneArgs(args map[string]string) map[string]string {
	if len(args) == 0 {
		return nil
	}
	return maps.Clone(args)
}

func cloneCallables(in []Callable) []Callable {
	if len(in) == 0 {
		return nil
	}
	out := make([]Callable, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}
