package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports"
)

// Mask replaces redacted argument values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the callable
// arguments whose key matches one of the patterns before a document is
// stored, so credentials embedded in model or registry URLs stay out of the
// backend.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, name string, data []byte) error {
	sm, err := codec.Unmarshal(data)
	if err != nil {
		return err
	}
	if !m.mask(sm) {
		return m.next.Save(ctx, name, data)
	}
	masked, err := codec.Marshal(sm)
	if err != nil {
		return err
	}
	return m.next.Save(ctx, name, masked)
}

func (m *redactionMiddleware) Load(ctx context.Context, name string) ([]byte, error) {
	return m.next.Load(ctx, name)
}

func (m *redactionMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask redacts sm in place and reports whether anything changed.
func (m *redactionMiddleware) mask(sm *domain.StateMachine) bool {
	changed := false
	for _, s := range sm.States {
		changed = m.maskCallables(s.Processors) || changed
		for _, t := range s.Transitions {
			changed = m.maskCallables(t.Predicates) || changed
		}
	}
	return changed
}

func (m *redactionMiddleware) maskCallables(callables []domain.Callable) bool {
	changed := false
	for _, c := range callables {
		for k, v := range c.Args {
			if v != Mask && m.matches(k) {
				c.Args[k] = Mask
				changed = true
			}
		}
	}
	return changed
}

func (m *redactionMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
