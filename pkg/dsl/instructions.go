package dsl

import (
	"fmt"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Option configures FromInstructionList.
type Option func(*listConfig)

type listConfig struct {
	name       string
	processors []domain.Callable
}

// WithDefaultProcessors replaces the processor template copied into every
// generated state except the last.
func WithDefaultProcessors(processors ...domain.Callable) Option {
	return func(c *listConfig) {
		c.processors = processors
	}
}

// WithName sets the document name. Defaults to domain.DefaultDocumentName.
func WithName(name string) Option {
	return func(c *listConfig) {
		c.name = name
	}
}

// FromInstructionList builds a linear workflow with one state per non-empty line.
//
// The chain starts at a synthetic "start" state. Line N (counting non-empty
// lines only) becomes state "step<N>", reached from the previous state through
// transition "<prev>-to-step<N>" whose audio is the trimmed line. The first
// transition always fires; later ones wait until the previous state's name is
// detected as an object class. The last state runs no processors.
func FromInstructionList(lines []string, opts ...Option) (*domain.StateMachine, error) {
	cfg := listConfig{
		name:       domain.DefaultDocumentName,
		processors: []domain.Callable{DefaultProcessor()},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := New(cfg.name)
	prev := b.State(domain.StartStateName).Start()
	step := 0
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		step++
		name := fmt.Sprintf("step%d", step)

		predicate := Always()
		if prev.name != domain.StartStateName {
			predicate = HasObjectClass(prev.name)
		}
		prev.Go(prev.name+"-to-"+name, name).When(predicate).Say(text)

		prev = b.State(name).Process(cfg.processors...)
	}
	if step > 0 {
		prev.processors = nil
	}
	return b.Build()
}

// ParseInstructionText splits a multi-line text into instruction lines.
// Blank lines are dropped and surrounding whitespace is trimmed.
func ParseInstructionText(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
