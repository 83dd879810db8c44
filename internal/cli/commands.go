package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/internal/compiler"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/graph"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/tui"
	"github.com/cmusatyalab/OpenWorkflow/internal/validator"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/dsl"
)

// ErrInvalidDocuments is returned by Validate when a document has violations.
var ErrInvalidDocuments = errors.New("invalid documents")

// ErrDocumentsDiffer is returned by Diff when the documents differ.
var ErrDocumentsDiffer = errors.New("documents differ")

// Validate reports the structure of every document.
func Validate(ctx context.Context, o Options, locations []string) error {
	w := o.out()
	z := o.zoo()
	invalid := 0
	for _, location := range locations {
		sm, err := o.parser().ReadFile(ctx, location)
		if err != nil {
			return err
		}
		report := validator.Analyze(sm, validator.WithRegistries(z.Processors, z.Predicates))
		status := "valid"
		if !report.Valid() {
			status = "INVALID"
			invalid++
		}
		fmt.Fprintf(w, "%s: %s (%d states, %d transitions)\n", location, status, len(sm.States), sm.TransitionCount())
		if report.Start != "" {
			implicit := ""
			if report.ImplicitStart {
				implicit = " (first state)"
			}
			fmt.Fprintf(w, "  start: %s%s\n", report.Start, implicit)
		}
		printList(w, "unreachable", report.Unreachable)
		printList(w, "terminal", report.Terminal)
		for _, v := range report.Violations {
			fmt.Fprintf(w, "  violation: %s\n", v)
		}
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidDocuments, invalid, len(locations))
	}
	return nil
}

func printList(w io.Writer, label string, names []string) {
	if len(names) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(names, ", "))
	}
}

// Graph prints a diagram of the document, mermaid or dot.
func Graph(ctx context.Context, o Options, location, format, selected string) error {
	sm, err := o.parser().ReadFile(ctx, location)
	if err != nil {
		return err
	}
	switch format {
	case "", "mermaid":
		overlay := &graph.Overlay{Selected: selected, Dimmed: validator.Analyze(sm).Unreachable}
		fmt.Fprint(o.out(), graph.GenerateMermaid(sm, overlay))
	case "dot":
		fmt.Fprint(o.out(), graph.GenerateDOT(sm))
	default:
		return fmt.Errorf("unknown graph format %q (want mermaid or dot)", format)
	}
	return nil
}

// Table prints the processor table. raw prints the Markdown source.
func Table(ctx context.Context, o Options, location string, raw, plain bool, width int) error {
	sm, err := o.parser().ReadFile(ctx, location)
	if err != nil {
		return err
	}
	if raw {
		fmt.Fprint(o.out(), tui.ProcessorTable(sm))
		return nil
	}
	render, err := tui.NewRenderer(width)
	if plain {
		render, err = tui.NewPlainRenderer()
	}
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := tui.RenderProcessorTable(sm, render)
	if err != nil {
		return err
	}
	fmt.Fprint(o.out(), out)
	return nil
}

// BuildOptions configures Build.
type BuildOptions struct {
	Name   string
	Input  io.Reader
	Output string
}

// Build creates a linear workflow from the instruction lines of Input and
// writes it to Output, as YAML when Output ends in .yaml.
func Build(ctx context.Context, o Options, b BuildOptions) error {
	var lines []string
	scanner := bufio.NewScanner(b.Input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read instructions: %w", err)
	}
	lines, err := dsl.SanitizeInstructions(dsl.ParseInstructionText(strings.Join(lines, "\n")))
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.New("no instructions given")
	}

	ed := o.newEditor()
	if b.Name != "" {
		if err := ed.SetName(b.Name); err != nil {
			return err
		}
	}
	if err := ed.LoadInstructions(lines); err != nil {
		return err
	}
	data, filename, err := ed.Export()
	if err != nil {
		return err
	}
	output := b.Output
	if output == "" {
		output = filename
	}
	if compiler.DetectFormat(output) == compiler.FormatYAML {
		if data, err = codec.MarshalYAML(ed.Document()); err != nil {
			return err
		}
	}
	if err := o.parser().WriteFile(ctx, output, data); err != nil {
		return err
	}
	printSystemMessage(o.out(), "wrote %s (%d steps)", output, len(lines))
	return nil
}

// Dump prints the document as YAML.
func Dump(ctx context.Context, o Options, location string) error {
	sm, err := o.parser().ReadFile(ctx, location)
	if err != nil {
		return err
	}
	out, err := codec.MarshalYAML(sm)
	if err != nil {
		return err
	}
	_, err = o.out().Write(out)
	return err
}

// Compile converts a document (usually YAML) to .pbfsm. Callables are
// normalized against the zoo and structural violations are refused.
// An empty output replaces the extension of input.
func Compile(ctx context.Context, o Options, input, output string) error {
	sm, err := o.parser().ReadFile(ctx, input)
	if err != nil {
		return err
	}
	if err := sm.Validate(); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	raw, err := codec.Marshal(sm)
	if err != nil {
		return err
	}

	ed := o.newEditor()
	if err := ed.Import(raw); err != nil {
		return err
	}
	data, _, err := ed.Export()
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(input, path.Ext(input)) + codec.FileExtension
	}
	if err := o.parser().WriteFile(ctx, output, data); err != nil {
		return err
	}
	printSystemMessage(o.out(), "compiled %s -> %s (%d bytes)", input, output, len(data))
	return nil
}

// Diff prints the structural changes from the old to the new document.
// It returns ErrDocumentsDiffer when there are any.
func Diff(ctx context.Context, o Options, oldLocation, newLocation string) error {
	oldDoc, err := o.parser().ReadFile(ctx, oldLocation)
	if err != nil {
		return err
	}
	newDoc, err := o.parser().ReadFile(ctx, newLocation)
	if err != nil {
		return err
	}
	diff := domain.Diff(oldDoc, newDoc)
	if diff == nil {
		fmt.Fprintln(o.out(), "no changes")
		return nil
	}
	fmt.Fprint(o.out(), FormatDiff(diff))
	return ErrDocumentsDiffer
}

// FormatDiff renders a diff one change per line: + added, - removed,
// ~ changed.
func FormatDiff(d *domain.DocumentDiff) string {
	var sb strings.Builder
	if d.Name != nil {
		fmt.Fprintf(&sb, "~ name %s\n", *d.Name)
	}
	if d.StartState != nil {
		fmt.Fprintf(&sb, "~ start_state %s\n", *d.StartState)
	}
	lines := []struct {
		mark, kind string
		names      []string
	}{
		{"+", "state", d.AddedStates},
		{"-", "state", d.RemovedStates},
		{"~", "state", d.ChangedStates},
		{"+", "transition", d.AddedTransitions},
		{"-", "transition", d.RemovedTransitions},
		{"~", "transition", d.ChangedTransitions},
	}
	for _, l := range lines {
		for _, name := range l.names {
			fmt.Fprintf(&sb, "%s %s %s\n", l.mark, l.kind, name)
		}
	}
	return sb.String()
}
