package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// ProcessorTable lists every processor of sm as a Markdown table, one row
// per processor in document order. States without processors get a single
// row so every state appears. Two-stage processors fill the classifier and
// detector columns; other kinds list their arguments in the last column.
func ProcessorTable(sm *domain.StateMachine) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", mdEscape(sm.Name))
	sb.WriteString("| State | Processor | Type | Classifier | Detector | Detector class | Arguments |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")

	twoStage := zoo.TwoStageProcessor{}.CallableName()
	for _, s := range sm.States {
		state := mdEscape(s.Name)
		if s.Name == sm.StartState {
			state = "**" + state + "**"
		}
		if len(s.Processors) == 0 {
			fmt.Fprintf(&sb, "| %s | - | - | | | | |\n", state)
			continue
		}
		for _, p := range s.Processors {
			if p.CallableName == twoStage {
				fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | |\n",
					state, mdEscape(p.Name), p.CallableName,
					mdEscape(p.Args["classifier_path"]),
					mdEscape(p.Args["detector_path"]),
					mdEscape(p.Args["detector_class_name"]))
				continue
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | | | | %s |\n",
				state, mdEscape(p.Name), mdEscape(p.CallableName), mdEscape(formatArgs(p.Args)))
		}
	}
	return sb.String()
}

// RenderProcessorTable renders ProcessorTable with render, e.g. a
// renderer from NewRenderer.
func RenderProcessorTable(sm *domain.StateMachine, render func(string) (string, error)) (string, error) {
	return render(ProcessorTable(sm))
}

func formatArgs(args map[string]string) string {
	parts := make([]string, 0, len(args))
	for _, k := range slices.Sorted(maps.Keys(args)) {
		parts = append(parts, k+"="+args[k])
	}
	return strings.Join(parts, ", ")
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
