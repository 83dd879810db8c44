package graph

import (
	"fmt"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// GenerateDOT produces a Graphviz digraph with the same shapes as
// GenerateMermaid: double circle for the start state, rounded box for
// terminal states, dashed octagon for dangling targets.
func GenerateDOT(sm *domain.StateMachine) string {
	ids := nodeIDs(sm)
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", dotQuote(sm.Name))
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box];\n")

	for _, s := range sm.States {
		attrs := ""
		switch {
		case s.Name == sm.StartState:
			attrs = ", shape=doublecircle"
		case len(s.Transitions) == 0:
			attrs = ", style=rounded"
		}
		fmt.Fprintf(&sb, "    %s [label=%s%s];\n", ids[s.Name], dotQuote(s.Name), attrs)
	}

	missing := make(map[string]string)
	for _, s := range sm.States {
		for _, t := range s.Transitions {
			target, ok := ids[t.NextState]
			style := ""
			if !ok {
				if target, ok = missing[t.NextState]; !ok {
					target = fmt.Sprintf("m%d", len(missing))
					missing[t.NextState] = target
					fmt.Fprintf(&sb, "    %s [label=%s, shape=octagon, style=dashed];\n", target, dotQuote(t.NextState))
				}
				style = ", style=dashed"
			}
			fmt.Fprintf(&sb, "    %s -> %s [label=%s%s];\n", ids[s.Name], target, dotQuote(EdgeLabel(t)), style)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
