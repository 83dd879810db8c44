package graph

import (
	"fmt"
	"strings"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

// Overlay contains editor state to visualize on top of the document.
type Overlay struct {
	// Selected is the name of the selected state or transition.
	Selected string
	// Dimmed states are drawn faded, e.g. the unreachable ones.
	Dimmed []string
}

// GenerateMermaid produces a Mermaid flowchart from a document.
// It applies semantic styling:
// - Start state: ((Circle))
// - Terminal state (no outgoing transition): ([Stadium])
// - Default: [Rectangle]
// - Dangling target: {{Hexagon}}, dashed arrow
// Edges are labeled with the transition name and its predicates.
func GenerateMermaid(sm *domain.StateMachine, overlay *Overlay) string {
	ids := nodeIDs(sm)
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range sm.States {
		opener, closer := "[", "]"
		switch {
		case s.Name == sm.StartState:
			opener, closer = "((", "))"
		case len(s.Transitions) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[s.Name], opener, mermaidText(s.Name), closer)
	}

	missing := make(map[string]string)
	edge := 0
	selectedEdge := -1
	for _, s := range sm.States {
		for _, t := range s.Transitions {
			target, ok := ids[t.NextState]
			arrow := "-->"
			if !ok {
				if target, ok = missing[t.NextState]; !ok {
					target = fmt.Sprintf("m%d", len(missing))
					missing[t.NextState] = target
					fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", target, mermaidText(t.NextState))
				}
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s|\"%s\"| %s\n", ids[s.Name], arrow, mermaidText(EdgeLabel(t)), target)
			if overlay != nil && overlay.Selected == t.Name {
				selectedEdge = edge
			}
			edge++
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light backgrounds regardless of theme.
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef dimmed fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#757575;\n")

		dimmed := make(map[string]bool)
		for _, name := range overlay.Dimmed {
			if id, ok := ids[name]; ok && !dimmed[id] {
				dimmed[id] = true
				fmt.Fprintf(&sb, "    class %s dimmed;\n", id)
			}
		}
		if id, ok := ids[overlay.Selected]; ok {
			fmt.Fprintf(&sb, "    class %s selected;\n", id)
		}
		if selectedEdge >= 0 {
			fmt.Fprintf(&sb, "    linkStyle %d stroke:#fbc02d,stroke-width:4px;\n", selectedEdge)
		}
	}

	return sb.String()
}

// EdgeLabel is the transition name followed by its predicate names.
func EdgeLabel(t *domain.Transition) string {
	if len(t.Predicates) == 0 {
		return t.Name
	}
	names := make([]string, len(t.Predicates))
	for i, p := range t.Predicates {
		names[i] = p.Name
		if names[i] == "" {
			names[i] = p.CallableName
		}
	}
	return t.Name + " [" + strings.Join(names, ", ") + "]"
}

// nodeIDs assigns positional identifiers, since state names may hold any
// character. The first state of a duplicated name wins.
func nodeIDs(sm *domain.StateMachine) map[string]string {
	ids := make(map[string]string, len(sm.States))
	for i, s := range sm.States {
		if _, ok := ids[s.Name]; !ok {
			ids[s.Name] = fmt.Sprintf("s%d", i)
		}
	}
	return ids
}

func mermaidText(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
