package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fsmlight/pkg/domain"
)

// missingNode receives outputs that no state accepts.
const missingNode = "missing"

// GraphOverlay contains live machine positions to highlight on the graph.
type GraphOverlay struct {
	// Current lists states where at least one running machine sits.
	Current []string
	// Stopped lists states where at least one machine finished.
	Stopped []string
}

// GenerateMermaid produces a Mermaid flowchart from registered states.
// It applies semantic styling:
// - Start (no inputs): ((Circle))
// - Stop (no outputs): ([Stadium])
// - Others: [Rectangle]
// Each output is drawn to every state accepting it, labelled with the transition id.
// Outputs nobody accepts point at a shared "missing" node.
func GenerateMermaid(states []*domain.State, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	dangling := false
	for _, s := range states {
		safeID := sanitizeMermaidID(s.Name())

		opener, closer := "[", "]"
		switch {
		case s.IsStart():
			opener, closer = "((", "))"
		case s.IsStop():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(s.Name()), closer)

		for _, id := range s.Outputs() {
			accepted := false
			for _, target := range states {
				if target.Accepts(id) {
					accepted = true
					fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, id, sanitizeMermaidID(target.Name()))
				}
			}
			if !accepted {
				dangling = true
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, id, missingNode)
			}
		}
	}

	if dangling {
		fmt.Fprintf(&sb, "    %s{{\"no acceptor\"}}\n", missingNode)
		sb.WriteString("    classDef missing fill:#ffcdd2,stroke:#b71c1c,stroke-dasharray:4,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s missing;\n", missingNode)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on any theme
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef stopped fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		writeClass(&sb, "stopped", overlay.Stopped)
		writeClass(&sb, "current", overlay.Current)
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, names []string) {
	seen := make(map[string]bool)
	for _, name := range names {
		safeID := sanitizeMermaidID(name)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_")
	s := r.Replace(id)
	// Mermaid treats "end" as a keyword.
	if strings.EqualFold(s, "end") {
		s = "end_"
	}
	return s
}
