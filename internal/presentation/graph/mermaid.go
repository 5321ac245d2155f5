package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay contains execution data to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromTrace highlights the nodes of one execution; the last visited
// node is marked current.
func OverlayFromTrace(trace domain.Trace) *Overlay {
	o := &Overlay{VisitedNodes: trace.Visited}
	if n := len(trace.Visited); n > 0 {
		o.CurrentNode = trace.Visited[n-1]
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the graph.
// It applies semantic styling:
// - Condition: {{Hexagon}} with one labelled edge per branch plus "default"
// - Assignment: [Rectangle] annotated with its field count
// - Component reference: ([Stadium]) named after the component
// Entry nodes carry an "ENTRY: " prefix. Overlay styles are applied if provided.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")

	w := &mermaidWriter{sb: &sb, g: g}
	for _, node := range g.Nodes() {
		node.Accept(w)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

type mermaidWriter struct {
	sb *strings.Builder
	g  *domain.Graph
}

func (w *mermaidWriter) label(id, description string) string {
	if description == "" {
		description = id
	}
	if w.g.IsEntry(id) {
		description = "ENTRY: " + description
	}
	return description
}

func (w *mermaidWriter) VisitCondition(n *domain.ConditionNode) {
	sid := sanitizeMermaidID(n.ID)
	fmt.Fprintf(w.sb, "    %s{{\"%s\"}}\n", sid, escapeLabel(w.label(n.ID, n.Description)))
	for _, b := range n.Branches {
		edge := fmt.Sprintf("%s %s", b.Condition.Field, b.Condition.Operator)
		if b.Condition.Operator.NeedsOperand() {
			edge += " " + truncate(plain(b.Condition.Value), 30)
		}
		fmt.Fprintf(w.sb, "    %s -->|\"%s\"| %s\n", sid, escapeLabel(edge), sanitizeMermaidID(b.Target))
	}
	if n.Default != "" {
		fmt.Fprintf(w.sb, "    %s -->|\"default\"| %s\n", sid, sanitizeMermaidID(n.Default))
	}
}

func (w *mermaidWriter) VisitAssignment(n *domain.AssignmentNode) {
	sid := sanitizeMermaidID(n.ID)
	label := fmt.Sprintf("%s (%d fields)", w.label(n.ID, n.Description), len(n.Assignments))
	fmt.Fprintf(w.sb, "    %s[\"%s\"]\n", sid, escapeLabel(label))
	w.next(sid, n.Next)
}

func (w *mermaidWriter) VisitComponentRef(n *domain.ComponentRefNode) {
	sid := sanitizeMermaidID(n.ID)
	name, count := n.ComponentID, "?"
	if c, ok := w.g.Component(n.ComponentID); ok {
		if c.Name != "" {
			name = c.Name
		}
		count = fmt.Sprint(len(c.Assignments))
	}
	label := fmt.Sprintf("%s (%s fields)", w.label(n.ID, name), count)
	fmt.Fprintf(w.sb, "    %s([\"%s\"])\n", sid, escapeLabel(label))
	w.next(sid, n.Next)
}

func (w *mermaidWriter) next(sid string, next []string) {
	for _, id := range next {
		fmt.Fprintf(w.sb, "    %s --> %s\n", sid, sanitizeMermaidID(id))
	}
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}

func escapeLabel(text string) string {
	return strings.NewReplacer(`"`, "'", "\n", " ").Replace(text)
}

// plain renders a value without string quoting.
func plain(v domain.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	if items, ok := v.AsList(); ok {
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = plain(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.String()
}

func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}
