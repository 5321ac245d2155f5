package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// Coverage status of a parameter group.
const (
	CoverageFull    = "FULL"
	CoveragePartial = "PARTIAL"
	CoverageNone    = "NONE"
)

// GroupCoverage reports how many parameters of a group some reachable node
// assigns. Direct parameters are left out.
type GroupCoverage struct {
	Group   string
	Covered []string
	Missing []string
}

// Status is FULL, PARTIAL or NONE.
func (c GroupCoverage) Status() string {
	switch {
	case len(c.Missing) == 0:
		return CoverageFull
	case len(c.Covered) == 0:
		return CoverageNone
	default:
		return CoveragePartial
	}
}

// ReachableAssignments returns every parameter assigned by a node reachable
// from the entries, including component contents.
func ReachableAssignments(g *domain.Graph) map[string]bool {
	assigned := make(map[string]bool)
	seen := make(map[string]bool)
	queue := g.Entries()
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		switch node := n.(type) {
		case *domain.AssignmentNode:
			for k := range node.Assignments {
				assigned[k] = true
			}
		case *domain.ComponentRefNode:
			if c, ok := g.Component(node.ComponentID); ok {
				for k := range c.Assignments {
					assigned[k] = true
				}
			}
		}
		queue = append(queue, n.Successors()...)
	}
	return assigned
}

// Coverage computes per-group coverage in catalogue order.
func Coverage(g *domain.Graph, params *schema.Parameters) []GroupCoverage {
	assigned := ReachableAssignments(g)
	var out []GroupCoverage
	for _, group := range params.Groups() {
		gc := GroupCoverage{Group: group.Name}
		for _, name := range group.Parameters {
			if p, _ := params.Lookup(name); p.Direct {
				continue
			}
			if assigned[name] {
				gc.Covered = append(gc.Covered, name)
			} else {
				gc.Missing = append(gc.Missing, name)
			}
		}
		if len(gc.Covered)+len(gc.Missing) > 0 {
			out = append(out, gc)
		}
	}
	return out
}

// GenerateReport renders a Markdown document describing the graph: summary,
// diagram, node inventory, components, parameter coverage, validation
// findings and, when fields is not nil, the input fields.
func GenerateReport(g *domain.Graph, findings domain.Findings, params *schema.Parameters, fields *schema.FieldSet) string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteString("\n")
	}

	line("# Decision Graph Report")
	line("")
	if g.Description() != "" {
		line("> %s", g.Description())
		line("")
	}

	var conditions, assignments, refs int
	for _, n := range g.Nodes() {
		switch n.NodeType() {
		case domain.NodeTypeCondition:
			conditions++
		case domain.NodeTypeAssignment:
			assignments++
		case domain.NodeTypeComponentRef:
			refs++
		}
	}
	entries := make([]string, 0, len(g.Entries()))
	for _, e := range g.Entries() {
		entries = append(entries, "`"+e+"`")
	}

	line("## Summary")
	line("")
	line("- **Components**: %d", len(g.Components()))
	line("- **Nodes**: %d", g.NodeCount())
	line("  - Condition: %d, Assignment: %d, ComponentRef: %d", conditions, assignments, refs)
	line("- **Entry points**: %d (%s)", len(entries), strings.Join(entries, ", "))
	line("")

	line("## Graph")
	line("")
	line("```mermaid")
	sb.WriteString(GenerateMermaid(g, nil))
	line("```")
	line("")

	line("## Node Inventory")
	line("")
	line("| ID | Type | Description | Entry? |")
	line("|---|---|---|---|")
	for _, n := range g.Nodes() {
		entry := ""
		if g.IsEntry(n.NodeID()) {
			entry = "yes"
		}
		line("| `%s` | %s | %s | %s |", n.NodeID(), n.NodeType(), cell(truncate(n.NodeDescription(), 60)), entry)
	}
	line("")

	line("## Components")
	line("")
	line("| ID | Name | Fields | Description |")
	line("|---|---|---|---|")
	for _, c := range g.Components() {
		keys := sortedKeys(c.Assignments)
		for i, k := range keys {
			keys[i] = "`" + k + "`"
		}
		line("| `%s` | %s | %s | %s |", c.ID, cell(c.Name), strings.Join(keys, ", "), cell(truncate(c.Description, 80)))
	}
	line("")

	line("### Component Details")
	line("")
	for _, c := range g.Components() {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		line("#### %s (`%s`)", name, c.ID)
		line("")
		if c.Description != "" {
			line("%s", c.Description)
			line("")
		}
		for _, k := range sortedKeys(c.Assignments) {
			line("- `%s` = `%s`", k, plain(c.Assignments[k]))
		}
		line("")
	}

	if params != nil {
		line("## Parameter Coverage")
		line("")
		for _, gc := range Coverage(g, params) {
			total := len(gc.Covered) + len(gc.Missing)
			line("- **%s**: %d/%d (%s)", gc.Group, len(gc.Covered), total, gc.Status())
			if gc.Status() == CoveragePartial {
				missing := make([]string, len(gc.Missing))
				for i, m := range gc.Missing {
					missing[i] = "`" + m + "`"
				}
				line("  - Missing: %s", strings.Join(missing, ", "))
			}
		}
		line("")
	}

	line("## Validation")
	line("")
	if len(findings) == 0 {
		line("All structural validation checks passed.")
	} else {
		line("Found **%d** error(s) and **%d** warning(s):", len(findings.Errors()), len(findings.Warnings()))
		line("")
		for _, f := range findings {
			line("- [%s] %s", f.Kind, f.Message)
		}
	}
	line("")

	if fields != nil {
		line("## User Fields")
		line("")
		for _, f := range fields.Fields {
			line("- **%s** (%s): %s", f.Name, f.Type, f.Description)
			if f.DataQuality != "" {
				line("  - Data quality: %s", f.DataQuality)
			}
		}
		line("")
	}

	return sb.String()
}

func cell(text string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(text)
}

func sortedKeys(a domain.Assignments) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
