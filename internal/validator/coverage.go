package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Coverage enumerates every entry-to-terminal path and warns about paths
// that leave required parameters unassigned. It also warns about nodes no
// path reaches.
//
// Paths follow the executor: branches and the default of a condition node
// are alternatives, and a condition without a default may also match
// nothing and end the path. Successors of assignment and component nodes
// are all followed on the same path. Enumeration stops after the path
// budget and reports that the analysis is incomplete.
func Coverage(g *domain.Graph, params ports.ParameterSchema, opts ...Option) domain.Findings {
	if g == nil || params == nil {
		return nil
	}
	return coverage(g, params, newConfig(opts))
}

func coverage(g *domain.Graph, params ports.ParameterSchema, cfg *config) domain.Findings {
	direct := make(map[string]bool)
	for _, n := range params.Direct() {
		direct[n] = true
	}
	for _, n := range cfg.direct {
		direct[n] = true
	}
	var required []string
	for _, n := range params.Required() {
		if !direct[n] {
			required = append(required, n)
		}
	}
	sort.Strings(required)

	w := &walker{
		graph:    g,
		required: required,
		budget:   cfg.pathBudget,
		reached:  make(map[string]bool),
	}
	w.walk(pathState{
		queue:    g.Entries(),
		visited:  map[string]bool{},
		assigned: map[string]bool{},
	})

	fs := w.findings
	if w.exhausted {
		fs = append(fs, domain.Finding{
			Kind:    domain.KindCoverage,
			Message: fmt.Sprintf("path budget of %d exhausted, coverage analysis is incomplete", cfg.pathBudget),
		})
		return fs
	}
	for _, n := range g.Nodes() {
		if !w.reached[n.NodeID()] {
			fs = append(fs, domain.Finding{
				Kind:    domain.KindCoverage,
				NodeID:  n.NodeID(),
				Message: fmt.Sprintf("node %q is unreachable from the entry nodes", n.NodeID()),
			})
		}
	}
	cfg.logger.Debug("coverage analysed", "paths", w.paths, "warnings", len(fs))
	return fs
}

type pathState struct {
	queue    []string
	visited  map[string]bool
	assigned map[string]bool
	path     []string
}

func (s pathState) fork(next ...string) pathState {
	visited := make(map[string]bool, len(s.visited))
	for k := range s.visited {
		visited[k] = true
	}
	assigned := make(map[string]bool, len(s.assigned))
	for k := range s.assigned {
		assigned[k] = true
	}
	queue := make([]string, 0, len(s.queue)+len(next))
	queue = append(queue, s.queue...)
	queue = append(queue, next...)
	return pathState{
		queue:    queue,
		visited:  visited,
		assigned: assigned,
		path:     append([]string(nil), s.path...),
	}
}

type walker struct {
	graph     *domain.Graph
	required  []string
	budget    int
	paths     int
	exhausted bool
	reached   map[string]bool
	findings  domain.Findings
}

// walk advances one path until it forks at a condition node or its frontier
// is empty.
func (w *walker) walk(s pathState) {
	for len(s.queue) > 0 {
		if w.exhausted {
			return
		}
		id := s.queue[0]
		s.queue = s.queue[1:]
		if s.visited[id] {
			continue
		}
		n, ok := w.graph.Node(id)
		if !ok {
			continue
		}
		s.visited[id] = true
		s.path = append(s.path, id)
		w.reached[id] = true

		st := &step{graph: w.graph, state: &s}
		n.Accept(st)
		if st.forks != nil {
			for _, alt := range st.forks {
				if alt == "" {
					w.walk(s.fork())
				} else {
					w.walk(s.fork(alt))
				}
			}
			return
		}
	}
	w.finish(s)
}

// step applies one node to a path state. Condition nodes leave the state
// alone and report their alternatives in forks.
type step struct {
	graph *domain.Graph
	state *pathState
	forks []string
}

func (st *step) VisitCondition(n *domain.ConditionNode) {
	st.forks = alternatives(n)
}

func (st *step) VisitAssignment(n *domain.AssignmentNode) {
	for k := range n.Assignments {
		st.state.assigned[k] = true
	}
	st.state.queue = append(st.state.queue, n.Next...)
}

func (st *step) VisitComponentRef(n *domain.ComponentRefNode) {
	if c, ok := st.graph.Component(n.ComponentID); ok {
		for k := range c.Assignments {
			st.state.assigned[k] = true
		}
	}
	st.state.queue = append(st.state.queue, n.Next...)
}

// alternatives lists the distinct targets a condition node can route to in
// declaration order. An empty string stands for "no branch matched and
// there is no default".
func alternatives(n *domain.ConditionNode) []string {
	seen := map[string]bool{}
	var alts []string
	for _, b := range n.Branches {
		if !seen[b.Target] {
			seen[b.Target] = true
			alts = append(alts, b.Target)
		}
	}
	switch {
	case n.Default == "":
		alts = append(alts, "")
	case !seen[n.Default]:
		alts = append(alts, n.Default)
	}
	return alts
}

func (w *walker) finish(s pathState) {
	if w.paths >= w.budget {
		w.exhausted = true
		return
	}
	w.paths++

	var missing []string
	for _, name := range w.required {
		if !s.assigned[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return
	}
	var last string
	if len(s.path) > 0 {
		last = s.path[len(s.path)-1]
	}
	w.findings = append(w.findings, domain.Finding{
		Kind:    domain.KindCoverage,
		NodeID:  last,
		Path:    s.path,
		Missing: missing,
		Message: fmt.Sprintf("path %s leaves %d required parameters unassigned: %s",
			strings.Join(s.path, " -> "), len(missing), strings.Join(missing, ", ")),
	})
}
