package runtime

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Executor runs a decision graph against records. It holds no per-record
// state and is safe for concurrent use on a shared graph.
type Executor struct {
	params ports.ParameterSchema
	direct map[string]bool
	hooks  domain.ExecutionHooks
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithHooks registers traversal observers.
func WithHooks(hooks domain.ExecutionHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDirectParameters excludes parameters supplied outside the graph from
// the unresolved list, in addition to those the schema marks as direct.
func WithDirectParameters(names ...string) Option {
	return func(e *Executor) {
		for _, n := range names {
			e.direct[n] = true
		}
	}
}

// NewExecutor creates an executor. params may be nil, in which case the
// trace never reports unresolved parameters.
func NewExecutor(params ports.ParameterSchema, opts ...Option) *Executor {
	e := &Executor{
		params: params,
		direct: make(map[string]bool),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if params != nil {
		for _, n := range params.Direct() {
			e.direct[n] = true
		}
	}
	return e
}

// Execute traverses the graph breadth-first from its entries and returns the
// accumulated assignments with their trace.
//
// Each node is visited at most once. A condition node follows its first
// matching branch, then its default, and otherwise ends that path. Assignment
// and component nodes merge their values and enqueue every successor; the
// later visited node wins on conflicting keys.
//
// A reference that does not resolve returns a *domain.StructuralError. That
// only happens for graphs that were not validated.
func (e *Executor) Execute(g *domain.Graph, rec domain.Record) (*domain.Result, error) {
	if g == nil {
		return nil, &domain.StructuralError{Msg: "graph is nil"}
	}

	run := &traversal{
		exec:     e,
		graph:    g,
		record:   rec,
		assigned: make(domain.Assignments),
		visited:  make(map[string]bool),
	}

	queue := g.Entries()
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if run.visited[id] {
			continue
		}

		node, ok := g.Node(id)
		if !ok {
			return nil, &domain.StructuralError{
				NodeID: run.from[id],
				Ref:    id,
				Msg:    fmt.Sprintf("node %q does not exist", id),
			}
		}
		run.visited[id] = true
		run.trace.Visited = append(run.trace.Visited, id)
		if e.hooks.OnNodeVisit != nil {
			e.hooks.OnNodeVisit(domain.NodeEvent{NodeID: id, NodeType: node.NodeType()})
		}

		node.Accept(run)
		if run.err != nil {
			return nil, run.err
		}
		for _, next := range run.next {
			if run.from == nil {
				run.from = make(map[string]string)
			}
			if _, seen := run.from[next]; !seen {
				run.from[next] = id
			}
			queue = append(queue, next)
		}
		run.next = nil
	}

	run.trace.Unresolved = e.unresolved(run.assigned)
	e.logger.Debug("record resolved",
		"visited", len(run.trace.Visited),
		"components", len(run.trace.AppliedComponents),
		"unresolved", len(run.trace.Unresolved),
		"notes", len(run.trace.Notes))

	return &domain.Result{
		Assignments: run.assigned,
		Trace:       run.trace,
	}, nil
}

func (e *Executor) unresolved(assigned domain.Assignments) []string {
	missing := []string{}
	if e.params == nil {
		return missing
	}
	for _, name := range e.params.Required() {
		if e.direct[name] {
			continue
		}
		if v, ok := assigned[name]; !ok || v.IsNull() {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// traversal is the per-call state of Execute. It visits one node at a time
// and leaves the successors to enqueue in next.
type traversal struct {
	exec     *Executor
	graph    *domain.Graph
	record   domain.Record
	assigned domain.Assignments
	visited  map[string]bool
	from     map[string]string
	trace    domain.Trace
	next     []string
	err      error
}

func (t *traversal) VisitCondition(n *domain.ConditionNode) {
	for _, b := range n.Branches {
		ok, nt := Evaluate(b.Condition, t.record)
		if nt != nil {
			nt.NodeID = n.ID
			t.trace.Notes = append(t.trace.Notes, *nt)
			if t.exec.hooks.OnEvaluationNote != nil {
				t.exec.hooks.OnEvaluationNote(*nt)
			}
			t.exec.logger.Debug("condition note", "node_id", n.ID, "field", nt.Field, "reason", nt.Message)
		}
		if ok {
			t.next = []string{b.Target}
			return
		}
	}
	if n.Default != "" {
		t.next = []string{n.Default}
	}
}

func (t *traversal) VisitAssignment(n *domain.AssignmentNode) {
	t.merge(n.Assignments)
	t.next = n.Successors()
}

func (t *traversal) VisitComponentRef(n *domain.ComponentRefNode) {
	c, ok := t.graph.Component(n.ComponentID)
	if !ok {
		t.err = &domain.StructuralError{
			NodeID: n.ID,
			Ref:    n.ComponentID,
			Msg:    fmt.Sprintf("references unknown component %q", n.ComponentID),
		}
		return
	}
	t.merge(c.Assignments)
	t.trace.AppliedComponents = append(t.trace.AppliedComponents, c.ID)
	if t.exec.hooks.OnComponentApplied != nil {
		t.exec.hooks.OnComponentApplied(domain.ComponentEvent{NodeID: n.ID, ComponentID: c.ID})
	}
	t.next = n.Successors()
}

func (t *traversal) merge(values domain.Assignments) {
	for k, v := range values {
		t.assigned[k] = v
	}
}
