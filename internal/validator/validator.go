package validator

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// DefaultPathBudget bounds the number of entry-to-terminal paths the
// coverage analysis enumerates.
const DefaultPathBudget = 10000

type config struct {
	coverage   bool
	direct     []string
	pathBudget int
	logger     *slog.Logger
}

// Option configures a validation pass.
type Option func(*config)

// WithoutCoverage disables the coverage analysis.
func WithoutCoverage() Option {
	return func(c *config) { c.coverage = false }
}

// WithDirectParameters excludes caller-supplied parameters from coverage,
// in addition to those the schema marks as direct.
func WithDirectParameters(names ...string) Option {
	return func(c *config) { c.direct = append(c.direct, names...) }
}

// WithPathBudget overrides DefaultPathBudget. Non-positive values are ignored.
func WithPathBudget(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pathBudget = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{coverage: true, pathBudget: DefaultPathBudget, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks a graph against the input field schema and the output
// parameter schema and returns every finding at once.
//
// Structural checks cover duplicate ids, dangling references and cycles.
// Conditions must reference known fields with well-formed operands, and
// assignments must target known parameters with valid values. Coverage runs
// last and only when no structural error was found. A nil fields or params
// skips the checks that depend on it.
func Validate(g *domain.Graph, fields ports.FieldSchema, params ports.ParameterSchema, opts ...Option) domain.Findings {
	cfg := newConfig(opts)
	if g == nil {
		return domain.Findings{{Kind: domain.KindStructural, Message: "graph is nil"}}
	}

	var fs domain.Findings
	fs = append(fs, checkDuplicates(g)...)
	fs = append(fs, checkReferences(g)...)
	fs = append(fs, checkCycles(g)...)
	fs = append(fs, checkConditions(g, fields)...)
	if params != nil {
		fs = append(fs, checkAssignments(g, params)...)
	}

	structural := len(fs.OfKind(domain.KindStructural)) > 0
	if cfg.coverage && params != nil && !structural {
		fs = append(fs, coverage(g, params, cfg)...)
	}

	cfg.logger.Debug("graph validated",
		"nodes", g.NodeCount(),
		"errors", len(fs.Errors()),
		"warnings", len(fs.Warnings()))
	return fs
}

func checkDuplicates(g *domain.Graph) domain.Findings {
	var fs domain.Findings
	for _, id := range g.DuplicateNodeIDs() {
		fs = append(fs, domain.Finding{
			Kind:    domain.KindStructural,
			NodeID:  id,
			Message: fmt.Sprintf("node id %q is declared more than once", id),
		})
	}
	for _, id := range g.DuplicateComponentIDs() {
		fs = append(fs, domain.Finding{
			Kind:    domain.KindStructural,
			Ref:     id,
			Message: fmt.Sprintf("component id %q is declared more than once", id),
		})
	}
	return fs
}

// refChecker reports ids that do not resolve in the graph.
type refChecker struct {
	graph    *domain.Graph
	findings domain.Findings
}

func (r *refChecker) missing(nodeID, ref, format string, args ...any) {
	r.findings = append(r.findings, domain.Finding{
		Kind:    domain.KindStructural,
		NodeID:  nodeID,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *refChecker) checkNext(n domain.Node, next []string) {
	for _, id := range next {
		if _, ok := r.graph.Node(id); !ok {
			r.missing(n.NodeID(), id, "%s node %q: next node %q does not exist", n.NodeType(), n.NodeID(), id)
		}
	}
}

func (r *refChecker) VisitCondition(n *domain.ConditionNode) {
	for _, b := range n.Branches {
		if _, ok := r.graph.Node(b.Target); !ok {
			r.missing(n.ID, b.Target, "condition node %q: branch target %q does not exist", n.ID, b.Target)
		}
	}
	if n.Default != "" {
		if _, ok := r.graph.Node(n.Default); !ok {
			r.missing(n.ID, n.Default, "condition node %q: default target %q does not exist", n.ID, n.Default)
		}
	}
}

func (r *refChecker) VisitAssignment(n *domain.AssignmentNode) {
	r.checkNext(n, n.Next)
}

func (r *refChecker) VisitComponentRef(n *domain.ComponentRefNode) {
	if _, ok := r.graph.Component(n.ComponentID); !ok {
		r.missing(n.ID, n.ComponentID, "component_ref node %q: references unknown component %q", n.ID, n.ComponentID)
	}
	r.checkNext(n, n.Next)
}

func checkReferences(g *domain.Graph) domain.Findings {
	r := &refChecker{graph: g}
	entries := g.Entries()
	if len(entries) == 0 {
		r.missing("", "", "graph has no entry nodes")
	}
	for _, id := range entries {
		if _, ok := g.Node(id); !ok {
			r.missing("", id, "entry node %q does not exist", id)
		}
	}
	for _, n := range g.Nodes() {
		n.Accept(r)
	}
	return r.findings
}

// checkCycles runs an iterative depth-first search with an explicit stack,
// starting from each node in declaration order. Every back edge closes one
// cycle, reported with the node sequence from the re-entered node onwards.
func checkCycles(g *domain.Graph) domain.Findings {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	seen := make(map[string]bool)

	type frame struct {
		id   string
		succ []string
		next int
	}

	var fs domain.Findings
	for _, root := range g.Nodes() {
		if color[root.NodeID()] != white {
			continue
		}
		stack := []*frame{{id: root.NodeID(), succ: root.Successors()}}
		color[root.NodeID()] = grey

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next >= len(top.succ) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			id := top.succ[top.next]
			top.next++

			n, ok := g.Node(id)
			if !ok {
				continue
			}
			switch color[id] {
			case white:
				color[id] = grey
				stack = append(stack, &frame{id: id, succ: n.Successors()})
			case grey:
				var path []string
				for i := range stack {
					if stack[i].id == id {
						for _, f := range stack[i:] {
							path = append(path, f.id)
						}
						break
					}
				}
				key := canonicalCycle(path)
				if seen[key] {
					continue
				}
				seen[key] = true
				fs = append(fs, domain.Finding{
					Kind:    domain.KindStructural,
					NodeID:  path[0],
					Path:    path,
					Message: fmt.Sprintf("cycle detected: %s -> %s", strings.Join(path, " -> "), path[0]),
				})
			}
		}
	}
	return fs
}

// canonicalCycle rotates a cycle to start at its smallest id.
func canonicalCycle(path []string) string {
	min := 0
	for i := range path {
		if path[i] < path[min] {
			min = i
		}
	}
	rotated := append(append([]string(nil), path[min:]...), path[:min]...)
	return strings.Join(rotated, "\x00")
}

func checkConditions(g *domain.Graph, fields ports.FieldSchema) domain.Findings {
	var fs domain.Findings
	for _, n := range g.Nodes() {
		c, ok := n.(*domain.ConditionNode)
		if !ok {
			continue
		}
		for i, b := range c.Branches {
			cond := b.Condition
			if fields != nil {
				if _, known := fields.Lookup(cond.Field); !known {
					fs = append(fs, domain.Finding{
						Kind:    domain.KindFieldReference,
						NodeID:  c.ID,
						Ref:     cond.Field,
						Message: fmt.Sprintf("condition node %q: references unknown field %q", c.ID, cond.Field),
					})
				}
			}
			if msg := operandProblem(cond); msg != "" {
				fs = append(fs, domain.Finding{
					Kind:    domain.KindSchema,
					NodeID:  c.ID,
					Ref:     cond.Field,
					Message: fmt.Sprintf("condition node %q: branch %d (%s): %s", c.ID, i, cond, msg),
				})
			}
		}
	}
	return fs
}

// operandProblem reports conditions the evaluator would silently resolve
// false on every record.
func operandProblem(cond domain.FieldCondition) string {
	op := cond.Operator
	switch {
	case !op.Known():
		return fmt.Sprintf("unknown operator %q", op)
	case !op.NeedsOperand():
		return ""
	case cond.Value.IsNull():
		return fmt.Sprintf("operator %s requires an operand", op)
	case (op == domain.OpIn || op == domain.OpNotIn) && cond.Value.Kind() != domain.KindList:
		return fmt.Sprintf("operator %s requires a list operand, got %s", op, cond.Value.Kind())
	case op.Numeric() && cond.Value.Kind() != domain.KindNumber:
		return fmt.Sprintf("operator %s requires a numeric operand, got %s", op, cond.Value.Kind())
	}
	return ""
}

func checkAssignments(g *domain.Graph, params ports.ParameterSchema) domain.Findings {
	var fs domain.Findings
	check := func(owner, nodeID string, assignments domain.Assignments) {
		keys := make([]string, 0, len(assignments))
		for k := range assignments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p, ok := params.Lookup(k)
			if !ok {
				fs = append(fs, domain.Finding{
					Kind:    domain.KindSchema,
					NodeID:  nodeID,
					Ref:     k,
					Message: fmt.Sprintf("%s: unknown parameter %q", owner, k),
				})
				continue
			}
			if err := p.Validate(assignments[k]); err != nil {
				fs = append(fs, domain.Finding{
					Kind:    domain.KindSchema,
					NodeID:  nodeID,
					Ref:     k,
					Message: fmt.Sprintf("%s: %v", owner, err),
				})
			}
		}
	}

	for _, c := range g.Components() {
		check(fmt.Sprintf("component %q", c.ID), "", c.Assignments)
	}
	for _, n := range g.Nodes() {
		if a, ok := n.(*domain.AssignmentNode); ok {
			check(fmt.Sprintf("assignment node %q", a.ID), a.ID, a.Assignments)
		}
	}
	return fs
}
