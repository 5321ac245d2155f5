package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
)

// Builder manages the graph construction. Nodes and components keep their
// declaration order.
type Builder struct {
	description string
	entries     []string

	order      []string
	nodes      map[string]nodeBuilder
	components []*ComponentBuilder
	byID       map[string]*ComponentBuilder

	errs []error
}

type nodeBuilder interface {
	build() domain.Node
	kind() string
}

// New creates a new graph builder.
func New(description string) *Builder {
	return &Builder{
		description: description,
		nodes:       make(map[string]nodeBuilder),
		byID:        make(map[string]*ComponentBuilder),
	}
}

// Entry marks nodes as entries. Without it, the first declared node is the
// only entry.
func (b *Builder) Entry(ids ...string) *Builder {
	b.entries = append(b.entries, ids...)
	return b
}

// Component declares a shared component. Declaring the same id again returns
// the existing builder.
func (b *Builder) Component(id string) *ComponentBuilder {
	if cb, ok := b.byID[id]; ok {
		return cb
	}
	cb := &ComponentBuilder{builder: b, component: domain.Component{ID: id, Assignments: domain.Assignments{}}}
	b.byID[id] = cb
	b.components = append(b.components, cb)
	return cb
}

// Condition declares a condition node.
func (b *Builder) Condition(id string) *ConditionBuilder {
	if nb, ok := lookup[*ConditionBuilder](b, id, domain.NodeTypeCondition); ok {
		return nb
	}
	nb := &ConditionBuilder{builder: b, node: domain.ConditionNode{ID: id}}
	b.add(id, nb)
	return nb
}

// Assign declares an assignment node.
func (b *Builder) Assign(id string) *AssignmentBuilder {
	if nb, ok := lookup[*AssignmentBuilder](b, id, domain.NodeTypeAssignment); ok {
		return nb
	}
	nb := &AssignmentBuilder{builder: b, node: domain.AssignmentNode{ID: id, Assignments: domain.Assignments{}}}
	b.add(id, nb)
	return nb
}

// Ref declares a component reference node.
func (b *Builder) Ref(id, componentID string) *RefBuilder {
	if nb, ok := lookup[*RefBuilder](b, id, domain.NodeTypeComponentRef); ok {
		nb.node.ComponentID = componentID
		return nb
	}
	nb := &RefBuilder{builder: b, node: domain.ComponentRefNode{ID: id, ComponentID: componentID}}
	b.add(id, nb)
	return nb
}

func lookup[T nodeBuilder](b *Builder, id string, kind string) (T, bool) {
	var zero T
	existing, ok := b.nodes[id]
	if !ok {
		return zero, false
	}
	if nb, ok := existing.(T); ok {
		return nb, true
	}
	b.errs = append(b.errs, fmt.Errorf("node %q declared as %s and %s", id, existing.kind(), kind))
	return zero, false
}

func (b *Builder) add(id string, nb nodeBuilder) {
	if _, exists := b.nodes[id]; !exists {
		b.order = append(b.order, id)
	}
	b.nodes[id] = nb
}

func (b *Builder) errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// Build returns the graph. It fails on builder misuse (empty ids, bad
// literal values, conflicting declarations); graph-level problems such as
// dangling references are left to the validator.
func (b *Builder) Build() (*domain.Graph, error) {
	errs := append([]error(nil), b.errs...)

	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		if id == "" {
			errs = append(errs, errors.New("node without id"))
			continue
		}
		nodes = append(nodes, b.nodes[id].build())
	}
	components := make([]domain.Component, 0, len(b.components))
	for _, cb := range b.components {
		if cb.component.ID == "" {
			errs = append(errs, errors.New("component without id"))
			continue
		}
		c := cb.component
		c.Assignments = c.Assignments.Clone()
		components = append(components, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid graph definition: %w", err)
	}

	entries := b.entries
	if len(entries) == 0 && len(nodes) > 0 {
		entries = []string{nodes[0].NodeID()}
	}
	return domain.NewGraph(b.description, components, nodes, entries), nil
}

// Loader builds the graph and wraps it in a memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.New(g), nil
}
