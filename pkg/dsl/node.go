package dsl

import (
	"github.com/aretw0/espalier/pkg/domain"
)

// ConditionBuilder provides a fluent API for configuring a condition node.
// Branches are evaluated in the order they are added.
type ConditionBuilder struct {
	node    domain.ConditionNode
	builder *Builder
}

// Describe sets the node description.
func (n *ConditionBuilder) Describe(text string) *ConditionBuilder {
	n.node.Description = text
	return n
}

// Branch adds a branch taken when field op value holds. value is ignored
// by operators without operand.
func (n *ConditionBuilder) Branch(field string, op domain.Operator, value any, target string) *ConditionBuilder {
	cond := domain.FieldCondition{Field: field, Operator: op}
	if op.NeedsOperand() {
		v, err := domain.FromAny(value)
		if err != nil {
			n.builder.errorf("node %q: branch on %s: %v", n.node.ID, field, err)
		}
		cond.Value = v
	}
	n.node.Branches = append(n.node.Branches, domain.Branch{Condition: cond, Target: target})
	return n
}

// Eq adds an equality branch.
func (n *ConditionBuilder) Eq(field string, value any, target string) *ConditionBuilder {
	return n.Branch(field, domain.OpEq, value, target)
}

// In adds a membership branch.
func (n *ConditionBuilder) In(field string, values []string, target string) *ConditionBuilder {
	return n.Branch(field, domain.OpIn, values, target)
}

// Missing adds a branch taken when the field is absent or null.
func (n *ConditionBuilder) Missing(field, target string) *ConditionBuilder {
	return n.Branch(field, domain.OpIsMissing, nil, target)
}

// Default sets the target used when no branch matches.
func (n *ConditionBuilder) Default(target string) *ConditionBuilder {
	n.node.Default = target
	return n
}

func (n *ConditionBuilder) build() domain.Node {
	cp := n.node
	cp.Branches = append([]domain.Branch(nil), n.node.Branches...)
	return &cp
}

func (n *ConditionBuilder) kind() string { return domain.NodeTypeCondition }

// AssignmentBuilder provides a fluent API for configuring an assignment node.
type AssignmentBuilder struct {
	node    domain.AssignmentNode
	builder *Builder
}

// Describe sets the node description.
func (n *AssignmentBuilder) Describe(text string) *AssignmentBuilder {
	n.node.Description = text
	return n
}

// Set assigns a literal to a parameter. Later calls overwrite earlier ones.
func (n *AssignmentBuilder) Set(param string, value any) *AssignmentBuilder {
	v, err := domain.FromAny(value)
	if err != nil {
		n.builder.errorf("node %q: parameter %s: %v", n.node.ID, param, err)
		return n
	}
	n.node.Assignments[param] = v
	return n
}

// Next adds successors.
func (n *AssignmentBuilder) Next(targets ...string) *AssignmentBuilder {
	n.node.Next = append(n.node.Next, targets...)
	return n
}

func (n *AssignmentBuilder) build() domain.Node {
	cp := n.node
	cp.Assignments = n.node.Assignments.Clone()
	cp.Next = append([]string(nil), n.node.Next...)
	return &cp
}

func (n *AssignmentBuilder) kind() string { return domain.NodeTypeAssignment }

// RefBuilder provides a fluent API for configuring a component reference node.
type RefBuilder struct {
	node    domain.ComponentRefNode
	builder *Builder
}

// Describe sets the node description.
func (n *RefBuilder) Describe(text string) *RefBuilder {
	n.node.Description = text
	return n
}

// Next adds successors.
func (n *RefBuilder) Next(targets ...string) *RefBuilder {
	n.node.Next = append(n.node.Next, targets...)
	return n
}

func (n *RefBuilder) build() domain.Node {
	cp := n.node
	cp.Next = append([]string(nil), n.node.Next...)
	return &cp
}

func (n *RefBuilder) kind() string { return domain.NodeTypeComponentRef }

// ComponentBuilder provides a fluent API for configuring a shared component.
type ComponentBuilder struct {
	component domain.Component
	builder   *Builder
}

// Name sets the display name.
func (c *ComponentBuilder) Name(name string) *ComponentBuilder {
	c.component.Name = name
	return c
}

// Describe sets the component description.
func (c *ComponentBuilder) Describe(text string) *ComponentBuilder {
	c.component.Description = text
	return c
}

// Set assigns a literal to a parameter.
func (c *ComponentBuilder) Set(param string, value any) *ComponentBuilder {
	v, err := domain.FromAny(value)
	if err != nil {
		c.builder.errorf("component %q: parameter %s: %v", c.component.ID, param, err)
		return c
	}
	c.component.Assignments[param] = v
	return c
}
