package domain

// NodeType names the node variants in documents and reports.
const (
	NodeTypeCondition    = "condition"
	NodeTypeAssignment   = "assignment"
	NodeTypeComponentRef = "component_ref"
)

// Node is one of ConditionNode, AssignmentNode or ComponentRefNode.
// The set is closed: the unexported marker keeps other packages from adding
// variants, and NodeVisitor makes every consumer handle all of them.
type Node interface {
	NodeID() string
	NodeDescription() string
	NodeType() string
	// Successors returns every outgoing node id in declaration order.
	Successors() []string
	Accept(v NodeVisitor)
	sealed()
}

// NodeVisitor receives the concrete node variant.
type NodeVisitor interface {
	VisitCondition(n *ConditionNode)
	VisitAssignment(n *AssignmentNode)
	VisitComponentRef(n *ComponentRefNode)
}

// ConditionNode routes to the target of the first matching branch, or to
// Default when none match. An empty Default terminates the path.
//
// Branches may overlap. Declaration order is authoritative: when several
// branches match, the earliest one wins even if a later one is more
// specific, so authors must list narrow conditions first.
type ConditionNode struct {
	ID          string
	Description string
	Branches    []Branch
	Default     string
}

// AssignmentNode merges literal assignments then fans out to every successor.
type AssignmentNode struct {
	ID          string
	Description string
	Assignments Assignments
	Next        []string
}

// ComponentRefNode merges a shared Component then fans out to every successor.
type ComponentRefNode struct {
	ID          string
	Description string
	ComponentID string
	Next        []string
}

func (n *ConditionNode) NodeID() string          { return n.ID }
func (n *ConditionNode) NodeDescription() string { return n.Description }
func (n *ConditionNode) NodeType() string        { return NodeTypeCondition }
func (n *ConditionNode) Accept(v NodeVisitor)    { v.VisitCondition(n) }
func (n *ConditionNode) sealed()                 {}

func (n *ConditionNode) Successors() []string {
	out := make([]string, 0, len(n.Branches)+1)
	for _, b := range n.Branches {
		out = append(out, b.Target)
	}
	if n.Default != "" {
		out = append(out, n.Default)
	}
	return out
}

func (n *AssignmentNode) NodeID() string          { return n.ID }
func (n *AssignmentNode) NodeDescription() string { return n.Description }
func (n *AssignmentNode) NodeType() string        { return NodeTypeAssignment }
func (n *AssignmentNode) Accept(v NodeVisitor)    { v.VisitAssignment(n) }
func (n *AssignmentNode) sealed()                 {}

func (n *AssignmentNode) Successors() []string {
	return append([]string(nil), n.Next...)
}

func (n *ComponentRefNode) NodeID() string          { return n.ID }
func (n *ComponentRefNode) NodeDescription() string { return n.Description }
func (n *ComponentRefNode) NodeType() string        { return NodeTypeComponentRef }
func (n *ComponentRefNode) Accept(v NodeVisitor)    { v.VisitComponentRef(n) }
func (n *ComponentRefNode) sealed()                 {}

func (n *ComponentRefNode) Successors() []string {
	return append([]string(nil), n.Next...)
}

// Component is a reusable, named bundle of assignments.
type Component struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Assignments Assignments `json:"assignments" yaml:"assignments"`
}
