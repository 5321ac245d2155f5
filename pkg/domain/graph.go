package domain

// Graph is the immutable decision graph: components, nodes and entry ids.
// Nodes and components are addressed by id only; cross references are never
// pointers, so a cycle is a property of the data and nothing more.
type Graph struct {
	description string
	nodes       []Node
	components  []Component
	entries     []string

	nodeIndex      map[string]Node
	componentIndex map[string]*Component

	duplicateNodes      []string
	duplicateComponents []string
}

// NewGraph indexes the given nodes and components. The first declaration of
// an id wins the index; later duplicates are kept for the validator to
// report. Nodes, components and their contents are copied so callers can
// not mutate the graph afterwards.
func NewGraph(description string, components []Component, nodes []Node, entries []string) *Graph {
	g := &Graph{
		description:    description,
		nodes:          make([]Node, 0, len(nodes)),
		components:     make([]Component, len(components)),
		entries:        append([]string(nil), entries...),
		nodeIndex:      make(map[string]Node, len(nodes)),
		componentIndex: make(map[string]*Component, len(components)),
	}

	for i, c := range components {
		g.components[i] = c.clone()
	}
	for i := range g.components {
		c := &g.components[i]
		if _, exists := g.componentIndex[c.ID]; exists {
			g.duplicateComponents = append(g.duplicateComponents, c.ID)
			continue
		}
		g.componentIndex[c.ID] = c
	}

	for _, n := range nodes {
		if n != nil {
			g.nodes = append(g.nodes, cloneNode(n))
		}
	}
	for _, n := range g.nodes {
		if _, exists := g.nodeIndex[n.NodeID()]; exists {
			g.duplicateNodes = append(g.duplicateNodes, n.NodeID())
			continue
		}
		g.nodeIndex[n.NodeID()] = n
	}

	return g
}

func (g *Graph) Description() string { return g.description }

// Node looks up a node by id. The node is shared with the graph and must be
// treated as read-only.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodeIndex[id]
	return n, ok
}

// Component looks up a component by id.
func (g *Graph) Component(id string) (Component, bool) {
	c, ok := g.componentIndex[id]
	if !ok {
		return Component{}, false
	}
	return c.clone(), true
}

// Nodes returns copies of the nodes in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = cloneNode(n)
	}
	return out
}

// Components returns copies of the components in declaration order.
func (g *Graph) Components() []Component {
	out := make([]Component, len(g.components))
	for i, c := range g.components {
		out[i] = c.clone()
	}
	return out
}

// Entries returns the entry node ids in declaration order.
func (g *Graph) Entries() []string { return append([]string(nil), g.entries...) }

// NodeCount is the number of declared nodes, duplicates included.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// DuplicateNodeIDs lists node ids declared more than once.
func (g *Graph) DuplicateNodeIDs() []string { return append([]string(nil), g.duplicateNodes...) }

// DuplicateComponentIDs lists component ids declared more than once.
func (g *Graph) DuplicateComponentIDs() []string {
	return append([]string(nil), g.duplicateComponents...)
}

// IsEntry reports whether id is one of the entry nodes.
func (g *Graph) IsEntry(id string) bool {
	for _, e := range g.entries {
		if e == id {
			return true
		}
	}
	return false
}

func (c Component) clone() Component {
	c.Assignments = c.Assignments.Clone()
	return c
}

func cloneNode(n Node) Node {
	switch n := n.(type) {
	case *ConditionNode:
		cp := *n
		cp.Branches = append([]Branch(nil), n.Branches...)
		return &cp
	case *AssignmentNode:
		cp := *n
		if n.Assignments != nil {
			cp.Assignments = n.Assignments.Clone()
		}
		cp.Next = append([]string(nil), n.Next...)
		return &cp
	case *ComponentRefNode:
		cp := *n
		cp.Next = append([]string(nil), n.Next...)
		return &cp
	}
	return n
}
