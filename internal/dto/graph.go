package dto

import (
	"fmt"
	"reflect"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Graph is the document form of a decision graph shared by the YAML/JSON
// loader, the HTTP API and the MCP tools.
type Graph struct {
	Description string      `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Entries     []string    `json:"entry_node_ids" yaml:"entry_node_ids" mapstructure:"entry_node_ids"`
	Components  []Component `json:"components,omitempty" yaml:"components,omitempty" mapstructure:"components"`
	Nodes       []Node      `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Component is the document form of domain.Component.
type Component struct {
	ID          string             `json:"id" yaml:"id" mapstructure:"id"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Assignments domain.Assignments `json:"assignments" yaml:"assignments" mapstructure:"assignments"`
}

// Node is the flattened document form of every node variant. Type selects
// which fields apply.
type Node struct {
	ID          string             `json:"id" yaml:"id" mapstructure:"id"`
	Type        string             `json:"type" yaml:"type" mapstructure:"type"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Branches    []Branch           `json:"branches,omitempty" yaml:"branches,omitempty" mapstructure:"branches"`
	Default     string             `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	Assignments domain.Assignments `json:"assignments,omitempty" yaml:"assignments,omitempty" mapstructure:"assignments"`
	ComponentID string             `json:"component_id,omitempty" yaml:"component_id,omitempty" mapstructure:"component_id"`
	Next        []string           `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
}

// Branch is the document form of domain.Branch.
type Branch struct {
	Condition domain.FieldCondition `json:"condition" yaml:"condition" mapstructure:"condition"`
	Target    string                `json:"target" yaml:"target" mapstructure:"target"`
}

var valueType = reflect.TypeOf(domain.Value{})

// valueHook converts decoded document data into domain.Value wherever the
// target field is a Value.
func valueHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != valueType || from == valueType {
		return data, nil
	}
	return domain.FromAny(data)
}

// Decode converts generic document data (from YAML, JSON or frontmatter)
// into out. Unknown keys are rejected so typos surface at load time.
func Decode(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  valueHook,
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DecodeGraph converts generic document data into a graph document.
func DecodeGraph(raw map[string]any) (*Graph, error) {
	var doc Graph
	if err := Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return &doc, nil
}

// ToDomain converts a node document into its domain variant.
func (n Node) ToDomain() (domain.Node, error) {
	if n.ID == "" {
		return nil, fmt.Errorf("node without id")
	}
	switch n.Type {
	case domain.NodeTypeCondition:
		branches := make([]domain.Branch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = domain.Branch{Condition: b.Condition, Target: b.Target}
		}
		return &domain.ConditionNode{ID: n.ID, Description: n.Description, Branches: branches, Default: n.Default}, nil
	case domain.NodeTypeAssignment:
		return &domain.AssignmentNode{ID: n.ID, Description: n.Description, Assignments: n.Assignments, Next: n.Next}, nil
	case domain.NodeTypeComponentRef:
		return &domain.ComponentRefNode{ID: n.ID, Description: n.Description, ComponentID: n.ComponentID, Next: n.Next}, nil
	default:
		return nil, fmt.Errorf("node %q: unknown type %q", n.ID, n.Type)
	}
}

// ToDomain builds the domain graph. Only undecodable nodes fail here;
// reference problems are left to the validator.
func (d *Graph) ToDomain() (*domain.Graph, error) {
	nodes := make([]domain.Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		dn, err := n.ToDomain()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, dn)
	}
	components := make([]domain.Component, len(d.Components))
	for i, c := range d.Components {
		components[i] = domain.Component{ID: c.ID, Name: c.Name, Description: c.Description, Assignments: c.Assignments}
	}
	return domain.NewGraph(d.Description, components, nodes, d.Entries), nil
}

// nodeWriter renders domain nodes into documents.
type nodeWriter struct {
	out Node
}

func (w *nodeWriter) VisitCondition(n *domain.ConditionNode) {
	w.out = Node{ID: n.ID, Type: domain.NodeTypeCondition, Description: n.Description, Default: n.Default}
	for _, b := range n.Branches {
		w.out.Branches = append(w.out.Branches, Branch{Condition: b.Condition, Target: b.Target})
	}
}

func (w *nodeWriter) VisitAssignment(n *domain.AssignmentNode) {
	w.out = Node{ID: n.ID, Type: domain.NodeTypeAssignment, Description: n.Description, Assignments: n.Assignments, Next: n.Next}
}

func (w *nodeWriter) VisitComponentRef(n *domain.ComponentRefNode) {
	w.out = Node{ID: n.ID, Type: domain.NodeTypeComponentRef, Description: n.Description, ComponentID: n.ComponentID, Next: n.Next}
}

// FromDomain renders a graph as a document, keeping declaration order.
func FromDomain(g *domain.Graph) *Graph {
	doc := &Graph{Description: g.Description(), Entries: g.Entries()}
	for _, c := range g.Components() {
		doc.Components = append(doc.Components, Component{ID: c.ID, Name: c.Name, Description: c.Description, Assignments: c.Assignments})
	}
	for _, n := range g.Nodes() {
		w := &nodeWriter{}
		n.Accept(w)
		doc.Nodes = append(doc.Nodes, w.out)
	}
	return doc
}
