package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Loader implements ports.GraphLoader over an already built graph.
type Loader struct {
	graph *domain.Graph
}

// New creates a loader that always returns g.
func New(g *domain.Graph) *Loader {
	return &Loader{graph: g}
}

// NewFromNodes builds the graph from domain objects. The first node is the
// entry. This improves DX for tests and examples.
func NewFromNodes(components []domain.Component, nodes ...domain.Node) (*Loader, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("at least one node is required")
	}
	for _, n := range nodes {
		if n.NodeID() == "" {
			return nil, fmt.Errorf("node missing ID")
		}
	}
	return New(domain.NewGraph("", components, nodes, []string{nodes[0].NodeID()})), nil
}

// Load returns the graph.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	if l.graph == nil {
		return nil, fmt.Errorf("memory loader has no graph")
	}
	return l.graph, nil
}
