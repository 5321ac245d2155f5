package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// GraphLoader defines how a decision graph is built from its source.
// This allows the storage layer (files, HCL, Loam, Memory) to be decoupled.
// Loaders only decode; validation is a separate step.
type GraphLoader interface {
	Load(ctx context.Context) (*domain.Graph, error)
}
