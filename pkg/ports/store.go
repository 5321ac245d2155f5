package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// ResultStore defines the interface for persisting sweep outcomes, keyed by
// run id and record id.
type ResultStore interface {
	// Save persists the outcome of one record.
	Save(ctx context.Context, outcome *domain.Outcome) error

	// Load retrieves an outcome.
	// Returns domain.ErrResultNotFound if it does not exist.
	Load(ctx context.Context, runID, recordID string) (*domain.Outcome, error)

	// Delete removes an outcome. Deleting a missing outcome is not an error.
	Delete(ctx context.Context, runID, recordID string) error

	// List returns the record ids stored for a run, sorted.
	List(ctx context.Context, runID string) ([]string, error)
}
