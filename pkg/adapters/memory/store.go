package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	runs map[string]map[string]*domain.Outcome
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		runs: make(map[string]map[string]*domain.Outcome),
	}
}

// Save persists the outcome in memory.
func (s *Store) Save(ctx context.Context, outcome *domain.Outcome) error {
	// Deep copy to ensure isolation, similar to serialization
	cp := outcome.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[outcome.RunID]
	if !ok {
		run = make(map[string]*domain.Outcome)
		s.runs[outcome.RunID] = run
	}
	run[outcome.RecordID] = cp
	return nil
}

// Load retrieves the outcome from memory.
func (s *Store) Load(ctx context.Context, runID, recordID string) (*domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcome, ok := s.runs[runID][recordID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}

	// Copy on read so caller can't mutate store state directly by pointer
	return outcome.Clone(), nil
}

// Delete removes the outcome.
func (s *Store) Delete(ctx context.Context, runID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[runID]; ok {
		delete(run, recordID)
		if len(run) == 0 {
			delete(s.runs, runID)
		}
	}
	return nil
}

// List returns the record ids of a run, sorted.
func (s *Store) List(ctx context.Context, runID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs[runID]))
	for id := range s.runs[runID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
