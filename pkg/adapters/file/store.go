package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.ResultStore using the local filesystem.
// Each outcome is a JSON file at <BasePath>/<runID>/<recordID>.json.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".espalier/results".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".espalier", "results")
	}
	return &Store{BasePath: basePath}
}

func checkKey(runID, recordID string) error {
	if runID == "" || recordID == "" {
		return fmt.Errorf("run id and record id cannot be empty")
	}
	for _, k := range []string{runID, recordID} {
		if strings.ContainsAny(k, `/\`) || k == "." || k == ".." {
			return fmt.Errorf("invalid key %q", k)
		}
	}
	return nil
}

func (s *Store) path(runID, recordID string) string {
	return filepath.Join(s.BasePath, runID, recordID+".json")
}

// Save persists the outcome to a JSON file atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, outcome *domain.Outcome) error {
	if err := checkKey(outcome.RunID, outcome.RecordID); err != nil {
		return err
	}

	dir := filepath.Join(s.BasePath, outcome.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(outcome.RunID, outcome.RecordID)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing outcome for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves an outcome from its JSON file.
func (s *Store) Load(ctx context.Context, runID, recordID string) (*domain.Outcome, error) {
	if err := checkKey(runID, recordID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(runID, recordID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to read outcome file: %w", err)
	}

	var outcome domain.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &outcome, nil
}

// Delete removes the outcome file.
func (s *Store) Delete(ctx context.Context, runID, recordID string) error {
	if err := checkKey(runID, recordID); err != nil {
		return err
	}
	err := os.Remove(s.path(runID, recordID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete outcome file: %w", err)
	}
	return nil
}

// List returns the record ids stored for a run, sorted.
func (s *Store) List(ctx context.Context, runID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.BasePath, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
