package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore
// implementation adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	outcome := func(recordID string) *domain.Outcome {
		return &domain.Outcome{
			RunID:    runID,
			RecordID: recordID,
			Result: &domain.Result{
				Assignments: domain.Assignments{"EquipmentBase": domain.Number(0.3)},
				Trace:       domain.Trace{Visited: []string{"root", "sf"}},
			},
			Resolved:  domain.Assignments{"HeatingFuel": domain.String("NaturalGas"), "NFloors": domain.Int(2)},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		original := outcome("rec-1")
		require.NoError(t, store.Save(ctx, original), "Save should not return error")

		loaded, err := store.Load(ctx, runID, "rec-1")
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, original.RecordID, loaded.RecordID)
		require.NotNil(t, loaded.Result)
		assert.Equal(t, []string{"root", "sf"}, loaded.Result.Trace.Visited)
		assert.True(t, domain.Number(0.3).Equal(loaded.Result.Assignments["EquipmentBase"]))
		// JSON stores have no integer kind; numeric equality covers it.
		assert.True(t, domain.Int(2).Equal(loaded.Resolved["NFloors"]))
		assert.True(t, original.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, runID, "missing")
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, outcome("rec-del")))
		require.NoError(t, store.Delete(ctx, runID, "rec-del"), "Delete should not return error")

		_, err := store.Load(ctx, runID, "rec-del")
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")

		assert.NoError(t, store.Delete(ctx, runID, "never-saved"))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, outcome("rec-b")))
		require.NoError(t, store.Save(ctx, outcome("rec-a")))
		defer func() {
			_ = store.Delete(ctx, runID, "rec-a")
			_ = store.Delete(ctx, runID, "rec-b")
		}()

		ids, err := store.List(ctx, runID)
		require.NoError(t, err)
		assert.Contains(t, ids, "rec-a")
		assert.Contains(t, ids, "rec-b")
		assert.IsIncreasing(t, ids, "ids are sorted")

		other, err := store.List(ctx, runID+"-other")
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}
