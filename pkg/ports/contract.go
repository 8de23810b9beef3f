package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := domain.NewRunRecord(runID, "/work/workflow.json")
		rec.RunDir = "/work/run"
		rec.Steps = []domain.StepRecord{{
			Index:      0,
			Measure:    "AddOverhangs",
			Kind:       domain.KindModel,
			Applicable: true,
			Attributes: map[string]any{"length": 20.0},
		}}
		rec.Results = map[string]any{"AddOverhangs": map[string]any{"length": 20.0}}
		rec.Finish(nil)

		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, domain.RunCompleted, loaded.Status)
		assert.Equal(t, "/work/run", loaded.RunDir)
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, "AddOverhangs", loaded.Steps[0].Measure)
		assert.Equal(t, 20.0, loaded.Steps[0].Attributes["length"])
		assert.NotNil(t, loaded.CompletedAt)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		rec := domain.NewRunRecord(runID, "/work/workflow.json")
		require.NoError(t, store.Save(ctx, rec))
		rec.Status = domain.RunFailed
		rec.Error = "boom"
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, loaded.Status)
		assert.Equal(t, "boom", loaded.Error)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(runID, "/work/workflow.json")))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
		assert.NoError(t, store.Delete(ctx, runID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id1, "a.json")))
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id2, "b.json")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
