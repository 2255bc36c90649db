package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

func TestStatusManager(t *testing.T) {
	m := NewStatusManager()
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	_, ok := m.Get(models.CollectionAdverts)
	assert.False(t, ok)

	runID := m.Begin(models.CollectionAdverts, models.SyncModeDelta)
	status, ok := m.Get(models.CollectionAdverts)
	require.True(t, ok)
	assert.True(t, status.IsSyncing)
	assert.Equal(t, models.SyncStateInProgress, status.Status)

	clock = clock.Add(1500 * time.Millisecond)
	m.Finish(models.CollectionAdverts, runID, 10, 4, nil)

	status, _ = m.Get(models.CollectionAdverts)
	assert.Equal(t, models.SyncStateCompleted, status.Status)
	assert.Equal(t, int64(1500), status.SyncDuration)
	assert.Equal(t, clock, status.LastSyncAt)

	t.Run("stale run id is ignored", func(t *testing.T) {
		m.Finish(models.CollectionAdverts, "other-run", 0, 0, errors.New("late"))
		status, _ := m.Get(models.CollectionAdverts)
		assert.Equal(t, models.SyncStateCompleted, status.Status)
	})

	t.Run("returned status is a copy", func(t *testing.T) {
		status, _ := m.Get(models.CollectionAdverts)
		status.Status = "tampered"
		again, _ := m.Get(models.CollectionAdverts)
		assert.Equal(t, models.SyncStateCompleted, again.Status)
	})

	t.Run("list is ordered by collection", func(t *testing.T) {
		m.Begin(models.CollectionCategories, models.SyncModeFull)
		list := m.List()
		require.Len(t, list, 2)
		assert.Equal(t, models.CollectionAdverts, list[0].Collection)
		assert.Equal(t, models.CollectionCategories, list[1].Collection)
	})
}
