package ingest

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// StatusManager keeps the last run of each collection in memory
type StatusManager struct {
	mu     sync.RWMutex
	status map[models.Collection]*models.SyncStatus
	now    func() time.Time
}

// NewStatusManager creates a new status manager
func NewStatusManager() *StatusManager {
	return &StatusManager{
		status: make(map[models.Collection]*models.SyncStatus),
		now:    time.Now,
	}
}

// Begin records the start of a run and returns its id
func (m *StatusManager) Begin(coll models.Collection, mode string) string {
	runID := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.status[coll]
	status := &models.SyncStatus{
		RunID:      runID,
		Collection: coll,
		Mode:       mode,
		Status:     models.SyncStateInProgress,
		IsSyncing:  true,
		StartTime:  m.now(),
	}
	if prev != nil {
		status.LastSyncAt = prev.LastSyncAt
	}
	m.status[coll] = status

	return runID
}

// Finish records the outcome of a run
func (m *StatusManager) Finish(coll models.Collection, runID string, fetched, inserted int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.status[coll]
	if !ok || status.RunID != runID {
		return
	}

	now := m.now()
	status.IsSyncing = false
	status.Fetched = fetched
	status.SyncDuration = now.Sub(status.StartTime).Milliseconds()
	if err != nil {
		status.Status = models.SyncStateFailed
		status.LastError = err.Error()
		return
	}
	status.Status = models.SyncStateCompleted
	status.Inserted = inserted
	status.LastSyncAt = now
	status.LastError = ""
}

// Get returns a copy of the collection's status
func (m *StatusManager) Get(coll models.Collection) (*models.SyncStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.status[coll]
	if !ok {
		return nil, false
	}
	cp := *status
	return &cp, true
}

// List returns copies of every known status ordered by collection
func (m *StatusManager) List() []*models.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]*models.SyncStatus, 0, len(m.status))
	for _, status := range m.status {
		cp := *status
		statuses = append(statuses, &cp)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Collection < statuses[j].Collection
	})
	return statuses
}
