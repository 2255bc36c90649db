package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sync modes
const (
	SyncModeDelta = "delta"
	SyncModeFull  = "full"
)

// Sync states
const (
	SyncStateInProgress = "in_progress"
	SyncStateCompleted  = "completed"
	SyncStateFailed     = "failed"
)

// SyncStatus tracks the last ingestion run of a collection
type SyncStatus struct {
	RunID        string     `json:"run_id"`
	Collection   Collection `json:"collection"`
	Mode         string     `json:"mode"`
	Status       string     `json:"status"`
	IsSyncing    bool       `json:"is_syncing"`
	Fetched      int        `json:"fetched"`
	Inserted     int        `json:"inserted"`
	StartTime    time.Time  `json:"start_time"`
	LastSyncAt   time.Time  `json:"last_sync_at,omitempty"`
	SyncDuration int64      `json:"sync_duration_ms"`
	LastError    string     `json:"last_error,omitempty"`
}

// String returns the JSON string representation of the sync status
func (s *SyncStatus) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync status: %v"}`, err)
	}
	return string(data)
}
