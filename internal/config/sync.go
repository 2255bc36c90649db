package config

import "time"

// SyncConfig holds scheduled synchronization configuration
type SyncConfig struct {
	Interval time.Duration
	// OnStart fires every scheduled job once when the service starts.
	OnStart bool
}
