package domain

import (
	"strings"
	"time"
)

// SyncFailedPrefix marks the error recorded when a whole run fails, as
// opposed to a single document.
const SyncFailedPrefix = "Sync failed:"

// SyncStatus is the process-wide state of the sync pipeline.
type SyncStatus struct {
	// LastSync is nil until the first run finishes.
	LastSync *time.Time

	// DocumentsProcessed counts documents handled by the last run,
	// including unchanged ones.
	DocumentsProcessed int

	// ChunksTotal counts chunks embedded by the last run.
	ChunksTotal int

	// Errors accumulates messages from the current or last run.
	Errors []string

	// InProgress is true while a run is executing.
	InProgress bool
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s SyncStatus) Clone() SyncStatus {
	out := s
	if s.LastSync != nil {
		t := *s.LastSync
		out.LastSync = &t
	}
	if s.Errors != nil {
		out.Errors = append([]string(nil), s.Errors...)
	}
	return out
}

// RunFailure returns the run-level failure message, if any.
func (s SyncStatus) RunFailure() (string, bool) {
	for _, msg := range s.Errors {
		if strings.HasPrefix(msg, SyncFailedPrefix) {
			return msg, true
		}
	}
	return "", false
}

// StatusReport combines the sync status with collection statistics.
type StatusReport struct {
	Sync SyncStatus

	// Collections maps collection name to info; absent collections are omitted.
	Collections map[string]CollectionInfo
}
