package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncStatus_Clone(t *testing.T) {
	last := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := SyncStatus{LastSync: &last, Errors: []string{"Doc 1: boom"}, DocumentsProcessed: 3}

	clone := orig.Clone()
	clone.Errors[0] = "changed"
	*clone.LastSync = last.Add(time.Hour)

	assert.Equal(t, "Doc 1: boom", orig.Errors[0])
	assert.Equal(t, last, *orig.LastSync)
	assert.Equal(t, 3, clone.DocumentsProcessed)

	empty := SyncStatus{}.Clone()
	assert.Nil(t, empty.LastSync)
	assert.Nil(t, empty.Errors)
}

func TestSyncStatus_RunFailure(t *testing.T) {
	t.Run("document errors only", func(t *testing.T) {
		s := SyncStatus{Errors: []string{"Doc 3: timeout"}}
		_, failed := s.RunFailure()
		assert.False(t, failed)
	})

	t.Run("run failure", func(t *testing.T) {
		s := SyncStatus{Errors: []string{"Doc 3: timeout", "Sync failed: list documents: refused"}}
		msg, failed := s.RunFailure()
		assert.True(t, failed)
		assert.Equal(t, "Sync failed: list documents: refused", msg)
	})
}
