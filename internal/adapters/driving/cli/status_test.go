package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func TestStatusCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.sync.report = domain.StatusReport{
		Sync: domain.SyncStatus{DocumentsProcessed: 5, ChunksTotal: 17},
		Collections: map[string]domain.CollectionInfo{
			domain.CollectionDocuments: {Status: "green", PointsCount: 22},
		},
	}

	out, err := execute("status")
	require.NoError(t, err)

	assert.Contains(t, out, "### Sync Status\n")
	assert.Contains(t, out, "Last sync: Never\n")
	assert.Contains(t, out, "Documents processed: 5\n")
	assert.Contains(t, out, "### Documents Collection\n  Status: green\n  Points: 22")
	assert.NotContains(t, out, "Messages Collection")
	assert.NotContains(t, out, "Recent Scheduled Runs")
}

func TestStatusCmd_RecentRuns(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ts.scheduler.runs = []domain.TaskResult{
		{TaskID: domain.TaskIDDocumentSync, StartedAt: start, EndedAt: start.Add(3 * time.Second), Success: true, ItemsProcessed: 8},
		{TaskID: domain.TaskIDDocumentSync, StartedAt: start, EndedAt: start, Error: "Sync failed: timeout"},
	}

	out, err := execute("status")
	require.NoError(t, err)

	assert.Contains(t, out, "### Recent Scheduled Runs")
	assert.Contains(t, out, "8 documents in 3s  ok\n")
	assert.Contains(t, out, "failed: Sync failed: timeout\n")
}

func TestStatusCmd_HistoryErrorIsNotFatal(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.scheduler.err = errors.New("database locked")

	out, err := execute("status")
	require.NoError(t, err)
	assert.Contains(t, out, "### Sync Status")
}
