package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, dbFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.SchedulerStore().SaveTask(context.Background(), &domain.ScheduledTask{ID: "a", Name: "A"}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	task, err := second.SchedulerStore().GetTask(context.Background(), "a")
	require.NoError(t, err)
	assert.NotNil(t, task, "data survives reopening")
}

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDDocumentSync,
		Name:        "Document Sync",
		Interval:    5 * time.Minute,
		LastRun:     now.Add(-5 * time.Minute),
		NextRun:     now.Add(30 * time.Second),
		LastSuccess: now.Add(-5 * time.Minute),
		Enabled:     true,
	}
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.Empty(t, got.LastError)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.True(t, task.LastSuccess.Equal(got.LastSuccess))
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()

	task, err := store.GetTask(context.Background(), "non-existent")

	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveTask_Update(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	task := &domain.ScheduledTask{ID: "t", Name: "Task", Interval: time.Hour, Enabled: true}
	require.NoError(t, store.SaveTask(ctx, task))

	task.Interval = 2 * time.Hour
	task.LastError = "Sync failed: qdrant unreachable"
	task.Enabled = false
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Equal(t, "Sync failed: qdrant unreachable", got.LastError)
	assert.False(t, got.Enabled)
}

func TestSchedulerStore_SaveTask_NilTask(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()

	err := store.SaveTask(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedulerStore_ListTasks(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "b", Name: "B"}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "a", Name: "A"}))

	tasks, err = store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
}

func TestSchedulerStore_TaskWithZeroTimes(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "fresh", Name: "Fresh", Enabled: true}))

	got, err := store.GetTask(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, got.LastRun.IsZero())
	assert.True(t, got.NextRun.IsZero())
	assert.True(t, got.LastSuccess.IsZero())
}

func TestSchedulerStore_RecordResult(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	start := time.Date(2025, 5, 1, 9, 0, 0, 123000000, time.UTC)
	require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
		RunID:          "run-1",
		TaskID:         domain.TaskIDDocumentSync,
		StartedAt:      start,
		EndedAt:        start.Add(4 * time.Second),
		Success:        false,
		Error:          "Sync failed: list documents: timeout",
		ItemsProcessed: 7,
	}))

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[0]
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, start.Equal(got.StartedAt))
	assert.True(t, start.Add(4*time.Second).Equal(got.EndedAt))
	assert.False(t, got.Success)
	assert.Equal(t, "Sync failed: list documents: timeout", got.Error)
	assert.Equal(t, 7, got.ItemsProcessed)
}

func TestSchedulerStore_RecordResult_GeneratesRunID(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	now := time.Now()
	for range 2 {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{TaskID: "t", StartedAt: now, EndedAt: now, Success: true}))
	}

	history, err := store.GetTaskHistory(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEmpty(t, history[0].RunID)
	assert.NotEqual(t, history[0].RunID, history[1].RunID)
}

func TestSchedulerStore_RecordResult_NilResult(t *testing.T) {
	store := setupTestStore(t).SchedulerStore()

	assert.ErrorIs(t, store.RecordResult(context.Background(), nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_GetTaskHistory_OrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		started := base.Add(time.Duration(i) * 500 * time.Millisecond)
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         "t",
			StartedAt:      started,
			EndedAt:        started,
			Success:        true,
			ItemsProcessed: i,
		}))
	}

	history, err := store.GetTaskHistory(ctx, "t", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsProcessed, "most recent first")
	assert.Equal(t, 3, history[1].ItemsProcessed)
	assert.Equal(t, 2, history[2].ItemsProcessed)

	empty, err := store.GetTaskHistory(ctx, "other", 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).SchedulerStore()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, taskID := range []string{"a", "b"} {
		for i := range 4 {
			started := base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
				TaskID: taskID, StartedAt: started, EndedAt: started, ItemsProcessed: i,
			}))
		}
	}

	require.NoError(t, store.PruneHistory(ctx, 2))

	for _, taskID := range []string{"a", "b"} {
		history, err := store.GetTaskHistory(ctx, taskID, 10)
		require.NoError(t, err)
		require.Len(t, history, 2, taskID)
		assert.Equal(t, 3, history[0].ItemsProcessed)
		assert.Equal(t, 2, history[1].ItemsProcessed)
	}
}

func TestStoredTime(t *testing.T) {
	assert.Nil(t, storedTime(time.Time{}))

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2025-03-04T04:06:07.000000000Z", storedTime(ts))
}

func TestLoadTime(t *testing.T) {
	assert.True(t, loadTime(sql.NullString{}).IsZero())
	assert.True(t, loadTime(sql.NullString{String: "garbage", Valid: true}).IsZero())

	got := loadTime(sql.NullString{String: "2025-03-04T04:06:07Z", Valid: true})
	assert.Equal(t, time.Date(2025, 3, 4, 4, 6, 7, 0, time.UTC), got)
}

func TestNullableAndSQLBool(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))
	assert.Equal(t, 1, sqlBool(true))
	assert.Equal(t, 0, sqlBool(false))
}
