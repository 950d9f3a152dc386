package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// mockPipeline implements driving.SyncPipeline for scheduler testing.
type mockPipeline struct {
	mu     sync.Mutex
	calls  int
	result domain.SyncStatus
}

func (m *mockPipeline) Sync(_ context.Context) domain.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result.Clone()
}

func (m *mockPipeline) Status(_ context.Context) domain.SyncStatus {
	return m.result.Clone()
}

func (m *mockPipeline) Report(_ context.Context) domain.StatusReport {
	return domain.StatusReport{Sync: m.result.Clone()}
}

func (m *mockPipeline) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ driving.SyncPipeline = (*mockPipeline)(nil)

var schedulerNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func testSchedulerConfig() domain.SchedulerConfig {
	return domain.SchedulerConfigFromSync(domain.DefaultSettings().Sync)
}

func newTestScheduler(pipeline driving.SyncPipeline) (*Scheduler, *memory.SchedulerStore) {
	store := memory.NewSchedulerStore()
	s := NewScheduler(testSchedulerConfig(), store, pipeline)
	s.now = func() time.Time { return schedulerNow }
	return s, store
}

func dueSyncTask() *domain.ScheduledTask {
	return &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Interval: 5 * time.Minute,
		NextRun:  schedulerNow.Add(-time.Minute),
		Enabled:  true,
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler(&mockPipeline{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestScheduler_StartReturnsOnCancel(t *testing.T) {
	s, _ := newTestScheduler(&mockPipeline{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	require.NoError(t, s.Stop())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s, _ := newTestScheduler(nil)

	require.NoError(t, s.Stop())
}

func TestScheduler_StartAfterCancelDoesNothing(t *testing.T) {
	pipeline := &mockPipeline{}
	s, store := newTestScheduler(pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Start(ctx))

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, pipeline.callCount())
	require.NoError(t, s.Stop())
}

func TestScheduler_DisabledReturnsImmediately(t *testing.T) {
	pipeline := &mockPipeline{}
	store := memory.NewSchedulerStore()
	cfg := testSchedulerConfig()
	cfg.Enabled = false
	s := NewScheduler(cfg, store, pipeline)

	require.NoError(t, s.Start(context.Background()))

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, pipeline.callCount())
}

func TestScheduler_DoubleStart(t *testing.T) {
	s, _ := newTestScheduler(&mockPipeline{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately.
	assert.NoError(t, s.Start(context.Background()))

	cancel()
	s.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	s, store := newTestScheduler(&mockPipeline{})
	ctx := context.Background()

	require.NoError(t, s.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Document Sync", task.Name)
	assert.True(t, task.Enabled)
	assert.Equal(t, 5*time.Minute, task.Interval)
	assert.Equal(t, schedulerNow.Add(30*time.Second), task.NextRun)
}

func TestScheduler_EnsureTask_ResetsStoredSchedule(t *testing.T) {
	s, store := newTestScheduler(&mockPipeline{})
	ctx := context.Background()

	stale := dueSyncTask()
	stale.NextRun = schedulerNow.Add(-48 * time.Hour)
	stale.LastSuccess = schedulerNow.Add(-49 * time.Hour)
	require.NoError(t, store.SaveTask(ctx, stale))

	cfg := domain.TaskConfig{Enabled: true, Interval: time.Hour, InitialDelay: 10 * time.Second}
	require.NoError(t, s.ensureTask(ctx, domain.TaskIDDocumentSync, "Document Sync", cfg))

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, task.Interval)
	assert.Equal(t, schedulerNow.Add(10*time.Second), task.NextRun)
	assert.Equal(t, stale.LastSuccess, task.LastSuccess, "history fields survive")
}

func TestScheduler_RunDocumentSync(t *testing.T) {
	pipeline := &mockPipeline{result: domain.SyncStatus{
		DocumentsProcessed: 12,
		Errors:             []string{"Doc 4: embedding failed"},
	}}
	s, _ := newTestScheduler(pipeline)

	n, err := s.runDocumentSync(context.Background())

	require.NoError(t, err, "document errors do not fail the run")
	assert.Equal(t, 12, n)
	assert.Equal(t, 1, pipeline.callCount())
}

func TestScheduler_RunDocumentSync_RunFailure(t *testing.T) {
	pipeline := &mockPipeline{result: domain.SyncStatus{
		Errors: []string{"Sync failed: list documents: connection refused"},
	}}
	s, _ := newTestScheduler(pipeline)

	_, err := s.runDocumentSync(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Sync failed: list documents: connection refused", err.Error())
}

func TestScheduler_RunDocumentSync_NilPipeline(t *testing.T) {
	s, _ := newTestScheduler(nil)

	n, err := s.runDocumentSync(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	pipeline := &mockPipeline{result: domain.SyncStatus{DocumentsProcessed: 3}}
	s, store := newTestScheduler(pipeline)
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, dueSyncTask()))

	s.checkAndRunDueTasks(ctx)
	s.wg.Wait()

	assert.Equal(t, 1, pipeline.callCount())

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Equal(t, schedulerNow, task.LastRun)
	assert.Equal(t, schedulerNow, task.LastSuccess)
	assert.Equal(t, schedulerNow.Add(5*time.Minute), task.NextRun)
	assert.Empty(t, task.LastError)

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 3, history[0].ItemsProcessed)
	assert.NotEmpty(t, history[0].RunID)
}

func TestScheduler_CheckAndRunDueTasks_RecordsFailure(t *testing.T) {
	pipeline := &mockPipeline{result: domain.SyncStatus{
		Errors: []string{"Sync failed: ensure collection: qdrant unreachable"},
	}}
	s, store := newTestScheduler(pipeline)
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, dueSyncTask()))

	s.checkAndRunDueTasks(ctx)
	s.wg.Wait()

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Equal(t, "Sync failed: ensure collection: qdrant unreachable", task.LastError)
	assert.True(t, task.LastSuccess.IsZero())

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestScheduler_CheckAndRunDueTasks_SkipsNotDue(t *testing.T) {
	pipeline := &mockPipeline{}
	s, store := newTestScheduler(pipeline)
	ctx := context.Background()

	later := dueSyncTask()
	later.NextRun = schedulerNow.Add(time.Minute)
	require.NoError(t, store.SaveTask(ctx, later))

	disabled := dueSyncTask()
	disabled.ID = "disabled-task"
	disabled.Enabled = false
	require.NoError(t, store.SaveTask(ctx, disabled))

	s.checkAndRunDueTasks(ctx)
	s.wg.Wait()

	assert.Zero(t, pipeline.callCount())
}

func TestScheduler_RunTask_SkipsInFlight(t *testing.T) {
	pipeline := &mockPipeline{}
	s, _ := newTestScheduler(pipeline)

	s.inFlight[domain.TaskIDDocumentSync] = true
	s.runTask(context.Background(), dueSyncTask())
	s.wg.Wait()

	assert.Zero(t, pipeline.callCount())
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	s, store := newTestScheduler(nil)
	ctx := context.Background()

	// Logs and returns without recording anything.
	s.runTask(ctx, &domain.ScheduledTask{ID: "unknown-task", Name: "Unknown", Enabled: true})
	s.wg.Wait()

	history, err := store.GetTaskHistory(ctx, "unknown-task", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScheduler_RecentRuns(t *testing.T) {
	s, store := newTestScheduler(&mockPipeline{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDDocumentSync,
			StartedAt:      schedulerNow.Add(time.Duration(i) * time.Minute),
			Success:        true,
			ItemsProcessed: i,
		}))
	}

	runs, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 3, runs[0].ItemsProcessed)
	assert.Equal(t, 2, runs[1].ItemsProcessed)
}
