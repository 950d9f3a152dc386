package cli

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

type mockSearchService struct {
	resp *domain.SearchResponse
	err  error
	req  domain.SearchRequest
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &domain.SearchResponse{Tier: domain.TierHybrid}, nil
	}
	return m.resp, nil
}

type mockDocumentService struct {
	details *driving.DocumentDetails
	page    *domain.DocumentPage
	tags    []string
	err     error

	getID   int
	listReq driving.ListRequest
}

func (m *mockDocumentService) Get(_ context.Context, id int) (*driving.DocumentDetails, error) {
	m.getID = id
	return m.details, m.err
}

func (m *mockDocumentService) List(_ context.Context, req driving.ListRequest) (*domain.DocumentPage, error) {
	m.listReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.DocumentPage{}, nil
	}
	return m.page, nil
}

func (m *mockDocumentService) ListTags(_ context.Context) ([]string, error) {
	return m.tags, m.err
}

type mockSyncPipeline struct {
	status domain.SyncStatus
	report domain.StatusReport
	syncs  int
}

func (m *mockSyncPipeline) Sync(_ context.Context) domain.SyncStatus {
	m.syncs++
	return m.status
}

func (m *mockSyncPipeline) Status(_ context.Context) domain.SyncStatus {
	return m.status
}

func (m *mockSyncPipeline) Report(_ context.Context) domain.StatusReport {
	return m.report
}

type mockSettingsService struct {
	settings *domain.Settings
	err      error
	stored   map[string]any
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		s := domain.DefaultSettings()
		return &s, nil
	}
	return m.settings, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.err != nil {
		return m.err
	}
	if m.stored == nil {
		m.stored = make(map[string]any)
	}
	m.stored[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"paperless.token", "paperless.url"}
}

func (m *mockSettingsService) Path() string {
	return "/tmp/docsearch/config.toml"
}

type mockScheduler struct {
	runs []domain.TaskResult
	err  error

	started  atomic.Bool
	returned atomic.Bool
	stopped  atomic.Bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started.Store(true)
	<-ctx.Done()
	m.returned.Store(true)
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped.Store(true)
	return nil
}

func (m *mockScheduler) RecentRuns(_ context.Context, limit int) ([]domain.TaskResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.runs[:min(limit, len(m.runs))], nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search    *mockSearchService
	documents *mockDocumentService
	sync      *mockSyncPipeline
	settings  *mockSettingsService
	scheduler *mockScheduler
}

// setupTestServices installs mock services and resets command flags.
// The returned function restores the previous state.
func setupTestServices() (*testServices, func()) {
	oldSettings, oldSearch, oldDocs, oldSync := settingsService, searchService, documentService, syncPipeline
	oldScheduler, oldSchedulerConfig := scheduler, schedulerConfig

	ts := &testServices{
		search:    &mockSearchService{},
		documents: &mockDocumentService{},
		sync:      &mockSyncPipeline{},
		settings:  &mockSettingsService{},
		scheduler: &mockScheduler{},
	}
	settingsService = ts.settings
	searchService = ts.search
	documentService = ts.documents
	syncPipeline = ts.sync
	scheduler = ts.scheduler
	schedulerConfig = domain.SchedulerConfig{}

	return ts, func() {
		settingsService, searchService, documentService, syncPipeline = oldSettings, oldSearch, oldDocs, oldSync
		scheduler, schedulerConfig = oldScheduler, oldSchedulerConfig
		resetFlags()
	}
}

func resetFlags() {
	searchLimit = domain.DefaultSearchLimit
	searchJSON = false
	searchScope = string(domain.ScopeDocument)
	searchTags = nil
	searchAfter = ""
	searchBefore = ""
	listTag = ""
	listPage = 1
	listPageSize = 25
	mcpPort = 0
	mcpNoAutoSync = false
	verbose = false
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var testDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
