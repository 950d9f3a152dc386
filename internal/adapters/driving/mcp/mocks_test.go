package mcp

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
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
		return &domain.SearchResponse{}, nil
	}
	return m.resp, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
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

// mockSyncPipeline is a mock implementation of driving.SyncPipeline.
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

// testPorts returns a fully populated Ports value backed by mocks.
func testPorts() (*Ports, *mockSearchService, *mockDocumentService, *mockSyncPipeline) {
	search := &mockSearchService{}
	docs := &mockDocumentService{}
	sync := &mockSyncPipeline{}
	return &Ports{Search: search, Documents: docs, Sync: sync}, search, docs, sync
}
