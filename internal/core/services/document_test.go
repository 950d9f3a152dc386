package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

func newDocumentFixture() (*DocumentService, *memory.DocumentSource) {
	src := memory.NewDocumentSource()
	src.SetTags(domain.Tag{ID: 1, Name: "tax"}, domain.Tag{ID: 2, Name: "Bank"}, domain.Tag{ID: 3, Name: "archive"})
	for i := 1; i <= 30; i++ {
		tags := []int{2}
		if i%10 == 0 {
			tags = []int{1, 2}
		}
		src.PutDocument(domain.Document{
			ID:      i,
			Title:   "Statement",
			Content: "text",
			Created: time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
			TagIDs:  tags,
		})
	}
	return NewDocumentService(src), src
}

func TestDocumentService_Get(t *testing.T) {
	svc, _ := newDocumentFixture()

	details, err := svc.Get(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 10, details.Document.ID)
	assert.Equal(t, []string{"tax", "Bank"}, details.TagNames)
}

func TestDocumentService_Get_Errors(t *testing.T) {
	svc, _ := newDocumentFixture()

	_, err := svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_List_Defaults(t *testing.T) {
	svc, _ := newDocumentFixture()

	page, err := svc.List(context.Background(), driving.ListRequest{})

	require.NoError(t, err)
	assert.Equal(t, 30, page.Count)
	assert.Len(t, page.Documents, DefaultPageSize)
	assert.True(t, page.HasNext)
	assert.Equal(t, 30, page.Documents[0].ID, "newest first")
}

func TestDocumentService_List_PageSizeCapped(t *testing.T) {
	svc, _ := newDocumentFixture()

	page, err := svc.List(context.Background(), driving.ListRequest{Page: 1, PageSize: 1000})

	require.NoError(t, err)
	assert.Len(t, page.Documents, 30)
	assert.False(t, page.HasNext)
}

func TestDocumentService_List_ByTag(t *testing.T) {
	svc, _ := newDocumentFixture()

	page, err := svc.List(context.Background(), driving.ListRequest{Tag: "TAX"})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
}

func TestDocumentService_List_UnknownTag(t *testing.T) {
	svc, _ := newDocumentFixture()

	_, err := svc.List(context.Background(), driving.ListRequest{Tag: "receipts"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_ListTags(t *testing.T) {
	svc, _ := newDocumentFixture()

	names, err := svc.ListTags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "Bank", "tax"}, names)
}

func TestDocumentService_SourceFailure(t *testing.T) {
	svc, src := newDocumentFixture()
	src.Err = errUnavailable

	_, err := svc.ListTags(context.Background())
	assert.ErrorIs(t, err, errUnavailable)

	_, err = svc.List(context.Background(), driving.ListRequest{})
	assert.ErrorIs(t, err, errUnavailable)
}
