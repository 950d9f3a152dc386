package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func TestDocumentSource_GetAndList(t *testing.T) {
	ctx := context.Background()
	src := NewDocumentSource()
	src.PutDocument(domain.Document{ID: 2, Title: "B", Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TagIDs: []int{1}})
	src.PutDocument(domain.Document{ID: 1, Title: "A", Created: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})
	src.PutDocument(domain.Document{ID: 3, Title: "C", Created: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), TagIDs: []int{1, 2}})

	ids, err := src.ListDocumentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	doc, err := src.GetDocument(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", doc.Title)

	_, err = src.GetDocument(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := src.ListDocuments(ctx, domain.ListOptions{Ordering: "-created", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.True(t, page.HasNext)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, 3, page.Documents[0].ID)
	assert.Equal(t, 2, page.Documents[1].ID)

	page, err = src.ListDocuments(ctx, domain.ListOptions{TagIDs: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.False(t, page.HasNext)

	src.RemoveDocument(3)
	ids, err = src.ListDocumentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)
}

func TestDocumentSource_Err(t *testing.T) {
	src := NewDocumentSource()
	src.Err = errors.New("unreachable")

	_, err := src.ListDocumentIDs(context.Background())
	assert.Error(t, err)
	_, err = src.ListTags(context.Background())
	assert.Error(t, err)
}
