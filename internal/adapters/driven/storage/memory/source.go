package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// DocumentSource is an in-memory implementation of driven.DocumentSource.
// It stands in for the Paperless client in tests.
type DocumentSource struct {
	mu        sync.RWMutex
	documents map[int]domain.Document
	tags      []domain.Tag

	// Err, when set, is returned by every call.
	Err error
}

// NewDocumentSource creates a new in-memory document source.
func NewDocumentSource() *DocumentSource {
	return &DocumentSource{
		documents: make(map[int]domain.Document),
	}
}

// PutDocument stores or replaces a document.
func (s *DocumentSource) PutDocument(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// RemoveDocument deletes a document.
func (s *DocumentSource) RemoveDocument(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
}

// SetTags replaces the tag list.
func (s *DocumentSource) SetTags(tags ...domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append([]domain.Tag(nil), tags...)
}

// ListDocumentIDs returns every document id in ascending order.
func (s *DocumentSource) ListDocumentIDs(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]int, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentSource) GetDocument(_ context.Context, id int) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	doc.TagIDs = slices.Clone(doc.TagIDs)
	return &doc, nil
}

// ListDocuments returns one page of documents. Ordering "-created" sorts
// newest first; anything else sorts by id.
func (s *DocumentSource) ListDocuments(_ context.Context, opts domain.ListOptions) (*domain.DocumentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var matched []domain.Document
	for _, doc := range s.documents {
		if hasAllTags(doc.TagIDs, opts.TagIDs) {
			matched = append(matched, doc)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if strings.TrimPrefix(opts.Ordering, "-") == "created" && !matched[i].Created.Equal(matched[j].Created) {
			newer := matched[i].Created.After(matched[j].Created)
			if strings.HasPrefix(opts.Ordering, "-") {
				return newer
			}
			return !newer
		}
		return matched[i].ID < matched[j].ID
	})

	page, size := max(opts.Page, 1), opts.PageSize
	if size <= 0 {
		size = len(matched)
	}
	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))

	return &domain.DocumentPage{
		Count:     len(matched),
		Documents: matched[start:end],
		HasNext:   end < len(matched),
	}, nil
}

// ListTags returns every tag.
func (s *DocumentSource) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]domain.Tag(nil), s.tags...), nil
}

func hasAllTags(have, want []int) bool {
	for _, id := range want {
		if !slices.Contains(have, id) {
			return false
		}
	}
	return true
}
