package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// Listing defaults.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100

	listOrdering = "-created"
)

// DocumentService browses the document source.
type DocumentService struct {
	source driven.DocumentSource
}

// NewDocumentService creates a new document service.
func NewDocumentService(source driven.DocumentSource) *DocumentService {
	return &DocumentService{source: source}
}

// Get retrieves a document with its tag names.
func (s *DocumentService) Get(ctx context.Context, id int) (*driving.DocumentDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: document id must be positive", domain.ErrInvalidInput)
	}

	doc, err := s.source.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}

	tags, err := s.source.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return &driving.DocumentDetails{
		Document: *doc,
		TagNames: domain.TagNames(doc.TagIDs, tags),
	}, nil
}

// List returns a page of documents, newest first. An unknown tag returns an
// error wrapping domain.ErrNotFound.
func (s *DocumentService) List(ctx context.Context, req driving.ListRequest) (*domain.DocumentPage, error) {
	opts := domain.ListOptions{
		Ordering: listOrdering,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	switch {
	case opts.PageSize <= 0:
		opts.PageSize = DefaultPageSize
	case opts.PageSize > MaxPageSize:
		opts.PageSize = MaxPageSize
	}

	if tag := strings.TrimSpace(req.Tag); tag != "" {
		tags, err := s.source.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		id, ok := findTag(tags, tag)
		if !ok {
			return nil, fmt.Errorf("tag %q: %w", tag, domain.ErrNotFound)
		}
		opts.TagIDs = []int{id}
	}

	page, err := s.source.ListDocuments(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return page, nil
}

// ListTags returns all tag names sorted alphabetically, ignoring case.
func (s *DocumentService) ListTags(ctx context.Context) ([]string, error) {
	tags, err := s.source.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

func findTag(tags []domain.Tag, name string) (int, bool) {
	for _, t := range tags {
		if strings.EqualFold(t.Name, name) {
			return t.ID, true
		}
	}
	return 0, false
}
