package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// DocumentService exposes the source repository for browsing.
type DocumentService interface {
	// Get returns a document with its tag names resolved.
	Get(ctx context.Context, id int) (*DocumentDetails, error)

	// List returns one page of documents, newest first.
	List(ctx context.Context, opts ListRequest) (*domain.DocumentPage, error)

	// ListTags returns all tag names sorted alphabetically.
	ListTags(ctx context.Context) ([]string, error)
}

// DocumentDetails is a document plus its resolved tag names.
type DocumentDetails struct {
	Document domain.Document
	TagNames []string
}

// ListRequest filters a document listing.
type ListRequest struct {
	// Tag is an exact tag name, matched case-insensitively.
	Tag string

	// Page is 1-based (default 1).
	Page int

	// PageSize is the number of results per page (default 25, max 100).
	PageSize int
}
