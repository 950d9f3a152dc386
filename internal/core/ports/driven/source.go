package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// DocumentSource is the read-only document repository (Paperless-ngx).
// The core never writes back to it.
type DocumentSource interface {
	// ListDocumentIDs returns the ids of every document in the source.
	ListDocumentIDs(ctx context.Context) ([]int, error)

	// GetDocument fetches one document with its full text and tag ids.
	// Returns an error wrapping domain.ErrNotFound if the id is unknown.
	GetDocument(ctx context.Context, id int) (*domain.Document, error)

	// ListDocuments returns one page of documents without guaranteeing content.
	ListDocuments(ctx context.Context, opts domain.ListOptions) (*domain.DocumentPage, error)

	// ListTags returns every tag defined in the source.
	ListTags(ctx context.Context) ([]domain.Tag, error)
}
