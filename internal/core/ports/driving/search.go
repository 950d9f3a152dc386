package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search runs a hybrid search, optionally reranked, across the
	// collections in the request's scope.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}
