package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// VectorStore owns collection schema and the point lifecycle.
// Points are addressed by logical key; the store-native id is derived
// from the key by the implementation.
type VectorStore interface {
	// EnsureCollection creates the collection with a named dense field of
	// the given dimension and a named sparse BM25 field. A collection
	// without the sparse field is dropped and recreated. Idempotent.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// CollectionExists reports whether the collection is present.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// UpsertPoints writes points, overwriting any with the same key.
	// Failures are returned as *domain.IndexWriteError.
	UpsertPoints(ctx context.Context, collection string, points []domain.Point) error

	// ScrollPoints enumerates every point's key and content hash.
	ScrollPoints(ctx context.Context, collection string) ([]domain.StoredPoint, error)

	// GetPointKeys returns the set of logical keys in the collection.
	GetPointKeys(ctx context.Context, collection string) (domain.KeySet, error)

	// DeleteByKeys removes points by logical key. Empty input is a no-op.
	DeleteByKeys(ctx context.Context, collection string, keys []string) error

	// HybridSearch fuses dense and BM25 retrieval with Reciprocal Rank
	// Fusion, degrading to dense-only when the fused query fails.
	// The returned tier names the strategy that answered.
	HybridSearch(
		ctx context.Context,
		collection string,
		dense []float32,
		queryText string,
		limit int,
		filter *domain.Filter,
	) ([]domain.ScoredPoint, domain.SearchTier, error)

	// Search performs dense-only nearest-neighbour search.
	Search(
		ctx context.Context,
		collection string,
		dense []float32,
		limit int,
		filter *domain.Filter,
	) ([]domain.ScoredPoint, error)

	// GetCollectionInfo returns statistics, or nil when the collection is
	// absent or the store is unreachable. It never fails.
	GetCollectionInfo(ctx context.Context, name string) *domain.CollectionInfo
}
