package driven

import "context"

// Reranker scores (query, candidate) pairs with a cross-encoder.
// This is an optional service; when nil, hybrid order is kept.
type Reranker interface {
	// Rerank returns indices into documents, most relevant first,
	// at most topN of them.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error)

	// ModelName returns the reranking model in use.
	ModelName() string
}
