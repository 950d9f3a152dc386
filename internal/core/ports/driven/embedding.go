// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates dense vector embeddings from text.
//
// Implementations:
//   - Ollama (nomic-embed-text, 768 dimensions) via /api/embed
//   - OpenAI-compatible servers via /embeddings
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	// Equivalent to EmbedBatch([text])[0].
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	// A response with the wrong count or shape is a transport error.
	// Callers control batch size; there is no caching.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
