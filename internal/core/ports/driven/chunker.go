package driven

import "github.com/custodia-labs/docsearch/internal/core/domain"

// Chunker splits document content into retrievable chunks.
// Implementations must be deterministic: the same content always yields
// the same chunks, so that keys derived from chunk indices are stable.
type Chunker interface {
	// Chunk returns the document's chunks in order, or none when the
	// content is blank.
	Chunk(doc *domain.Document) []domain.Chunk
}
