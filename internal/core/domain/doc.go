// Package domain defines the core business entities for docsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document, Tag: read-only views of the source repository
//   - Chunk: a retrievable unit of document text
//   - Point, ScoredPoint, Filter: the vector store's vocabulary
//   - Logical keys: doc-{id}-{chunk} and doc-{id}-hash
//   - SyncStatus, SearchRequest, SearchResponse
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
