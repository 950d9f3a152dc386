package mcp

import (
	"errors"

	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search runs hybrid search over the index.
	Search driving.SearchService

	// Documents browses the source repository.
	Documents driving.DocumentService

	// Sync triggers and reports on index synchronisation.
	Sync driving.SyncPipeline
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	var errs []error
	if p.Search == nil {
		errs = append(errs, ErrMissingSearchService)
	}
	if p.Documents == nil {
		errs = append(errs, ErrMissingDocumentService)
	}
	if p.Sync == nil {
		errs = append(errs, ErrMissingSyncPipeline)
	}
	return errors.Join(errs...)
}
