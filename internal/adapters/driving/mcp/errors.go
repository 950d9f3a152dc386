// Package mcp provides an MCP (Model Context Protocol) server adapter for docsearch.
// It exposes search, document browsing and sync control as MCP tools.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrMissingSyncPipeline is returned when the sync pipeline is not provided.
	ErrMissingSyncPipeline = errors.New("mcp: sync pipeline is required")
)
