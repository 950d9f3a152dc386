// Package services implements the driving port interfaces.
//
// SyncPipeline mirrors the document source into the vector store,
// SearchService answers hybrid queries over the indexed chunks and
// DocumentService browses the source directly. Scheduler repeats the sync
// in the background while the MCP server runs.
//
// Services only talk to driven ports; they never import adapters.
package services
