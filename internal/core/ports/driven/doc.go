// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: the read-only document repository (Paperless-ngx)
//   - EmbeddingService: turns text into dense vectors (Ollama, OpenAI)
//   - VectorStore: collection schema and point lifecycle (Qdrant)
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Reranker: cross-encoder reranking. Without it, hybrid order is kept.
//   - SchedulerStore: scheduler persistence. Without it, auto-sync is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
