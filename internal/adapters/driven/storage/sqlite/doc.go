// Package sqlite persists scheduler state in a local SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. The database holds the scheduled tasks and their run
// history so `docsearch status` can report scheduled syncs across restarts.
// Indexed content never lives here; it belongs to the vector store.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files and records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docsearch/docsearch.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode with a
// busy timeout.
package sqlite
