package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Collaborator Errors.

	// ErrTransport indicates a collaborator was unreachable, answered with a
	// non-2xx status or returned a body that could not be decoded.
	ErrTransport = errors.New("transport error")

	// ErrSchema indicates a collection is in an unexpected state.
	ErrSchema = errors.New("schema error")

	// ErrConsistency indicates a stored logical key violates the key grammar.
	// Seeing it means something other than this program wrote to the collection.
	ErrConsistency = errors.New("consistency error")
)

// TransportError describes a failed call to an external collaborator.
type TransportError struct {
	// Service names the collaborator (paperless, ollama, qdrant, ...).
	Service string

	// Op is the operation that failed.
	Op string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Body is the response body, if any.
	Body string

	// Err is the underlying error, if any.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s (status %d): %v", e.Service, e.Op, e.Status, e.Err)
	default:
		return fmt.Sprintf("%s %s (status %d): %s", e.Service, e.Op, e.Status, e.Body)
	}
}

// Is reports TransportError as ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IndexWriteError is returned when the vector store rejects a write.
// Body carries the store's response verbatim.
type IndexWriteError struct {
	Op     string
	Status int
	Body   string
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("failed to %s (status %d): %s", e.Op, e.Status, e.Body)
}

// Is reports IndexWriteError as ErrTransport.
func (e *IndexWriteError) Is(target error) bool {
	return target == ErrTransport
}

// SchemaError reports a collection that could not be brought to the expected schema.
type SchemaError struct {
	Collection string
	Reason     string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("collection %q: %s", e.Collection, e.Reason)
}

// Is reports SchemaError as ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
