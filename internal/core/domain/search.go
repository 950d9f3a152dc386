package domain

import (
	"fmt"
	"time"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Scope selects which collections a search covers.
type Scope string

// Search scopes.
const (
	ScopeDocument Scope = "document"
	ScopeMessage  Scope = "message"
	ScopeAll      Scope = "all"
)

// Collections returns the collections covered by the scope.
func (s Scope) Collections() []string {
	switch s {
	case ScopeMessage:
		return []string{CollectionMessages}
	case ScopeAll:
		return []string{CollectionDocuments, CollectionMessages}
	default:
		return []string{CollectionDocuments}
	}
}

// Valid reports whether the scope is known. The empty scope is valid and
// means ScopeDocument.
func (s Scope) Valid() bool {
	switch s {
	case "", ScopeDocument, ScopeMessage, ScopeAll:
		return true
	}
	return false
}

// SearchRequest is a query against the index.
type SearchRequest struct {
	// Query is the free-text query.
	Query string

	// Scope selects collections (default: document).
	Scope Scope

	// Tags are exact tag names, matched case-insensitively.
	Tags []string

	// DateAfter bounds created_date from below (inclusive). Zero means open.
	DateAfter time.Time

	// DateBefore bounds created_date from above (inclusive). Zero means open.
	DateBefore time.Time

	// Limit is the maximum number of results (default 10, max 50).
	Limit int
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	// Collection is where the hit came from.
	Collection string

	// Score is the fused (or dense) similarity score.
	Score float64

	// Text is the chunk text.
	Text string

	// Meta is a one-line human-readable description of the source.
	Meta string

	// Payload is the stored payload.
	Payload map[string]any
}

// SearchResponse is a ranked result set plus warnings.
type SearchResponse struct {
	Results []SearchResult

	// Warnings are non-fatal problems with the request.
	Warnings []string

	// InvalidTags are requested tags with no case-insensitive match.
	InvalidTags []string

	// Tier is the strategy that produced the final ordering.
	Tier SearchTier
}

// ParseDate parses a date filter given as a calendar date (2006-01-02) or
// an RFC 3339 timestamp. Empty input yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD or RFC 3339", ErrInvalidInput, value)
	}
	return t.UTC(), nil
}
