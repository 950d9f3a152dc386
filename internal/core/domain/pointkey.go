package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Logical key grammar:
//
//	doc-{documentId}-{chunkIndex}   content chunk
//	doc-{documentId}-hash           hash marker
const (
	keyPrefix    = "doc-"
	hashSuffix   = "hash"
	keySeparator = "-"
)

// ContentKey returns the logical key of a content chunk.
func ContentKey(docID, chunkIndex int) string {
	return fmt.Sprintf("doc-%d-%d", docID, chunkIndex)
}

// HashKey returns the logical key of a document's hash marker.
func HashKey(docID int) string {
	return fmt.Sprintf("doc-%d-hash", docID)
}

// DocPrefix returns the prefix shared by every key of a document.
func DocPrefix(docID int) string {
	return fmt.Sprintf("doc-%d-", docID)
}

// LogicalKey is a parsed logical key.
type LogicalKey struct {
	DocumentID int

	// ChunkIndex is -1 for hash markers.
	ChunkIndex int
}

// IsHashMarker reports whether the key names a hash marker.
func (k LogicalKey) IsHashMarker() bool {
	return k.ChunkIndex < 0
}

// String formats the key back into its grammar.
func (k LogicalKey) String() string {
	if k.IsHashMarker() {
		return HashKey(k.DocumentID)
	}
	return ContentKey(k.DocumentID, k.ChunkIndex)
}

// ParseKey parses a logical key. Keys outside the grammar return an error
// wrapping ErrConsistency.
func ParseKey(key string) (LogicalKey, error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return LogicalKey{}, fmt.Errorf("%w: key %q lacks %q prefix", ErrConsistency, key, keyPrefix)
	}
	idPart, suffix, ok := strings.Cut(rest, keySeparator)
	if !ok {
		return LogicalKey{}, fmt.Errorf("%w: key %q has no suffix", ErrConsistency, key)
	}
	docID, err := strconv.Atoi(idPart)
	if err != nil || docID < 0 {
		return LogicalKey{}, fmt.Errorf("%w: key %q has invalid document id", ErrConsistency, key)
	}
	if suffix == hashSuffix {
		return LogicalKey{DocumentID: docID, ChunkIndex: -1}, nil
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 {
		return LogicalKey{}, fmt.Errorf("%w: key %q has invalid chunk index", ErrConsistency, key)
	}
	return LogicalKey{DocumentID: docID, ChunkIndex: idx}, nil
}

// KeySet is a set of logical keys.
type KeySet map[string]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// WithPrefix returns every key starting with prefix.
func (s KeySet) WithPrefix(prefix string) []string {
	var out []string
	for k := range s {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
