package domain

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyGrammar(t *testing.T) {
	assert.Equal(t, "doc-7-0", ContentKey(7, 0))
	assert.Equal(t, "doc-7-12", ContentKey(7, 12))
	assert.Equal(t, "doc-7-hash", HashKey(7))
	assert.Equal(t, "doc-7-", DocPrefix(7))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected LogicalKey
		wantErr  bool
	}{
		{name: "content key", key: "doc-7-0", expected: LogicalKey{DocumentID: 7, ChunkIndex: 0}},
		{name: "multi digit", key: "doc-123-45", expected: LogicalKey{DocumentID: 123, ChunkIndex: 45}},
		{name: "hash marker", key: "doc-9-hash", expected: LogicalKey{DocumentID: 9, ChunkIndex: -1}},
		{name: "missing prefix", key: "msg-1-0", wantErr: true},
		{name: "missing suffix", key: "doc-1", wantErr: true},
		{name: "non numeric id", key: "doc-x-0", wantErr: true},
		{name: "non numeric chunk", key: "doc-1-abc", wantErr: true},
		{name: "negative chunk", key: "doc-1--1", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConsistency))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.key, got.String())
		})
	}
}

func TestLogicalKey_IsHashMarker(t *testing.T) {
	assert.True(t, LogicalKey{DocumentID: 1, ChunkIndex: -1}.IsHashMarker())
	assert.False(t, LogicalKey{DocumentID: 1, ChunkIndex: 0}.IsHashMarker())
}

func TestKeySet(t *testing.T) {
	s := NewKeySet("doc-1-0", "doc-1-1", "doc-1-hash", "doc-10-0", "doc-2-0")

	assert.True(t, s.Has("doc-1-hash"))
	assert.False(t, s.Has("doc-3-0"))

	got := s.WithPrefix(DocPrefix(1))
	sort.Strings(got)
	// doc-10-0 shares the characters "doc-1" but not the prefix "doc-1-".
	assert.Equal(t, []string{"doc-1-0", "doc-1-1", "doc-1-hash"}, got)

	assert.Empty(t, s.WithPrefix(DocPrefix(3)))
}
