package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// --- Mock implementations shared by service tests ---

// mockEmbedder implements driven.EmbeddingService with deterministic vectors.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	batchCalls int
	embedded   []string

	// failOn makes any batch containing this substring fail.
	failOn string
	err    error

	// entered is signalled and release awaited on every batch when set.
	entered chan struct{}
	release chan struct{}
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 4}
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for i, r := range strings.ToLower(text) {
		v[(i+int(r))%m.dims] += 1
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range texts {
		if m.failOn != "" && strings.Contains(t, m.failOn) {
			return nil, &domain.TransportError{Service: "ollama", Op: "embed", Status: 500, Body: "model crashed"}
		}
	}
	m.batchCalls++
	m.embedded = append(m.embedded, texts...)

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) embeddedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embedded)
}

// mockReranker implements driven.Reranker by reversing candidate order.
type mockReranker struct {
	err      error
	calls    int
	lastTopN int
	lastDocs []string
}

func (m *mockReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]int, error) {
	m.calls++
	m.lastTopN = topN
	m.lastDocs = documents
	if m.err != nil {
		return nil, m.err
	}
	out := make([]int, 0, len(documents))
	for i := len(documents) - 1; i >= 0 && len(out) < topN; i-- {
		out = append(out, i)
	}
	return out, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }

// faultyStore wraps a VectorStore and fails selected operations.
type faultyStore struct {
	driven.VectorStore
	ensureErr error
	existsErr map[string]error
	searchErr map[string]error
	deletes   [][]string
}

func (f *faultyStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	return f.VectorStore.EnsureCollection(ctx, name, dim)
}

func (f *faultyStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := f.existsErr[name]; err != nil {
		return false, err
	}
	return f.VectorStore.CollectionExists(ctx, name)
}

func (f *faultyStore) DeleteByKeys(ctx context.Context, collection string, keys []string) error {
	f.deletes = append(f.deletes, keys)
	return f.VectorStore.DeleteByKeys(ctx, collection, keys)
}

func (f *faultyStore) HybridSearch(
	ctx context.Context,
	collection string,
	dense []float32,
	queryText string,
	limit int,
	filter *domain.Filter,
) ([]domain.ScoredPoint, domain.SearchTier, error) {
	if err := f.searchErr[collection]; err != nil {
		return nil, domain.TierHybrid, err
	}
	return f.VectorStore.HybridSearch(ctx, collection, dense, queryText, limit, filter)
}

var errUnavailable = errors.New("service unavailable")

// Ensure mocks implement interfaces
var (
	_ driven.EmbeddingService = (*mockEmbedder)(nil)
	_ driven.Reranker         = (*mockReranker)(nil)
	_ driven.VectorStore      = (*faultyStore)(nil)
)
