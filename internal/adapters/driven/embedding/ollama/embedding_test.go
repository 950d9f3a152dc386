package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL + "/", Dimensions: 3})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultTimeout, s.client.Timeout)
	assert.NoError(t, s.Close())
}

func TestEmbedBatch(t *testing.T) {
	var got embedRequest
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 0, 0}, {0, 1, 0}},
		})
	})

	vecs, err := s.EmbedBatch(context.Background(), []string{"alpha", "beta"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, []string{"alpha", "beta"}, got.Input)
}

func TestEmbed_Single(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5,0.5]]}`))
	})

	vec, err := s.Embed(context.Background(), "query")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, vec)
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	vecs, err := s.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_TransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server error", http.StatusInternalServerError, `model not loaded`, "status 500"},
		{"bad json", http.StatusOK, `{"embeddings":`, "decode response"},
		{"count mismatch", http.StatusOK, `{"embeddings":[[1,2,3]]}`, "got 1 embeddings for 2 inputs"},
		{"wrong dimension", http.StatusOK, `{"embeddings":[[1,2,3],[1,2]]}`, "embedding 1 has 2 dimensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrTransport)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEmbedBatch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	s := NewEmbeddingService(Config{BaseURL: url})

	_, err := s.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestPing(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, s.Ping(context.Background()))
}

func TestPing_Failure(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := s.Ping(context.Background())

	assert.ErrorIs(t, err, domain.ErrTransport)
}
