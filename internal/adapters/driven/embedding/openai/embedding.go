// Package openai provides an embedding service adapter for the OpenAI API
// and compatible servers (vLLM, LocalAI, LM Studio).
package openai

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const serviceName = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// fallbackDimensions applies to unknown models on compatible servers.
const fallbackDimensions = 1536

// modelDimensions are the native sizes of OpenAI's embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only sent to the API for text-embedding-3-* models.
	Dimensions int
}

// EmbeddingService generates embeddings using an OpenAI-compatible API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService validates cfg and fills in defaults. Without an API
// key the service is unavailable rather than misconfigured.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrEmbeddingUnavailable)
	}
	model := cmp.Or(cfg.Model, DefaultModel)
	return &EmbeddingService{
		client:     &http.Client{Timeout: cmp.Or(cfg.Timeout, DefaultTimeout)},
		baseURL:    strings.TrimRight(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cmp.Or(cfg.Dimensions, modelDimensions[model], fallbackDimensions),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
// Results are placed by their response index.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model: s.model,
		Input: texts,
	}
	if strings.HasPrefix(s.model, "text-embedding-3-") {
		reqBody.Dimensions = s.dimensions
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPost, "/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.TransportError{Service: serviceName, Op: "embed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Service: serviceName, Op: "embed", Status: resp.StatusCode, Err: err}
	}

	var embedResp embeddingResponse
	decodeErr := json.Unmarshal(body, &embedResp)
	if decodeErr == nil && embedResp.Error != nil {
		return nil, &domain.TransportError{
			Service: serviceName, Op: "embed", Status: resp.StatusCode,
			Err: errors.New(embedResp.Error.Message),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{Service: serviceName, Op: "embed", Status: resp.StatusCode, Body: string(body)}
	}
	if decodeErr != nil {
		return nil, &domain.TransportError{
			Service: serviceName, Op: "embed", Status: resp.StatusCode,
			Err: fmt.Errorf("decode response: %w", decodeErr),
		}
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) || embeddings[data.Index] != nil {
			return nil, s.shapeError(resp.StatusCode, "unexpected embedding index %d", data.Index)
		}
		if len(data.Embedding) != s.dimensions {
			return nil, s.shapeError(resp.StatusCode, "embedding %d has %d dimensions, want %d",
				data.Index, len(data.Embedding), s.dimensions)
		}
		embeddings[data.Index] = data.Embedding
	}
	if len(embedResp.Data) != len(texts) {
		return nil, s.shapeError(resp.StatusCode, "got %d embeddings for %d inputs", len(embedResp.Data), len(texts))
	}

	return embeddings, nil
}

func (s *EmbeddingService) shapeError(status int, format string, args ...any) error {
	return &domain.TransportError{Service: serviceName, Op: "embed", Status: status, Err: fmt.Errorf(format, args...)}
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists /models, which checks the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, "/models", http.NoBody)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.TransportError{Service: serviceName, Op: "ping", Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// do sends an authenticated request to path under the base URL.
func (s *EmbeddingService) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.Do(req)
}

// Close is a no-op; the HTTP client holds no per-service resources.
func (s *EmbeddingService) Close() error {
	return nil
}
