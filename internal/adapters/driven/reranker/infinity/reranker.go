// Package infinity provides a cross-encoder reranker adapter for the
// Infinity inference server.
package infinity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

const serviceName = "reranker"

// Default configuration values.
const (
	DefaultModel   = "BAAI/bge-reranker-v2-m3"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the reranker.
type Config struct {
	// BaseURL is the Infinity server URL (required).
	BaseURL string

	// Model is the cross-encoder model name.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Reranker scores query/document pairs through POST /rerank.
type Reranker struct {
	client  *http.Client
	baseURL string
	model   string
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// NewReranker creates a reranker client.
func NewReranker(cfg Config) (*Reranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: reranker url is required", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Reranker{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Rerank returns indices into documents ordered by relevance score,
// highest first. Ties keep the server's order.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Service: serviceName, Op: "rerank", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Service: serviceName, Op: "rerank", Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{Service: serviceName, Op: "rerank", Status: resp.StatusCode, Body: string(body)}
	}

	var out rerankResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &domain.TransportError{
			Service: serviceName, Op: "rerank", Status: resp.StatusCode,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}

	results := out.Results
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	indices := make([]int, 0, len(results))
	for _, res := range results {
		indices = append(indices, res.Index)
	}
	if topN > 0 && len(indices) > topN {
		indices = indices[:topN]
	}
	return indices, nil
}

// ModelName returns the cross-encoder model in use.
func (r *Reranker) ModelName() string {
	return r.model
}
