// Package qdrant provides a vector store backed by the Qdrant REST API.
//
// Every collection carries a named dense vector ("dense", cosine) and a
// named sparse vector ("bm25", IDF modifier) that Qdrant builds server-side
// from raw text. Points are addressed by logical key; the Qdrant id is a
// UUID derived from the key's MD5 digest and the key itself is kept in the
// point_key payload field.
package qdrant

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // G501: key derivation, not security.
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const serviceName = "qdrant"

// Vector names and collection parameters.
const (
	denseVector    = "dense"
	sparseVector   = "bm25"
	distance       = "Cosine"
	sparseModifier = "idf"

	// scrollPageSize is the number of points fetched per scroll request.
	scrollPageSize = 1000

	// prefetchFactor widens each hybrid branch before fusion.
	prefetchFactor = 3
)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST endpoint, e.g. http://qdrant:6333.
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store implements driven.VectorStore over Qdrant's REST API.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

// PointID derives the Qdrant point id from a logical key: the key's MD5
// digest laid out as a UUID string.
func PointID(key string) string {
	return uuid.UUID(md5.Sum([]byte(key))).String() //nolint:gosec // G401: see import.
}

// EnsureCollection creates the collection if needed. A collection without
// the sparse vector is dropped and recreated; the next sync repopulates it.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	info, err := s.collection(ctx, name)
	if err != nil {
		return err
	}

	if info != nil {
		if _, ok := info.Config.Params.SparseVectors[sparseVector]; ok {
			if size := info.Config.Params.denseSize(); size != 0 && size != dimension {
				return &domain.SchemaError{
					Collection: name,
					Reason:     fmt.Sprintf("dense vector size is %d, embedding model produces %d", size, dimension),
				}
			}
			return nil
		}

		logger.Warn("Collection %q lacks sparse vectors, recreating", name)
		if err := s.deleteCollection(ctx, name); err != nil {
			return err
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			denseVector: map[string]any{"size": dimension, "distance": distance},
		},
		"sparse_vectors": map[string]any{
			sparseVector: map[string]any{"modifier": sparseModifier},
		},
	}
	status, resp, err := s.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: "create collection", Err: err}
	}
	if !ok2xx(status) {
		return &domain.SchemaError{
			Collection: name,
			Reason:     fmt.Sprintf("create failed (status %d): %s", status, resp),
		}
	}
	logger.Info("Created collection %q with dense and BM25 sparse vectors", name)
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	info, err := s.collection(ctx, name)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// UpsertPoints writes points with wait=true so they are searchable on return.
func (s *Store) UpsertPoints(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	wire := make([]wirePoint, len(points))
	for i, p := range points {
		vector := map[string]any{denseVector: p.Dense}
		if p.Lexical != nil {
			vector[sparseVector] = wireDocument{Text: p.Lexical.Text, Model: p.Lexical.Model}
		}
		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		payload[domain.PayloadPointKey] = p.Key
		wire[i] = wirePoint{ID: PointID(p.Key), Vector: vector, Payload: payload}
	}

	status, resp, err := s.do(ctx, http.MethodPut, pointsPath(collection, "")+"?wait=true", map[string]any{"points": wire})
	if err != nil {
		return &domain.IndexWriteError{Op: "upsert points", Body: err.Error()}
	}
	if !ok2xx(status) {
		return &domain.IndexWriteError{Op: "upsert points", Status: status, Body: string(resp)}
	}
	return nil
}

// ScrollPoints walks the whole collection, fetching only point_key and
// content_hash. Points without a string point_key are skipped.
func (s *Store) ScrollPoints(ctx context.Context, collection string) ([]domain.StoredPoint, error) {
	var (
		out    []domain.StoredPoint
		offset any
	)
	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": map[string]any{"include": []string{domain.PayloadPointKey, domain.PayloadContentHash}},
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points         []wireHit `json:"points"`
				NextPageOffset any       `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.call(ctx, "scroll points", http.MethodPost, pointsPath(collection, "/scroll"), body, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			key, ok := p.Payload[domain.PayloadPointKey].(string)
			if !ok {
				continue
			}
			hash, _ := p.Payload[domain.PayloadContentHash].(string)
			out = append(out, domain.StoredPoint{Key: key, ContentHash: hash})
		}

		offset = resp.Result.NextPageOffset
		if offset == nil || len(resp.Result.Points) == 0 {
			return out, nil
		}
	}
}

// GetPointKeys returns every logical key in the collection.
func (s *Store) GetPointKeys(ctx context.Context, collection string) (domain.KeySet, error) {
	points, err := s.ScrollPoints(ctx, collection)
	if err != nil {
		return nil, err
	}
	keys := make(domain.KeySet, len(points))
	for _, p := range points {
		keys[p.Key] = struct{}{}
	}
	return keys, nil
}

// DeleteByKeys removes points by logical key in one request.
func (s *Store) DeleteByKeys(ctx context.Context, collection string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = PointID(k)
	}

	status, resp, err := s.do(ctx, http.MethodPost, pointsPath(collection, "/delete")+"?wait=true", map[string]any{"points": ids})
	if err != nil {
		return &domain.IndexWriteError{Op: "delete points", Body: err.Error()}
	}
	if !ok2xx(status) {
		return &domain.IndexWriteError{Op: "delete points", Status: status, Body: string(resp)}
	}
	return nil
}

// HybridSearch runs dense and BM25 prefetches fused with RRF. If the query
// API fails for any reason the search is retried dense-only.
func (s *Store) HybridSearch(
	ctx context.Context,
	collection string,
	dense []float32,
	queryText string,
	limit int,
	filter *domain.Filter,
) ([]domain.ScoredPoint, domain.SearchTier, error) {
	wf := toWireFilter(filter)
	denseBranch := map[string]any{"query": dense, "using": denseVector, "limit": limit * prefetchFactor}
	sparseBranch := map[string]any{
		"query": wireDocument{Text: queryText, Model: domain.LexicalModel},
		"using": sparseVector,
		"limit": limit * prefetchFactor,
	}
	if wf != nil {
		denseBranch["filter"] = wf
		sparseBranch["filter"] = wf
	}
	body := map[string]any{
		"prefetch":     []any{denseBranch, sparseBranch},
		"query":        map[string]any{"fusion": "rrf"},
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result struct {
			Points []wireHit `json:"points"`
		} `json:"result"`
	}
	err := s.call(ctx, "hybrid query", http.MethodPost, pointsPath(collection, "/query"), body, &resp)
	if err == nil {
		return toScored(resp.Result.Points), domain.TierHybrid, nil
	}
	if ctx.Err() != nil {
		return nil, "", err
	}

	logger.Warn("Hybrid search on %q failed, falling back to dense-only: %v", collection, err)
	hits, err := s.Search(ctx, collection, dense, limit, filter)
	if err != nil {
		return nil, "", err
	}
	return hits, domain.TierDense, nil
}

// Search performs dense-only nearest-neighbour search.
func (s *Store) Search(
	ctx context.Context,
	collection string,
	dense []float32,
	limit int,
	filter *domain.Filter,
) ([]domain.ScoredPoint, error) {
	body := map[string]any{
		"vector":       map[string]any{"name": denseVector, "vector": dense},
		"limit":        limit,
		"with_payload": true,
	}
	if wf := toWireFilter(filter); wf != nil {
		body["filter"] = wf
	}

	var resp struct {
		Result []wireHit `json:"result"`
	}
	if err := s.call(ctx, "search", http.MethodPost, pointsPath(collection, "/search"), body, &resp); err != nil {
		return nil, err
	}
	return toScored(resp.Result), nil
}

// GetCollectionInfo returns collection statistics, or nil when the
// collection is absent or Qdrant cannot be reached.
func (s *Store) GetCollectionInfo(ctx context.Context, name string) *domain.CollectionInfo {
	info, err := s.collection(ctx, name)
	if err != nil {
		logger.Debug("Collection info for %q unavailable: %v", name, err)
		return nil
	}
	if info == nil {
		return nil
	}
	return &domain.CollectionInfo{
		Status:       info.Status,
		PointsCount:  info.PointsCount,
		VectorsCount: info.VectorsCount,
	}
}

// collection fetches collection metadata; nil means the collection is absent.
func (s *Store) collection(ctx context.Context, name string) (*collectionInfo, error) {
	status, body, err := s.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, &domain.TransportError{Service: serviceName, Op: "get collection", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if !ok2xx(status) {
		return nil, &domain.TransportError{Service: serviceName, Op: "get collection", Status: status, Body: string(body)}
	}

	var resp struct {
		Result collectionInfo `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.TransportError{
			Service: serviceName, Op: "get collection", Status: status,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}
	return &resp.Result, nil
}

func (s *Store) deleteCollection(ctx context.Context, name string) error {
	status, body, err := s.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: "delete collection", Err: err}
	}
	if !ok2xx(status) && status != http.StatusNotFound {
		return &domain.TransportError{Service: serviceName, Op: "delete collection", Status: status, Body: string(body)}
	}
	return nil
}

// call sends a request and decodes a 2xx JSON response into out.
func (s *Store) call(ctx context.Context, op, method, path string, in, out any) error {
	status, body, err := s.do(ctx, method, path, in)
	if err != nil {
		return &domain.TransportError{Service: serviceName, Op: op, Err: err}
	}
	if !ok2xx(status) {
		return &domain.TransportError{Service: serviceName, Op: op, Status: status, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.TransportError{
			Service: serviceName, Op: op, Status: status,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// do performs one HTTP round trip and returns the status and body.
func (s *Store) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var reader io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func pointsPath(collection, suffix string) string {
	return "/collections/" + url.PathEscape(collection) + "/points" + suffix
}

func ok2xx(status int) bool {
	return status >= 200 && status < 300
}
