package memory

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// rrfK is the Reciprocal Rank Fusion constant.
const rrfK = 60

// prefetchFactor matches the over-fetch of each ranked list before fusion.
const prefetchFactor = 3

type memCollection struct {
	dimension int
	points    map[string]domain.Point
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Dense retrieval is exact cosine similarity; lexical retrieval counts
// query term occurrences. Both lists are fused with RRF.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection

	// HybridErr, when set, makes the fused query fail so that callers
	// exercise the dense-only fallback.
	HybridErr error
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*memCollection),
	}
}

// EnsureCollection creates the collection if absent.
func (s *VectorStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return &domain.SchemaError{
				Collection: name,
				Reason:     fmt.Sprintf("dense dimension is %d, want %d", c.dimension, dimension),
			}
		}
		return nil
	}
	s.collections[name] = &memCollection{
		dimension: dimension,
		points:    make(map[string]domain.Point),
	}
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *VectorStore) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// UpsertPoints stores points by logical key.
func (s *VectorStore) UpsertPoints(_ context.Context, collection string, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return &domain.IndexWriteError{Op: "upsert points", Status: 404, Body: "collection not found"}
	}
	for _, p := range points {
		if len(p.Dense) != c.dimension {
			return &domain.IndexWriteError{
				Op:     "upsert points",
				Status: 400,
				Body:   fmt.Sprintf("point %s: vector size %d, want %d", p.Key, len(p.Dense), c.dimension),
			}
		}
	}
	for _, p := range points {
		payload := maps.Clone(p.Payload)
		if payload == nil {
			payload = make(map[string]any)
		}
		payload[domain.PayloadPointKey] = p.Key
		p.Payload = payload
		c.points[p.Key] = p
	}
	return nil
}

// ScrollPoints lists every stored key with its content hash, sorted by key.
func (s *VectorStore) ScrollPoints(_ context.Context, collection string) ([]domain.StoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	out := make([]domain.StoredPoint, 0, len(c.points))
	for key, p := range c.points {
		hash, _ := p.Payload[domain.PayloadContentHash].(string)
		out = append(out, domain.StoredPoint{Key: key, ContentHash: hash})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// GetPointKeys returns the set of stored keys.
func (s *VectorStore) GetPointKeys(ctx context.Context, collection string) (domain.KeySet, error) {
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

// DeleteByKeys removes points by key. Unknown keys are ignored.
func (s *VectorStore) DeleteByKeys(_ context.Context, collection string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return &domain.IndexWriteError{Op: "delete points", Status: 404, Body: "collection not found"}
	}
	for _, k := range keys {
		delete(c.points, k)
	}
	return nil
}

// HybridSearch fuses dense and lexical rankings with RRF. When HybridErr is
// set it falls back to dense-only search.
func (s *VectorStore) HybridSearch(
	ctx context.Context,
	collection string,
	dense []float32,
	queryText string,
	limit int,
	filter *domain.Filter,
) ([]domain.ScoredPoint, domain.SearchTier, error) {
	if s.HybridErr != nil {
		logger.Warn("Hybrid search on %s failed, falling back to %s: %v", collection, domain.TierDense, s.HybridErr)
		points, err := s.Search(ctx, collection, dense, limit, filter)
		return points, domain.TierDense, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, domain.TierHybrid, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}

	prefetch := limit * prefetchFactor
	denseRanked := rankDense(c, dense, filter, prefetch)
	lexicalRanked := rankLexical(c, queryText, filter, prefetch)

	fused := reciprocalRankFusion(denseRanked, lexicalRanked)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, domain.TierHybrid, nil
}

// Search performs exact cosine nearest-neighbour search.
func (s *VectorStore) Search(
	_ context.Context,
	collection string,
	dense []float32,
	limit int,
	filter *domain.Filter,
) ([]domain.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	return rankDense(c, dense, filter, limit), nil
}

// GetCollectionInfo returns point counts, or nil for an absent collection.
func (s *VectorStore) GetCollectionInfo(_ context.Context, name string) *domain.CollectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	return &domain.CollectionInfo{
		Status:       "green",
		PointsCount:  len(c.points),
		VectorsCount: len(c.points),
	}
}

func rankDense(c *memCollection, query []float32, filter *domain.Filter, limit int) []domain.ScoredPoint {
	var out []domain.ScoredPoint
	for key, p := range c.points {
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		out = append(out, domain.ScoredPoint{ID: key, Score: cosine(query, p.Dense), Payload: p.Payload})
	}
	return topN(out, limit)
}

func rankLexical(c *memCollection, queryText string, filter *domain.Filter, limit int) []domain.ScoredPoint {
	terms := tokenize(queryText)
	if len(terms) == 0 {
		return nil
	}
	var out []domain.ScoredPoint
	for key, p := range c.points {
		if p.Lexical == nil || !matchesFilter(p.Payload, filter) {
			continue
		}
		counts := make(map[string]int)
		for _, tok := range tokenize(p.Lexical.Text) {
			counts[tok]++
		}
		var score float64
		for _, term := range terms {
			score += float64(counts[term])
		}
		if score > 0 {
			out = append(out, domain.ScoredPoint{ID: key, Score: score, Payload: p.Payload})
		}
	}
	return topN(out, limit)
}

// topN sorts by score descending, ties broken by id, and truncates.
func topN(points []domain.ScoredPoint, n int) []domain.ScoredPoint {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Score != points[j].Score {
			return points[i].Score > points[j].Score
		}
		return points[i].ID < points[j].ID
	})
	if n >= 0 && len(points) > n {
		points = points[:n]
	}
	return points
}

// reciprocalRankFusion merges ranked lists. Each appearance contributes
// 1/(k+rank), rank starting at 1.
func reciprocalRankFusion(lists ...[]domain.ScoredPoint) []domain.ScoredPoint {
	return fuse(rrfK, lists...)
}

func fuse(k int, lists ...[]domain.ScoredPoint) []domain.ScoredPoint {
	scores := make(map[string]float64)
	payloads := make(map[string]map[string]any)

	for _, list := range lists {
		for rank, p := range list {
			scores[p.ID] += 1.0 / float64(k+rank+1)
			payloads[p.ID] = p.Payload
		}
	}

	results := make([]domain.ScoredPoint, 0, len(scores))
	for id, score := range scores {
		results = append(results, domain.ScoredPoint{ID: id, Score: score, Payload: payloads[id]})
	}
	return topN(results, -1)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesFilter(payload map[string]any, filter *domain.Filter) bool {
	if filter.IsEmpty() {
		return true
	}
	for _, c := range filter.Must {
		if !matchesCondition(payload, c) {
			return false
		}
	}
	for _, c := range filter.MustNot {
		if matchesCondition(payload, c) {
			return false
		}
	}
	return true
}

func matchesCondition(payload map[string]any, c domain.Condition) bool {
	val, ok := payload[c.Key]
	if !ok || val == nil {
		return false
	}
	if c.Range != nil {
		str, ok := val.(string)
		return ok && inRange(str, c.Range)
	}

	switch v := val.(type) {
	case []string:
		for _, item := range v {
			if item == c.Match {
				return true
			}
		}
		return false
	case []any:
		for _, item := range v {
			if item == c.Match {
				return true
			}
		}
		return false
	default:
		return val == c.Match
	}
}

// inRange compares timestamps when both sides parse, strings otherwise.
func inRange(value string, r *domain.Range) bool {
	cmp := func(a, b string) int {
		ta, errA := time.Parse(time.RFC3339, a)
		tb, errB := time.Parse(time.RFC3339, b)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		return strings.Compare(a, b)
	}
	if r.GTE != "" && cmp(value, r.GTE) < 0 {
		return false
	}
	if r.LTE != "" && cmp(value, r.LTE) > 0 {
		return false
	}
	return true
}
