package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// rerankFetchFactor over-fetches candidates so the reranker has room to reorder.
const rerankFetchFactor = 3

// collectionHit is a scored point tagged with its collection.
type collectionHit struct {
	collection string
	point      domain.ScoredPoint
}

// SearchService runs hybrid search across collections with optional reranking.
type SearchService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	source   driven.DocumentSource
	reranker driven.Reranker
}

// NewSearchService creates a new search service.
// The reranker is optional (can be nil).
func NewSearchService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	source driven.DocumentSource,
	reranker driven.Reranker,
) *SearchService {
	return &SearchService{
		embedder: embedder,
		store:    store,
		source:   source,
		reranker: reranker,
	}
}

// Search embeds the query, searches every collection in scope and returns
// ranked results. Unknown tags are reported as warnings.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if !req.Scope.Valid() {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, req.Scope)
	}

	limit := clampLimit(req.Limit)
	fetchLimit := limit
	if s.reranker != nil {
		fetchLimit = min(limit*rerankFetchFactor, domain.MaxSearchLimit)
	}

	logger.Section("Search")
	logger.Debug("Query: %q, scope: %s, limit: %d (fetch %d)", query, req.Scope, limit, fetchLimit)

	filter, invalidTags, err := s.buildFilter(ctx, req)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, tier := s.searchCollections(ctx, req.Scope.Collections(), vector, query, fetchLimit, filter)

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].point.Score > hits[j].point.Score
	})

	if s.reranker != nil && len(hits) > 0 {
		if reranked, ok := s.rerank(ctx, query, hits, limit); ok {
			hits = reranked
			tier = domain.TierReranked
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}

	resp := &domain.SearchResponse{
		Results:     make([]domain.SearchResult, 0, len(hits)),
		InvalidTags: invalidTags,
		Tier:        tier,
	}
	for _, h := range hits {
		resp.Results = append(resp.Results, domain.SearchResult{
			Collection: h.collection,
			Score:      h.point.Score,
			Text:       payloadString(h.point.Payload, domain.PayloadText),
			Meta:       FormatResultMeta(h.point.Payload),
			Payload:    h.point.Payload,
		})
	}
	if len(invalidTags) > 0 {
		quoted := make([]string, len(invalidTags))
		for i, t := range invalidTags {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		resp.Warnings = append(resp.Warnings, fmt.Sprintf(
			"Tag(s) not found and ignored: %s. Use list_tags to see valid tags.",
			strings.Join(quoted, ", ")))
	}

	logger.Info("Search returned %d results (%s)", len(resp.Results), tier)
	return resp, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return domain.DefaultSearchLimit
	case limit > domain.MaxSearchLimit:
		return domain.MaxSearchLimit
	default:
		return limit
	}
}

// buildFilter translates the request into a payload filter. Hash markers are
// always excluded. Tags are resolved case-insensitively; unmatched ones are
// returned rather than constrained on.
func (s *SearchService) buildFilter(ctx context.Context, req domain.SearchRequest) (*domain.Filter, []string, error) {
	filter := &domain.Filter{
		MustNot: []domain.Condition{
			{Key: domain.PayloadSourceType, Match: domain.SourceTypeHashMarker},
		},
	}

	switch req.Scope {
	case domain.ScopeAll:
	case domain.ScopeMessage:
		filter.Must = append(filter.Must, domain.Condition{Key: domain.PayloadSourceType, Match: domain.SourceTypeMessage})
	default:
		filter.Must = append(filter.Must, domain.Condition{Key: domain.PayloadSourceType, Match: domain.SourceTypeDocument})
	}

	var invalid []string
	if len(req.Tags) > 0 {
		tags, err := s.source.ListTags(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list tags: %w", err)
		}
		canonical := make(map[string]string, len(tags))
		for _, t := range tags {
			canonical[strings.ToLower(t.Name)] = t.Name
		}
		for _, requested := range req.Tags {
			name, ok := canonical[strings.ToLower(requested)]
			if !ok {
				invalid = append(invalid, requested)
				continue
			}
			filter.Must = append(filter.Must, domain.Condition{Key: domain.PayloadTags, Match: name})
		}
	}

	if !req.DateAfter.IsZero() {
		filter.Must = append(filter.Must, domain.Condition{
			Key:   domain.PayloadCreatedDate,
			Range: &domain.Range{GTE: req.DateAfter.Format(time.RFC3339)},
		})
	}
	if !req.DateBefore.IsZero() {
		filter.Must = append(filter.Must, domain.Condition{
			Key:   domain.PayloadCreatedDate,
			Range: &domain.Range{LTE: req.DateBefore.Format(time.RFC3339)},
		})
	}

	return filter, invalid, nil
}

// searchCollections queries each collection concurrently. Missing
// collections are skipped and failing ones contribute nothing. The tier
// is dense if any collection had to fall back.
func (s *SearchService) searchCollections(
	ctx context.Context,
	collections []string,
	vector []float32,
	query string,
	limit int,
	filter *domain.Filter,
) ([]collectionHit, domain.SearchTier) {
	// one slot per collection keeps the merge order deterministic
	slots := make([][]collectionHit, len(collections))
	fellBack := make([]bool, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range collections {
		g.Go(func() error {
			exists, err := s.store.CollectionExists(gctx, name)
			if err != nil {
				logger.Warn("Collection %s: %v", name, err)
				return nil
			}
			if !exists {
				logger.Debug("Collection %s does not exist yet, skipping", name)
				return nil
			}

			points, used, err := s.store.HybridSearch(gctx, name, vector, query, limit, filter)
			if err != nil {
				logger.Warn("Search in %s failed: %v", name, err)
				return nil
			}

			for _, p := range points {
				slots[i] = append(slots[i], collectionHit{collection: name, point: p})
			}
			fellBack[i] = used == domain.TierDense
			return nil
		})
	}
	_ = g.Wait()

	var hits []collectionHit
	tier := domain.TierHybrid
	for i := range slots {
		hits = append(hits, slots[i]...)
		if fellBack[i] {
			tier = domain.TierDense
		}
	}
	return hits, tier
}

// rerank reorders hits by cross-encoder relevance. On failure the hybrid
// order is kept and ok is false.
func (s *SearchService) rerank(ctx context.Context, query string, hits []collectionHit, topN int) ([]collectionHit, bool) {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = payloadString(h.point.Payload, domain.PayloadText)
	}

	indices, err := s.reranker.Rerank(ctx, query, texts, topN)
	if err != nil {
		logger.Warn("Reranking with %s failed, falling back to %s order: %v",
			s.reranker.ModelName(), domain.TierHybrid, err)
		return nil, false
	}

	seen := make(map[int]struct{}, len(indices))
	out := make([]collectionHit, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(hits) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, hits[idx])
	}
	return out, true
}

const metaSeparator = " — "

// FormatResultMeta renders a one-line description of a hit's source.
func FormatResultMeta(payload map[string]any) string {
	switch payloadString(payload, domain.PayloadSourceType) {
	case domain.SourceTypeDocument:
		title := payloadString(payload, domain.PayloadTitle)
		if title == "" {
			title = "Untitled"
		}
		parts := []string{title}
		if filename := payloadString(payload, domain.PayloadFilename); filename != "" {
			parts = append(parts, "("+filename+")")
		}
		if date := formatPayloadDate(payloadString(payload, domain.PayloadCreatedDate)); date != "" {
			parts = append(parts, date)
		}
		if tags := payloadStrings(payload, domain.PayloadTags); len(tags) > 0 {
			parts = append(parts, "["+strings.Join(tags, ", ")+"]")
		}
		if id, ok := payloadInt(payload, domain.PayloadDocumentID); ok {
			parts = append(parts, fmt.Sprintf("ID: %d", id))
		}
		return strings.Join(parts, metaSeparator)

	case domain.SourceTypeMessage:
		sender := payloadString(payload, domain.PayloadSender)
		if sender == "" {
			sender = "Unknown"
		}
		parts := []string{sender}
		if subject := payloadString(payload, domain.PayloadSubject); subject != "" {
			parts = append(parts, subject)
		}
		if date := formatPayloadDate(payloadString(payload, domain.PayloadTimestamp)); date != "" {
			parts = append(parts, date)
		}
		return strings.Join(parts, metaSeparator)
	}

	if title := payloadString(payload, domain.PayloadTitle); title != "" {
		return title
	}
	if source := payloadString(payload, domain.PayloadSource); source != "" {
		return source
	}
	return "Unknown"
}

// formatPayloadDate shortens a stored timestamp to a date. Values that do
// not parse are shown as stored.
func formatPayloadDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return value
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadStrings(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// payloadInt reads a numeric payload field. JSON-decoded payloads carry
// numbers as float64.
func payloadInt(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
