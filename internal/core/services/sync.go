package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure SyncPipeline implements the interface.
var _ driving.SyncPipeline = (*SyncPipeline)(nil)

// Sync defaults.
const (
	DefaultBatchSize       = 10
	DefaultDocumentTimeout = 2 * time.Minute

	sourcePaperless = "paperless"
)

// SyncConfig tunes the sync pipeline.
type SyncConfig struct {
	// Collection is the collection documents are written to.
	Collection string

	// BatchSize is the number of chunks embedded per request.
	BatchSize int

	// DocumentTimeout bounds fetching and indexing one document.
	DocumentTimeout time.Duration
}

// SyncConfigFromSettings derives the pipeline configuration from settings.
func SyncConfigFromSettings(s domain.SyncSettings) SyncConfig {
	return SyncConfig{
		Collection:      domain.CollectionDocuments,
		BatchSize:       s.BatchSize,
		DocumentTimeout: s.DocumentTimeout,
	}
}

// SyncPipeline mirrors the document source into the vector store.
// Only one run executes at a time.
type SyncPipeline struct {
	source   driven.DocumentSource
	embedder driven.EmbeddingService
	store    driven.VectorStore
	chunker  driven.Chunker
	cfg      SyncConfig

	mu     sync.Mutex
	status domain.SyncStatus

	// now is replaced in tests.
	now func() time.Time
}

// NewSyncPipeline creates a sync pipeline. Zero config values take defaults.
func NewSyncPipeline(
	source driven.DocumentSource,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	chunker driven.Chunker,
	cfg SyncConfig,
) *SyncPipeline {
	if cfg.Collection == "" {
		cfg.Collection = domain.CollectionDocuments
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = DefaultDocumentTimeout
	}
	return &SyncPipeline{
		source:   source,
		embedder: embedder,
		store:    store,
		chunker:  chunker,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Status returns a snapshot of the sync status.
func (p *SyncPipeline) Status(_ context.Context) domain.SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.Clone()
}

// Report returns the sync status with statistics for every known collection.
func (p *SyncPipeline) Report(ctx context.Context) domain.StatusReport {
	report := domain.StatusReport{
		Sync:        p.Status(ctx),
		Collections: make(map[string]domain.CollectionInfo),
	}
	for _, name := range domain.ScopeAll.Collections() {
		if info := p.store.GetCollectionInfo(ctx, name); info != nil {
			report.Collections[name] = *info
		}
	}
	return report
}

// ResetInProgress clears a stale in-progress flag. Called at startup since
// a run interrupted by process termination never clears it.
func (p *SyncPipeline) ResetInProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.InProgress = false
}

// Sync runs one full sync. A call made while a run is in progress returns
// the current status and does nothing.
func (p *SyncPipeline) Sync(ctx context.Context) (status domain.SyncStatus) {
	if !p.begin() {
		logger.Info("Sync already in progress, skipping")
		return p.Status(ctx)
	}

	var processed, chunks int
	defer func() {
		p.finish(processed, chunks)
		status = p.Status(ctx)
	}()

	logger.Section("Sync")
	processed, chunks, err := p.run(ctx)
	if err != nil {
		logger.Error("sync failed: %v", err)
		p.recordError(fmt.Sprintf("%s %v", domain.SyncFailedPrefix, err))
	}
	logger.Info("Sync finished: %d documents, %d chunks embedded", processed, chunks)
	return status
}

func (p *SyncPipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.InProgress {
		return false
	}
	p.status.InProgress = true
	p.status.Errors = nil
	return true
}

func (p *SyncPipeline) finish(processed, chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.status.LastSync = &now
	p.status.DocumentsProcessed = processed
	p.status.ChunksTotal = chunks
	p.status.InProgress = false
}

func (p *SyncPipeline) recordError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Errors = append(p.status.Errors, msg)
}

// run performs the sync steps and returns the counts reached so far.
// Per-document failures are recorded and do not stop the run.
func (p *SyncPipeline) run(ctx context.Context) (processed, chunks int, err error) {
	collection := p.cfg.Collection

	// 1. Ensure collection schema
	if err := p.store.EnsureCollection(ctx, collection, p.embedder.Dimensions()); err != nil {
		return 0, 0, fmt.Errorf("ensure collection: %w", err)
	}

	// 2. Current document ids
	docIDs, err := p.source.ListDocumentIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list documents: %w", err)
	}
	logger.Debug("Source has %d documents", len(docIDs))

	// 3. Stored keys and recorded hashes
	stored, err := p.store.ScrollPoints(ctx, collection)
	if err != nil {
		return 0, 0, fmt.Errorf("scroll points: %w", err)
	}
	index := newStoredIndex(stored)
	logger.Debug("Index has %d points", len(stored))

	// 4. Tombstones for documents gone from the source
	if err := p.deleteTombstones(ctx, index, docIDs); err != nil {
		return 0, 0, fmt.Errorf("delete removed documents: %w", err)
	}

	// 5. Each current document
	tags := &tagCache{source: p.source}
	for _, id := range docIDs {
		if err := ctx.Err(); err != nil {
			return processed, chunks, err
		}

		n, err := p.syncDocument(ctx, id, index, tags)
		if err != nil {
			logger.Warn("Doc %d: %v", id, err)
			p.recordError(fmt.Sprintf("Doc %d: %v", id, err))
			continue
		}
		processed++
		chunks += n
	}

	return processed, chunks, nil
}

func (p *SyncPipeline) deleteTombstones(ctx context.Context, index *storedIndex, docIDs []int) error {
	current := make(map[int]struct{}, len(docIDs))
	for _, id := range docIDs {
		current[id] = struct{}{}
	}

	var toDelete []string
	for key := range index.keys {
		parsed, err := domain.ParseKey(key)
		if err != nil {
			logger.Warn("Leaving unrecognised point in place: %v", err)
			continue
		}
		if _, ok := current[parsed.DocumentID]; !ok {
			toDelete = append(toDelete, key)
		}
	}

	if len(toDelete) == 0 {
		return nil
	}
	logger.Info("Deleting %d points of removed documents", len(toDelete))
	return p.store.DeleteByKeys(ctx, p.cfg.Collection, toDelete)
}

// syncDocument fetches and indexes one document under the per-document timeout.
func (p *SyncPipeline) syncDocument(ctx context.Context, id int, index *storedIndex, tags *tagCache) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.DocumentTimeout)
	defer cancel()

	doc, err := p.source.GetDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.processDocument(ctx, doc, index, tags)
}

// processDocument indexes a document unless its hash matches the recorded
// one. Returns the number of chunks embedded.
func (p *SyncPipeline) processDocument(
	ctx context.Context,
	doc *domain.Document,
	index *storedIndex,
	tags *tagCache,
) (int, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return 0, nil
	}

	hash := DocumentHash(doc)
	if index.unchanged(doc.ID, hash) {
		return 0, nil
	}

	// Stale keys go before new points are written
	if old := index.keys.WithPrefix(domain.DocPrefix(doc.ID)); len(old) > 0 {
		if err := p.store.DeleteByKeys(ctx, p.cfg.Collection, old); err != nil {
			return 0, fmt.Errorf("delete old chunks: %w", err)
		}
	}

	chunks := p.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	tagNames, err := tags.names(ctx, doc.TagIDs)
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}

	lexicalPrefix := normaliseFilename(doc.Filename)
	points := make([]domain.Point, 0, len(chunks)+1)

	for start := 0; start < len(chunks); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embed: %w: got %d vectors for %d chunks",
				domain.ErrTransport, len(vectors), len(batch))
		}

		for i, c := range batch {
			lexical := c.Text
			if lexicalPrefix != "" {
				lexical = lexicalPrefix + " " + c.Text
			}
			points = append(points, domain.Point{
				Key:     domain.ContentKey(doc.ID, c.Index),
				Dense:   vectors[i],
				Lexical: &domain.LexicalText{Text: lexical, Model: domain.LexicalModel},
				Payload: chunkPayload(doc, c, tagNames, hash),
			})
		}
	}

	points = append(points, domain.Point{
		Key:   domain.HashKey(doc.ID),
		Dense: make([]float32, p.embedder.Dimensions()),
		Payload: map[string]any{
			domain.PayloadSource:      sourcePaperless,
			domain.PayloadSourceType:  domain.SourceTypeHashMarker,
			domain.PayloadDocumentID:  doc.ID,
			domain.PayloadContentHash: hash,
		},
	})

	if err := p.store.UpsertPoints(ctx, p.cfg.Collection, points); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	logger.Debug("Doc %d: indexed %d chunks", doc.ID, len(chunks))
	return len(chunks), nil
}

func chunkPayload(doc *domain.Document, c domain.Chunk, tagNames []string, hash string) map[string]any {
	payload := map[string]any{
		domain.PayloadSource:          sourcePaperless,
		domain.PayloadSourceType:      domain.SourceTypeDocument,
		domain.PayloadDocumentID:      doc.ID,
		domain.PayloadTitle:           doc.Title,
		domain.PayloadFilename:        doc.Filename,
		domain.PayloadTags:            tagNames,
		domain.PayloadCorrespondentID: intOrNil(doc.CorrespondentID),
		domain.PayloadDocumentTypeID:  intOrNil(doc.DocumentTypeID),
		domain.PayloadChunkIndex:      c.Index,
		domain.PayloadText:            c.Text,
		domain.PayloadContentHash:     hash,
	}
	if !doc.Created.IsZero() {
		payload[domain.PayloadCreatedDate] = doc.Created.Format(time.RFC3339)
	}
	return payload
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// DocumentHash returns the hex MD5 fingerprint used to detect changes.
// Tag ids are folded in so retagging refreshes the tags payload; an
// untagged document hashes its content alone.
func DocumentHash(doc *domain.Document) string {
	h := md5.New() //nolint:gosec // fingerprint only
	h.Write([]byte(doc.Content))
	if len(doc.TagIDs) > 0 {
		ids := slices.Sorted(slices.Values(doc.TagIDs))
		h.Write([]byte("\x00tags:"))
		for i, id := range ids {
			if i > 0 {
				h.Write([]byte{','})
			}
			h.Write([]byte(strconv.Itoa(id)))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

var filenameSeparators = strings.NewReplacer("_", " ", "-", " ")

// normaliseFilename turns separators into spaces so filename words are
// matched by keyword search.
func normaliseFilename(name string) string {
	return filenameSeparators.Replace(name)
}

// storedIndex is the run's view of what the collection holds.
type storedIndex struct {
	keys domain.KeySet

	// hashes maps document id to the content hash on its hash marker.
	hashes map[int]string
}

func newStoredIndex(points []domain.StoredPoint) *storedIndex {
	idx := &storedIndex{
		keys:   make(domain.KeySet, len(points)),
		hashes: make(map[int]string),
	}
	for _, sp := range points {
		idx.keys[sp.Key] = struct{}{}
		parsed, err := domain.ParseKey(sp.Key)
		if err != nil || !parsed.IsHashMarker() {
			continue
		}
		idx.hashes[parsed.DocumentID] = sp.ContentHash
	}
	return idx
}

// unchanged reports whether the document's hash marker exists and records hash.
func (s *storedIndex) unchanged(docID int, hash string) bool {
	return s.keys.Has(domain.HashKey(docID)) && s.hashes[docID] == hash
}

// tagCache fetches the tag list at most once per run.
type tagCache struct {
	source driven.DocumentSource
	byID   map[int]string
}

func (c *tagCache) names(ctx context.Context, ids []int) ([]string, error) {
	if c.byID == nil {
		tags, err := c.source.ListTags(ctx)
		if err != nil {
			return nil, err
		}
		c.byID = make(map[int]string, len(tags))
		for _, t := range tags {
			c.byID[t.ID] = t.Name
		}
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := c.byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
