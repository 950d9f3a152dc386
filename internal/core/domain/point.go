package domain

// Collection names.
const (
	CollectionDocuments = "documents"
	CollectionMessages  = "messages"
)

// Source type discriminators stored in the source_type payload field.
const (
	SourceTypeDocument   = "document"
	SourceTypeMessage    = "message"
	SourceTypeHashMarker = "hash_marker"
)

// Payload field names.
const (
	PayloadPointKey        = "point_key"
	PayloadSource          = "source"
	PayloadSourceType      = "source_type"
	PayloadDocumentID      = "document_id"
	PayloadTitle           = "title"
	PayloadFilename        = "original_file_name"
	PayloadTags            = "tags"
	PayloadCorrespondentID = "correspondent_id"
	PayloadDocumentTypeID  = "document_type_id"
	PayloadCreatedDate     = "created_date"
	PayloadChunkIndex      = "chunk_index"
	PayloadText            = "text"
	PayloadContentHash     = "content_hash"
	PayloadSender          = "sender"
	PayloadSubject         = "subject"
	PayloadTimestamp       = "timestamp"
)

// LexicalModel is the sparse model the store uses to tokenise lexical text.
const LexicalModel = "qdrant/bm25"

// LexicalText is the raw text from which the store builds a sparse
// BM25 representation.
type LexicalText struct {
	Text  string
	Model string
}

// Point is a unit written to the vector store.
type Point struct {
	// Key is the logical key; the storage id is derived from it.
	Key string

	// Dense is the fixed-dimension embedding.
	Dense []float32

	// Lexical is optional; hash markers carry none.
	Lexical *LexicalText

	// Payload is stored verbatim; the adapter adds point_key.
	Payload map[string]any
}

// ScoredPoint is a search hit returned by the vector store.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// StoredPoint is the minimal projection of a stored point used for
// existence tracking.
type StoredPoint struct {
	Key         string
	ContentHash string
}

// CollectionInfo summarises a collection for status reports.
type CollectionInfo struct {
	Status       string
	PointsCount  int
	VectorsCount int
}

// Condition is a single payload constraint.
// Exactly one of Match or Range is set.
type Condition struct {
	Key   string
	Match any
	Range *Range
}

// Range bounds a payload value. Empty bounds are open.
type Range struct {
	GTE string
	LTE string
}

// Filter is a structured payload filter: every Must condition holds and
// no MustNot condition holds.
type Filter struct {
	Must    []Condition
	MustNot []Condition
}

// IsEmpty reports whether the filter constrains nothing.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Must) == 0 && len(f.MustNot) == 0)
}

// SearchTier names the strategy that produced a result set.
type SearchTier string

// Search tiers, best first.
const (
	TierReranked SearchTier = "reranked"
	TierHybrid   SearchTier = "hybrid"
	TierDense    SearchTier = "dense"
)
