package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// PaperlessSettings configures the document source.
type PaperlessSettings struct {
	URL   string
	Token string

	// RequestsPerSecond throttles calls to the source. Zero disables throttling.
	RequestsPerSecond float64
}

// QdrantSettings configures the vector store.
type QdrantSettings struct {
	URL    string
	APIKey string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size the collection is created with.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RerankerSettings configures the optional cross-encoder.
type RerankerSettings struct {
	URL   string
	Model string
}

// IsConfigured returns true when a reranker endpoint is set.
func (r RerankerSettings) IsConfigured() bool {
	return r.URL != ""
}

// ChunkSettings controls document splitting.
type ChunkSettings struct {
	MaxChars int
	Overlap  int
}

// SyncSettings controls the sync pipeline and its schedule.
type SyncSettings struct {
	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// DocumentTimeout bounds the work on a single document.
	DocumentTimeout time.Duration

	// AutoSync enables the background schedule while serving.
	AutoSync bool

	// Interval is the time between scheduled runs.
	Interval time.Duration

	// InitialDelay is the wait before the first scheduled run.
	InitialDelay time.Duration
}

// Settings is the complete application configuration.
type Settings struct {
	Paperless PaperlessSettings
	Qdrant    QdrantSettings
	Embedding EmbeddingSettings
	Reranker  RerankerSettings
	Chunking  ChunkSettings
	Sync      SyncSettings

	// DataDir holds local state (scheduler database).
	DataDir string
}

// DefaultSettings returns sensible defaults for a homelab deployment.
func DefaultSettings() Settings {
	return Settings{
		Paperless: PaperlessSettings{
			URL:               "http://paperless:8000",
			RequestsPerSecond: 20,
		},
		Qdrant: QdrantSettings{
			URL: "http://qdrant:6333",
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "nomic-embed-text",
			BaseURL:    "http://host.docker.internal:11434",
			Dimensions: 768,
		},
		Reranker: RerankerSettings{
			Model: "BAAI/bge-reranker-v2-m3",
		},
		Chunking: ChunkSettings{
			MaxChars: 1000,
			Overlap:  200,
		},
		Sync: SyncSettings{
			BatchSize:       10,
			DocumentTimeout: 2 * time.Minute,
			AutoSync:        true,
			Interval:        5 * time.Minute,
			InitialDelay:    30 * time.Second,
		},
	}
}

// Validate checks the settings for values the pipeline cannot work with.
func (s Settings) Validate() error {
	if s.Paperless.URL == "" {
		return fmt.Errorf("%w: paperless url is required", ErrInvalidInput)
	}
	if s.Qdrant.URL == "" {
		return fmt.Errorf("%w: qdrant url is required", ErrInvalidInput)
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidInput)
	}
	if s.Chunking.MaxChars <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.MaxChars {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d)", ErrInvalidInput, s.Chunking.MaxChars)
	}
	if s.Sync.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	return nil
}
