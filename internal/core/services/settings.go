package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyPaperlessURL      = "paperless.url"
	keyPaperlessToken    = "paperless.token"
	keyPaperlessRate     = "paperless.requests_per_second"
	keyQdrantURL         = "qdrant.url"
	keyQdrantAPIKey      = "qdrant.api_key"
	keyEmbeddingProvider = "embedding.provider"
	keyEmbeddingModel    = "embedding.model"
	keyEmbeddingBaseURL  = "embedding.base_url"
	keyEmbeddingAPIKey   = "embedding.api_key"
	keyEmbeddingDims     = "embedding.dimensions"
	keyRerankerURL       = "reranker.url"
	keyRerankerModel     = "reranker.model"
	keyChunkMaxChars     = "chunking.max_chars"
	keyChunkOverlap      = "chunking.overlap"
	keySyncBatchSize     = "sync.batch_size"
	keySyncDocTimeout    = "sync.document_timeout"
	keySyncAuto          = "sync.auto_sync"
	keySyncInterval      = "sync.interval"
	keySyncInitialDelay  = "sync.initial_delay"
	keyDataDir           = "data_dir"
)

// settingKind is the type a setting is stored as.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]settingKind{
	keyPaperlessURL:      kindString,
	keyPaperlessToken:    kindString,
	keyPaperlessRate:     kindFloat,
	keyQdrantURL:         kindString,
	keyQdrantAPIKey:      kindString,
	keyEmbeddingProvider: kindProvider,
	keyEmbeddingModel:    kindString,
	keyEmbeddingBaseURL:  kindString,
	keyEmbeddingAPIKey:   kindString,
	keyEmbeddingDims:     kindInt,
	keyRerankerURL:       kindString,
	keyRerankerModel:     kindString,
	keyChunkMaxChars:     kindInt,
	keyChunkOverlap:      kindInt,
	keySyncBatchSize:     kindInt,
	keySyncDocTimeout:    kindDuration,
	keySyncAuto:          kindBool,
	keySyncInterval:      kindDuration,
	keySyncInitialDelay:  kindDuration,
	keyDataDir:           kindString,
}

// IsSecretKey reports whether a setting holds a credential.
func IsSecretKey(key string) bool {
	switch key {
	case keyPaperlessToken, keyQdrantAPIKey, keyEmbeddingAPIKey:
		return true
	}
	return false
}

// Environment variables. These override the config file.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvPaperlessURL      = "PAPERLESS_URL"
	EnvPaperlessToken    = "PAPERLESS_TOKEN"
	EnvQdrantURL         = "QDRANT_URL"
	EnvQdrantAPIKey      = "QDRANT_API_KEY"
	EnvOllamaURL         = "OLLAMA_URL"
	EnvOpenAIBaseURL     = "OPENAI_BASE_URL"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvEmbeddingProvider = "EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "EMBEDDING_MODEL"
	EnvEmbeddingDims     = "EMBEDDING_DIMENSIONS"
	EnvRerankerURL       = "RERANKER_URL"
	EnvRerankerModel     = "RERANKER_MODEL"
	EnvDataDir           = "DOCSEARCH_DATA_DIR"
)

// OpenAI embedding defaults, applied when the provider is switched to openai
// without naming a model or endpoint.
const (
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOpenAIDimensions = 1536
)

// SettingsService resolves settings from defaults, the config store and
// the environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore

	// lookupEnv is replaced in tests.
	lookupEnv func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get returns the effective settings. Malformed environment values are
// reported as errors wrapping domain.ErrInvalidInput. The result is not
// validated; call Validate on it before building collaborators.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	// Provider first: it decides which embedding defaults apply.
	provider := s.getProvider(settings.Embedding.Provider)
	if env, ok := s.env(EnvEmbeddingProvider); ok {
		p := domain.AIProvider(strings.ToLower(env))
		if !p.IsValid() {
			return nil, fmt.Errorf("%w: %s=%q", domain.ErrInvalidInput, EnvEmbeddingProvider, env)
		}
		provider = p
	}
	settings.Embedding.Provider = provider
	if provider == domain.AIProviderOpenAI {
		settings.Embedding.BaseURL = DefaultOpenAIBaseURL
		settings.Embedding.Model = DefaultOpenAIModel
		settings.Embedding.Dimensions = DefaultOpenAIDimensions
	}

	s.applyConfig(&settings)
	if err := s.applyEnv(&settings); err != nil {
		return nil, err
	}

	if settings.DataDir == "" {
		settings.DataDir = s.defaultDataDir()
	}
	return &settings, nil
}

// Set stores a single configuration value. String values are converted to
// the type the key is stored as. Unknown keys and malformed values return
// an error wrapping domain.ErrInvalidInput.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if raw, isString := value.(string); isString {
		parsed, err := parseSetting(kind, raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		value = parsed
	}
	return s.configStore.Set(key, value)
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseSetting(kind settingKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not true or false", raw)
		}
		return b, nil
	case kindDuration:
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%q is not a duration such as 5m", raw)
		}
		return raw, nil
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(raw))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", raw)
		}
		return string(p), nil
	default:
		return raw, nil
	}
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) applyConfig(settings *domain.Settings) {
	settings.Paperless.URL = s.getString(keyPaperlessURL, settings.Paperless.URL)
	settings.Paperless.Token = s.getString(keyPaperlessToken, settings.Paperless.Token)
	settings.Paperless.RequestsPerSecond = s.getFloat(keyPaperlessRate, settings.Paperless.RequestsPerSecond)

	settings.Qdrant.URL = s.getString(keyQdrantURL, settings.Qdrant.URL)
	settings.Qdrant.APIKey = s.getString(keyQdrantAPIKey, settings.Qdrant.APIKey)

	settings.Embedding.Model = s.getString(keyEmbeddingModel, settings.Embedding.Model)
	settings.Embedding.BaseURL = s.getString(keyEmbeddingBaseURL, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = s.getString(keyEmbeddingAPIKey, settings.Embedding.APIKey)
	settings.Embedding.Dimensions = s.getInt(keyEmbeddingDims, settings.Embedding.Dimensions)

	settings.Reranker.URL = s.getString(keyRerankerURL, settings.Reranker.URL)
	settings.Reranker.Model = s.getString(keyRerankerModel, settings.Reranker.Model)

	settings.Chunking.MaxChars = s.getInt(keyChunkMaxChars, settings.Chunking.MaxChars)
	if _, exists := s.configStore.Get(keyChunkOverlap); exists {
		settings.Chunking.Overlap = s.configStore.GetInt(keyChunkOverlap)
	}

	settings.Sync.BatchSize = s.getInt(keySyncBatchSize, settings.Sync.BatchSize)
	if d := s.configStore.GetDuration(keySyncDocTimeout); d > 0 {
		settings.Sync.DocumentTimeout = d
	}
	settings.Sync.AutoSync = s.getBool(keySyncAuto, settings.Sync.AutoSync)
	if d := s.configStore.GetDuration(keySyncInterval); d > 0 {
		settings.Sync.Interval = d
	}
	if _, exists := s.configStore.Get(keySyncInitialDelay); exists {
		settings.Sync.InitialDelay = s.configStore.GetDuration(keySyncInitialDelay)
	}

	settings.DataDir = s.getString(keyDataDir, settings.DataDir)
}

func (s *SettingsService) applyEnv(settings *domain.Settings) error {
	s.setFromEnv(EnvPaperlessURL, &settings.Paperless.URL)
	s.setFromEnv(EnvPaperlessToken, &settings.Paperless.Token)
	s.setFromEnv(EnvQdrantURL, &settings.Qdrant.URL)
	s.setFromEnv(EnvQdrantAPIKey, &settings.Qdrant.APIKey)
	s.setFromEnv(EnvEmbeddingModel, &settings.Embedding.Model)
	s.setFromEnv(EnvRerankerURL, &settings.Reranker.URL)
	s.setFromEnv(EnvRerankerModel, &settings.Reranker.Model)
	s.setFromEnv(EnvDataDir, &settings.DataDir)

	switch settings.Embedding.Provider {
	case domain.AIProviderOpenAI:
		s.setFromEnv(EnvOpenAIBaseURL, &settings.Embedding.BaseURL)
		s.setFromEnv(EnvOpenAIAPIKey, &settings.Embedding.APIKey)
	default:
		s.setFromEnv(EnvOllamaURL, &settings.Embedding.BaseURL)
	}

	if env, ok := s.env(EnvEmbeddingDims); ok {
		dims, err := strconv.Atoi(env)
		if err != nil || dims <= 0 {
			return fmt.Errorf("%w: %s=%q", domain.ErrInvalidInput, EnvEmbeddingDims, env)
		}
		settings.Embedding.Dimensions = dims
	}
	return nil
}

// env returns a non-empty environment value.
func (s *SettingsService) env(name string) (string, bool) {
	val, ok := s.lookupEnv(name)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

func (s *SettingsService) setFromEnv(name string, dst *string) {
	if val, ok := s.env(name); ok {
		*dst = val
	}
}

// defaultDataDir keeps local state beside the config file.
func (s *SettingsService) defaultDataDir() string {
	path := s.configStore.Path()
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Dir(path)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyEmbeddingProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
