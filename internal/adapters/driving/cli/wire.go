package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/reranker/infinity"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/source/paperless"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/docsearch/internal/chunker"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/services"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// wireServices builds every adapter and service from the effective
// settings and installs them in the package-level service variables.
// The returned function closes what was opened.
func wireServices(dir string) (func() error, error) {
	settingsSvc, err := loadSettings(dir)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings (see \"docsearch settings\"): %w", err)
	}

	logger.Section("Wiring")
	logger.Debug("Config: %s", settingsSvc.Path())
	logger.Debug("Paperless: %s, Qdrant: %s", settings.Paperless.URL, settings.Qdrant.URL)

	source, err := paperless.NewClient(paperless.Config{
		BaseURL:           settings.Paperless.URL,
		Token:             settings.Paperless.Token,
		RequestsPerSecond: settings.Paperless.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(settings.Embedding)
	if err != nil {
		return nil, err
	}

	store, err := qdrant.NewStore(qdrant.Config{
		URL:    settings.Qdrant.URL,
		APIKey: settings.Qdrant.APIKey,
	})
	if err != nil {
		return nil, errors.Join(err, embedder.Close())
	}

	reranker, err := newReranker(settings.Reranker)
	if err != nil {
		return nil, errors.Join(err, embedder.Close())
	}

	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("opening state database: %w", err), embedder.Close())
	}

	chunks := chunker.New(
		chunker.WithMaxChars(settings.Chunking.MaxChars),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	pipeline := services.NewSyncPipeline(source, embedder, store, chunks,
		services.SyncConfigFromSettings(settings.Sync))
	// A previous process may have died mid-run.
	pipeline.ResetInProgress()

	settingsService = settingsSvc
	searchService = services.NewSearchService(embedder, store, source, reranker)
	documentService = services.NewDocumentService(source)
	syncPipeline = pipeline
	schedulerConfig = domain.SchedulerConfigFromSync(settings.Sync)
	scheduler = services.NewScheduler(schedulerConfig, db.SchedulerStore(), pipeline)

	return func() error {
		return errors.Join(embedder.Close(), db.Close())
	}, nil
}

// loadSettings loads .env files and opens the config store. The working
// directory's .env wins over the one in the config directory.
func loadSettings(dir string) (*services.SettingsService, error) {
	if dir == "" {
		var err error
		if dir, err = defaultConfigDir(); err != nil {
			return nil, err
		}
	}
	if err := file.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(configStore), nil
}

func defaultConfigDir() (string, error) {
	store, err := file.NewConfigStore("")
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Dir(store.Path()), nil
}

// newEmbedder creates the embedding client for the configured provider.
func newEmbedder(cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case domain.AIProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case domain.AIProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// newReranker returns nil when no reranker endpoint is configured.
func newReranker(cfg domain.RerankerSettings) (driven.Reranker, error) {
	if !cfg.IsConfigured() {
		logger.Info("Reranker not configured; hybrid results are returned as-is")
		return nil, nil
	}
	r, err := infinity.NewReranker(infinity.Config{BaseURL: cfg.URL, Model: cfg.Model})
	if err != nil {
		return nil, err
	}
	logger.Info("Reranker enabled: %s (model: %s)", cfg.URL, r.ModelName())
	return r, nil
}
