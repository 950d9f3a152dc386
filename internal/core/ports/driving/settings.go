package driving

import "github.com/custodia-labs/docsearch/internal/core/domain"

// SettingsService resolves application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, overlaid by the config
	// file, overlaid by environment variables.
	Get() (*domain.Settings, error)

	// Set stores a single configuration value in the config file.
	Set(key string, value any) error

	// Keys returns every settable key, sorted.
	Keys() []string

	// Path returns the config file location.
	Path() string
}
