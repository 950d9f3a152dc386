package driven

import "time"

// ConfigStore is the persisted settings file. Keys use dot notation that
// mirrors the file's tables ("qdrant.url" is url in [qdrant]). Typed getters
// return the zero value for missing keys and unexpected types.
type ConfigStore interface {
	// Get reports the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// GetDuration accepts Go duration strings ("5m") or whole seconds.
	GetDuration(key string) time.Duration

	// Set stores the value and persists it immediately.
	Set(key string, value any) error

	// Path names the backing file.
	Path() string
}
