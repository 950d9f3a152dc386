// Package config holds the typed view shared by the config store adapters.
package config

import (
	"strconv"
	"time"
)

// Values is a flat map of dot-notation keys ("qdrant.url") to raw values.
// TOML decodes integers as int64; values set at runtime may also be int,
// float64 or string. Missing keys and unexpected types read as zero.
type Values map[string]any

// String returns the value of key if it is a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the value of key as an int. Floats are truncated.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Float returns the value of key as a float64.
func (v Values) Float(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Bool returns the value of key if it is a bool.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Duration reads a Go duration string ("5m"), a string of whole seconds or
// a number of seconds.
func (v Values) Duration(key string) time.Duration {
	switch d := v[key].(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(d); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
