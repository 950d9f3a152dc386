// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.docsearch/config.toml
//   - LoadDotEnv: optional .env files feeding environment overrides
package file
