// Package cli provides the docsearch command line interface.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by commands. They are wired in PersistentPreRunE unless a
// test has already installed them.
var (
	settingsService driving.SettingsService
	searchService   driving.SearchService
	documentService driving.DocumentService
	syncPipeline    driving.SyncPipeline
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig

	// closeServices releases resources opened during wiring.
	closeServices func() error
)

// Command annotations controlling what setup wires.
const (
	// annotationStandalone marks commands that run without wired services.
	annotationStandalone = "standalone"

	// annotationSettingsOnly marks commands that need only the settings
	// service, so they work while the configuration is invalid.
	annotationSettingsOnly = "settings-only"
)

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Semantic search over a Paperless-ngx archive",
	Long: `docsearch mirrors a Paperless-ngx document archive into a Qdrant vector
store and answers hybrid (BM25 + vector) queries, optionally reranked by a
cross-encoder. Use it from the terminal or serve it to AI assistants over MCP.

Configuration is read from ~/.docsearch/config.toml, .env files and
environment variables (PAPERLESS_URL, PAPERLESS_TOKEN, QDRANT_URL, ...).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docsearch)")
}

// Execute runs the root command and releases wired resources afterwards.
// Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, teardown())
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	switch {
	case hasAnnotation(cmd, annotationStandalone) || cmd.Name() == "help":
		return nil
	case hasAnnotation(cmd, annotationSettingsOnly):
		if settingsService != nil {
			return nil
		}
		svc, err := loadSettings(configDir)
		if err != nil {
			return err
		}
		settingsService = svc
		return nil
	case servicesWired():
		return nil
	}

	closer, err := wireServices(configDir)
	if err != nil {
		return err
	}
	closeServices = closer
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// hasAnnotation reports whether cmd or one of its parents carries key.
func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}

func servicesWired() bool {
	return settingsService != nil && searchService != nil && documentService != nil && syncPipeline != nil
}

// errNotConfigured is returned by commands run before wiring.
func errNotConfigured(name string) error {
	return errors.New(name + " not configured")
}
