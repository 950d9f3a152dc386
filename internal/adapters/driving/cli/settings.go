package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsearch/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the settings stored in the config file.

Environment variables (and .env files) override stored values, so "show"
prints the effective configuration.`,
	Annotations: map[string]string{annotationSettingsOnly: ""},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a setting in the config file",
	Long: `Store a single setting in the config file. Secrets (tokens and API keys)
may be omitted from the command line; you will be prompted for them.

Run "docsearch settings keys" for the list of keys.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runSettingsPath,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Paperless]")
	cmd.Printf("  URL: %s\n", settings.Paperless.URL)
	cmd.Printf("  Token: %s\n", maskSecret(settings.Paperless.Token))
	cmd.Printf("  Requests/second: %g\n", settings.Paperless.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[Qdrant]")
	cmd.Printf("  URL: %s\n", settings.Qdrant.URL)
	cmd.Printf("  API Key: %s\n", maskSecret(settings.Qdrant.APIKey))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskSecret(settings.Embedding.APIKey))
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Reranker]")
	if settings.Reranker.IsConfigured() {
		cmd.Printf("  URL: %s\n", settings.Reranker.URL)
		cmd.Printf("  Model: %s\n", settings.Reranker.Model)
	} else {
		cmd.Println("  Disabled (set reranker.url or RERANKER_URL to enable)")
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max chars: %d\n", settings.Chunking.MaxChars)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Batch size: %d\n", settings.Sync.BatchSize)
	cmd.Printf("  Document timeout: %s\n", settings.Sync.DocumentTimeout)
	cmd.Printf("  Auto sync: %t\n", settings.Sync.AutoSync)
	cmd.Printf("  Interval: %s\n", settings.Sync.Interval)
	cmd.Printf("  Initial delay: %s\n", settings.Sync.InitialDelay)
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	cmd.Printf("Data directory: %s\n", settings.DataDir)

	if err := settings.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case services.IsSecretKey(key):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	shown := value
	if services.IsSecretKey(key) {
		shown = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}
	cmd.Println(settingsService.Path())
	return nil
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "..." + secret[len(secret)-4:]
	}
}
