package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the index with Paperless",
	Long: `Runs one full sync: new and changed documents are chunked, embedded and
indexed, unchanged documents are skipped by content hash, and documents
deleted from Paperless are removed from the index.

Per-document failures are reported but do not fail the command.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncPipeline == nil {
		return errNotConfigured("sync pipeline")
	}

	cmd.Println("Synchronising documents...")
	status := syncPipeline.Sync(cmd.Context())

	if status.InProgress {
		cmd.Println("A sync is already running; try again when it finishes.")
		return nil
	}

	cmd.Printf("Processed %d documents (%d chunks embedded)\n", status.DocumentsProcessed, status.ChunksTotal)

	for _, msg := range status.Errors {
		if !strings.HasPrefix(msg, domain.SyncFailedPrefix) {
			cmd.PrintErrf("  - %s\n", msg)
		}
	}
	if failure, failed := status.RunFailure(); failed {
		return errors.New(failure)
	}
	if n := len(status.Errors); n > 0 {
		cmd.Printf("Completed with %d document errors.\n", n)
		return nil
	}
	cmd.Println("Sync complete.")
	return nil
}
