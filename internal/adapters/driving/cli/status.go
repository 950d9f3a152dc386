package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// statusRuns is how many scheduled runs the status command lists.
const statusRuns = 5

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status and collection statistics",
	Long: `Shows the state of the last sync run in this process, the point counts
of the documents and messages collections, and the most recent scheduled
runs recorded by "docsearch mcp serve".`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncPipeline == nil {
		return errNotConfigured("sync pipeline")
	}
	cmd.Println(mcp.FormatStatusReport(syncPipeline.Report(cmd.Context())))

	if scheduler == nil {
		return nil
	}
	runs, err := scheduler.RecentRuns(cmd.Context(), statusRuns)
	if err != nil {
		logger.Warn("reading run history: %v", err)
		return nil
	}
	if len(runs) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("### Recent Scheduled Runs")
	for _, run := range runs {
		outcome := "ok"
		if !run.Success {
			outcome = "failed: " + run.Error
		}
		cmd.Printf("  %s  %d documents in %s  %s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.ItemsProcessed,
			run.EndedAt.Sub(run.StartedAt).Round(time.Second),
			outcome)
	}
	return nil
}
