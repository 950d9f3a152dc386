package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docsearch/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve the streamable HTTP transport at /mcp instead, with a health check at
/health.

While serving, documents are synced from Paperless in the background: first
after a short startup delay, then every few minutes (see sync.interval).

Examples:
  # Stdio mode (for desktop assistants)
  docsearch mcp serve

  # HTTP mode (for Open WebUI, MCP Inspector, remote access)
  docsearch mcp serve --port 8775`,
	RunE: runMCPServe,
}

var (
	mcpPort       int
	mcpNoAutoSync bool
)

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().BoolVar(&mcpNoAutoSync, "no-auto-sync", false, "disable background sync")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	logger.SetTimestamps(true)

	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Documents: documentService,
		Sync:      syncPipeline,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !mcpNoAutoSync && schedulerConfig.Enabled && scheduler != nil {
		defer startScheduler(ctx, cancel)()
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://localhost%s/mcp\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		cmd.PrintErrln("Waiting for an MCP client on stdin (Ctrl+C to exit).")
	}
	return server.Run(ctx)
}

// startScheduler runs the scheduler in the background. The returned
// function cancels it, stops it and waits for Start to return, so a
// server that fails to listen never leaves a late-starting loop behind.
func startScheduler(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			// Scheduler errors shouldn't stop the server
			logger.Error("scheduler stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		if err := scheduler.Stop(); err != nil {
			logger.Error("scheduler stop error: %v", err)
		}
		<-done
	}
}
