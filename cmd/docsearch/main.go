// Command docsearch indexes a Paperless-ngx archive into Qdrant and serves
// hybrid search over MCP and the command line.
package main

import (
	"os"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
