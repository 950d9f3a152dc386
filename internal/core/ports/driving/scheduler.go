package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// Scheduler runs background tasks such as the periodic document sync.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// RecentRuns returns the latest document sync runs, newest first.
	// Runs recorded by other processes sharing the state database are included.
	RecentRuns(ctx context.Context, limit int) ([]domain.TaskResult, error)
}
