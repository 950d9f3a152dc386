package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SyncPipeline keeps the vector index consistent with the document source.
type SyncPipeline interface {
	// Sync runs one full sync and returns the resulting status.
	// If a run is already in progress the current status is returned
	// unchanged and no work is started.
	Sync(ctx context.Context) domain.SyncStatus

	// Status returns a snapshot of the sync status without triggering work.
	Status(ctx context.Context) domain.SyncStatus

	// Report returns the sync status together with collection statistics.
	Report(ctx context.Context) domain.StatusReport
}
