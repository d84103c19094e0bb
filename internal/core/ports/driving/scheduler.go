package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Scheduler runs background maintenance: purging expired cache entries and
// embedding chunks whose fields have no vectors yet.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns the persisted state of every task.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)
}
