package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CacheStore persists semantic cache entries.
// Implementations must tolerate concurrent use and return copies, so an entry
// handed to a reader stays valid after a purge deletes its row.
type CacheStore interface {
	// Insert stores a new entry. Fails with domain.ErrAlreadyExists if an entry
	// with identical query text exists.
	Insert(ctx context.Context, entry *domain.CacheEntry) error

	// Replace stores an entry, deleting any entry with identical query text.
	Replace(ctx context.Context, entry *domain.CacheEntry) error

	// FindByText returns the newest entry with identical query text, or nil.
	// Freshness is decided by the caller.
	FindByText(ctx context.Context, queryText string) (*domain.CacheEntry, error)

	// ListSince returns entries created at or after since for the given model.
	// An empty model returns entries of every model; a zero since has no age bound.
	ListSince(ctx context.Context, model string, since time.Time) ([]domain.CacheEntry, error)

	// DeleteOlderThan removes entries created before cutoff or whose per-entry
	// expiry is at or before now, and returns how many were removed. A zero
	// cutoff only removes expired entries.
	DeleteOlderThan(ctx context.Context, cutoff, now time.Time) (int, error)

	// Count returns the number of stored entries, fresh or not.
	Count(ctx context.Context) (int, error)
}
