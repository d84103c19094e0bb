package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CacheService is the semantic response cache.
type CacheService interface {
	// Lookup returns the best fresh entry for the query, or nil on a miss.
	Lookup(ctx context.Context, query string, opts domain.CacheLookupOptions) (*domain.CacheHit, error)

	// Store inserts a fresh entry. Returns false if an entry with identical
	// text exists and opts.Overwrite is not set.
	Store(ctx context.Context, query, response string, opts domain.CacheStoreOptions) (bool, error)

	// Purge deletes entries older than maxAge (the configured max age when
	// maxAge <= 0) and returns how many were deleted.
	Purge(ctx context.Context, maxAge time.Duration) (int, error)
}
