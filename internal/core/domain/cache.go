package domain

import "time"

// CacheState is the lifecycle state of a cache entry.
// Entries move from Fresh to Expired purely by time; purging removes them.
type CacheState string

// Cache entry states.
const (
	CacheFresh   CacheState = "fresh"
	CacheExpired CacheState = "expired"
)

// CacheEntry is a previously produced (query, response) pair.
type CacheEntry struct {
	// ID is the unique identifier for the entry.
	ID string

	// QueryText is the literal query.
	QueryText string

	// QueryEmbedding is the stored query vector.
	QueryEmbedding []byte

	// Model is the embedding model that produced QueryEmbedding.
	Model string

	// ResponseText is the cached response.
	ResponseText string

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time

	// ExpiresAt is the per-entry TTL deadline. Zero means only max age applies.
	ExpiresAt time.Time
}

// State returns the entry's state at now under the given max age.
func (e *CacheEntry) State(now time.Time, maxAge time.Duration) CacheState {
	if maxAge > 0 && now.Sub(e.CreatedAt) >= maxAge {
		return CacheExpired
	}
	if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
		return CacheExpired
	}
	return CacheFresh
}

// IsFresh reports whether the entry may be returned at now.
func (e *CacheEntry) IsFresh(now time.Time, maxAge time.Duration) bool {
	return e.State(now, maxAge) == CacheFresh
}

// Clone returns a deep copy so callers never share buffers with a store.
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.QueryEmbedding != nil {
		c.QueryEmbedding = append([]byte(nil), e.QueryEmbedding...)
	}
	return &c
}

// CacheLookupOptions configures a cache lookup.
type CacheLookupOptions struct {
	// Threshold is the minimum similarity for a hit. Nil uses the configured
	// default; an explicit zero accepts any fresh entry.
	Threshold *float64

	// ExactOnly disables embedding comparison and only matches literal text.
	ExactOnly bool

	// QueryEmbedding reuses an already computed query vector.
	QueryEmbedding []float32

	// Model is the model QueryEmbedding was produced with.
	Model string

	// Provider is the preferred embedding provider.
	Provider AIProvider
}

// CacheHit is a successful lookup.
type CacheHit struct {
	Entry      *CacheEntry
	Similarity float64
	Exact      bool
}

// CacheStoreOptions configures a cache insert.
type CacheStoreOptions struct {
	// TTL is the entry lifetime; zero uses the configured max age.
	TTL time.Duration

	// Overwrite replaces an existing entry with identical query text.
	Overwrite bool

	// QueryEmbedding reuses an already computed query vector.
	QueryEmbedding []float32

	// Model is the model QueryEmbedding was produced with.
	Model string

	// Provider is the preferred embedding provider.
	Provider AIProvider
}
