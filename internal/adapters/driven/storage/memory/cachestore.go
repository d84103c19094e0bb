package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// CacheStore is an in-memory implementation of driven.CacheStore.
// Entries are copied in and out so readers never share buffers with the store.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]domain.CacheEntry),
	}
}

// Insert stores a new entry unless one with identical text exists.
func (s *CacheStore) Insert(_ context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: cache entry id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.QueryText == entry.QueryText {
			return domain.ErrAlreadyExists
		}
	}
	s.entries[entry.ID] = *entry.Clone()
	return nil
}

// Replace stores an entry, removing any entry with identical text.
func (s *CacheStore) Replace(_ context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: cache entry id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.QueryText == entry.QueryText {
			delete(s.entries, id)
		}
	}
	s.entries[entry.ID] = *entry.Clone()
	return nil
}

// FindByText returns the newest entry with identical query text, or nil.
func (s *CacheStore) FindByText(_ context.Context, queryText string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.CacheEntry
	for _, e := range s.entries {
		if e.QueryText != queryText {
			continue
		}
		if found == nil || e.CreatedAt.After(found.CreatedAt) {
			found = e.Clone()
		}
	}
	return found, nil
}

// ListSince returns entries created at or after since, newest first.
func (s *CacheStore) ListSince(_ context.Context, model string, since time.Time) ([]domain.CacheEntry, error) {
	s.mu.RLock()
	out := make([]domain.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if model != "" && e.Model != model {
			continue
		}
		if e.CreatedAt.Before(since) {
			continue
		}
		out = append(out, *e.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteOlderThan removes entries created before cutoff or past their expiry.
func (s *CacheStore) DeleteOlderThan(_ context.Context, cutoff, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		expired := !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
		if e.CreatedAt.Before(cutoff) || expired {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored entries.
func (s *CacheStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
