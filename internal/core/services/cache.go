package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure CacheService implements the interface.
var _ driving.CacheService = (*CacheService)(nil)

// CacheService is the semantic response cache.
//
// Entries are Fresh until their max age or per-entry TTL elapses and are then
// treated as absent by every read, whether or not Purge has removed them yet.
type CacheService struct {
	store    driven.CacheStore
	embedder *Embedder
	engine   *SimilarityEngine
	settings SettingsReader
	now      func() time.Time
}

// NewCacheService creates a new cache service. settings may be nil.
func NewCacheService(
	store driven.CacheStore, embedder *Embedder, engine *SimilarityEngine, settings SettingsReader,
) *CacheService {
	return &CacheService{
		store:    store,
		embedder: embedder,
		engine:   engine,
		settings: settings,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *CacheService) WithClock(now func() time.Time) *CacheService {
	s.now = now
	return s
}

// Lookup returns the best fresh entry for query, or nil on a miss.
// The literal text is tried first; unless opts.ExactOnly is set, the query is
// then compared by embedding against fresh entries of the same model.
func (s *CacheService) Lookup(
	ctx context.Context, query string, opts domain.CacheLookupOptions,
) (*domain.CacheHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	cfg := s.cacheSettings()
	if !cfg.Enabled {
		logger.Debug("Cache disabled, lookup is a miss")
		return nil, nil
	}

	threshold := cfg.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: cache threshold %v outside [0, 1]", domain.ErrInvalidInput, threshold)
	}

	now := s.now()

	exact, err := s.store.FindByText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find cache entry: %w", err)
	}
	if exact != nil && exact.IsFresh(now, cfg.MaxAge) {
		logger.Debug("Cache exact hit %s", exact.ID)
		return &domain.CacheHit{Entry: exact, Similarity: 1, Exact: true}, nil
	}
	if opts.ExactOnly {
		return nil, nil
	}

	vec, model, err := s.queryVector(ctx, query, opts.QueryEmbedding, opts.Model, opts.Provider)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if cfg.MaxAge > 0 {
		since = now.Add(-cfg.MaxAge)
	}
	entries, err := s.store.ListSince(ctx, model, since)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}

	var best *domain.CacheHit
	for i := range entries {
		entry := &entries[i]
		if !entry.IsFresh(now, cfg.MaxAge) {
			continue
		}
		sim, ok := s.engine.CompareBytes(vec, entry.QueryEmbedding)
		if !ok || sim < threshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &domain.CacheHit{Entry: entry.Clone(), Similarity: sim}
		}
	}

	if best == nil {
		logger.Debug("Cache miss over %d entries (threshold %.2f)", len(entries), threshold)
		return nil, nil
	}
	logger.Debug("Cache semantic hit %s at %.4f", best.Entry.ID, best.Similarity)
	return best, nil
}

// Store inserts a fresh entry for query. An existing fresh entry with the same
// text is replaced only when opts.Overwrite is set; otherwise Store reports
// false. Expired entries with the same text are always replaced.
func (s *CacheService) Store(
	ctx context.Context, query, response string, opts domain.CacheStoreOptions,
) (bool, error) {
	query = strings.TrimSpace(query)
	if query == "" || strings.TrimSpace(response) == "" {
		return false, fmt.Errorf("%w: query and response are required", domain.ErrInvalidInput)
	}
	if opts.TTL < 0 {
		return false, fmt.Errorf("%w: negative ttl", domain.ErrInvalidInput)
	}

	cfg := s.cacheSettings()
	if !cfg.Enabled {
		logger.Debug("Cache disabled, not storing")
		return false, nil
	}

	now := s.now()
	existing, err := s.store.FindByText(ctx, query)
	if err != nil {
		return false, fmt.Errorf("find cache entry: %w", err)
	}
	if existing != nil && existing.IsFresh(now, cfg.MaxAge) && !opts.Overwrite {
		logger.Debug("Cache entry for query exists, skipping")
		return false, nil
	}

	vec, model, err := s.queryVector(ctx, query, opts.QueryEmbedding, opts.Model, opts.Provider)
	if err != nil {
		return false, err
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = cfg.MaxAge
	}
	entry := &domain.CacheEntry{
		ID:             uuid.NewString(),
		QueryText:      query,
		QueryEmbedding: domain.EncodeVector(vec),
		Model:          model,
		ResponseText:   response,
		CreatedAt:      now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	if existing != nil {
		if err := s.store.Replace(ctx, entry); err != nil {
			return false, fmt.Errorf("replace cache entry: %w", err)
		}
		return true, nil
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("insert cache entry: %w", err)
	}
	return true, nil
}

// Purge deletes entries older than maxAge, or the configured max age when
// maxAge <= 0, along with entries past their own TTL.
func (s *CacheService) Purge(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = s.cacheSettings().MaxAge
	}
	now := s.now()

	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = now.Add(-maxAge)
	}
	n, err := s.store.DeleteOlderThan(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	logger.Info("Purged %d cache entries older than %v", n, maxAge)
	return n, nil
}

func (s *CacheService) queryVector(
	ctx context.Context, query string, given []float32, model string, provider domain.AIProvider,
) ([]float32, string, error) {
	if len(given) > 0 {
		if !domain.IsFiniteVector(given) {
			return nil, "", fmt.Errorf("%w: query embedding", domain.ErrInvalidEmbedding)
		}
		return given, model, nil
	}
	vec, sel, err := s.embedder.Embed(ctx, query, provider, model)
	if err != nil {
		return nil, "", fmt.Errorf("embed cache query: %w", err)
	}
	return vec, sel.Model, nil
}

func (s *CacheService) cacheSettings() domain.CacheSettings {
	if s.settings != nil {
		if cfg, err := s.settings.Get(); err == nil && cfg != nil {
			return cfg.Cache
		}
	}
	return domain.DefaultAppSettings().Cache
}
