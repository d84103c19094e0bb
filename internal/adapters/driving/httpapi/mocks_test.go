package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
	calls    int
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.calls++
	m.lastOpts = opts
	return m.results, m.err
}

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	hit        *domain.CacheHit
	stored     bool
	purged     int
	err        error
	lastLookup domain.CacheLookupOptions
	lastStore  domain.CacheStoreOptions
	lastMaxAge time.Duration
	lastQuery  string
}

func (m *mockCacheService) Lookup(_ context.Context, query string, opts domain.CacheLookupOptions) (*domain.CacheHit, error) {
	m.lastQuery = query
	m.lastLookup = opts
	return m.hit, m.err
}

func (m *mockCacheService) Store(_ context.Context, query, _ string, opts domain.CacheStoreOptions) (bool, error) {
	m.lastQuery = query
	m.lastStore = opts
	return m.stored, m.err
}

func (m *mockCacheService) Purge(_ context.Context, maxAge time.Duration) (int, error) {
	m.lastMaxAge = maxAge
	return m.purged, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetProvider(_ context.Context, _ domain.ProviderConfig) error {
	return m.err
}

func (m *mockSettingsService) SetPreferredProvider(_ domain.AIProvider) error {
	return m.err
}

func (m *mockSettingsService) Validate(_ context.Context) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
