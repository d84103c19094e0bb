package mcp

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
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	hit       *domain.CacheHit
	stored    bool
	err       error
	lastStore domain.CacheStoreOptions
}

func (m *mockCacheService) Lookup(_ context.Context, _ string, _ domain.CacheLookupOptions) (*domain.CacheHit, error) {
	return m.hit, m.err
}

func (m *mockCacheService) Store(_ context.Context, _, _ string, opts domain.CacheStoreOptions) (bool, error) {
	m.lastStore = opts
	return m.stored, m.err
}

func (m *mockCacheService) Purge(_ context.Context, _ time.Duration) (int, error) {
	return 0, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	chunk    *domain.Chunk
	err      error
}

func (m *mockDocumentService) Save(_ context.Context, _ *domain.Document) error {
	return m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) SetStatus(_ context.Context, _ string, _ domain.DocumentStatus) error {
	return m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) AddChunk(_ context.Context, _ *domain.Chunk) error {
	return m.err
}

func (m *mockDocumentService) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	return m.chunk, m.err
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
