package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ProviderConfigStore implements the interface.
var _ driven.ProviderConfigStore = (*ProviderConfigStore)(nil)

// ProviderConfigStore is an in-memory implementation of driven.ProviderConfigStore.
// It holds one config slot per provider, so at most one config per provider
// can ever be active.
type ProviderConfigStore struct {
	mu      sync.RWMutex
	configs map[domain.AIProvider]domain.ProviderConfig
	secrets map[domain.AIProvider]string
}

// NewProviderConfigStore creates a new in-memory provider config store.
func NewProviderConfigStore() *ProviderConfigStore {
	return &ProviderConfigStore{
		configs: make(map[domain.AIProvider]domain.ProviderConfig),
		secrets: make(map[domain.AIProvider]string),
	}
}

// Save stores a provider config.
func (s *ProviderConfigStore) Save(_ context.Context, cfg domain.ProviderConfig) error {
	if !cfg.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.Provider] = cfg
	return nil
}

// SetAPIKey stores the decrypted key for a provider.
func (s *ProviderConfigStore) SetAPIKey(provider domain.AIProvider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[provider] = key
}

// GetActiveConfig returns the active config for a provider, or nil.
func (s *ProviderConfigStore) GetActiveConfig(
	_ context.Context, provider domain.AIProvider,
) (*domain.ProviderConfig, domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[provider]
	if !ok || !cfg.Active {
		return nil, domain.Credentials{}, nil
	}
	return &cfg, domain.Credentials{APIKey: s.secrets[provider], BaseURL: cfg.BaseURL}, nil
}

// ListActive returns every active provider with its credentials.
func (s *ProviderConfigStore) ListActive(_ context.Context) ([]domain.ProviderEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ProviderEntry
	for _, p := range append(domain.ProviderPriority(), domain.AIProviderMock) {
		cfg, ok := s.configs[p]
		if !ok || !cfg.Active {
			continue
		}
		out = append(out, domain.ProviderEntry{
			Config:      cfg,
			Credentials: domain.Credentials{APIKey: s.secrets[p], BaseURL: cfg.BaseURL},
		})
	}
	return out, nil
}
