package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// ProviderSelector picks the embedding provider for one request.
// It is pure: the same preference and provider set always give the same answer.
type ProviderSelector struct{}

// NewProviderSelector creates a provider selector.
func NewProviderSelector() *ProviderSelector {
	return &ProviderSelector{}
}

// Resolve returns the provider to use.
//
// Order: the preferred provider if it is usable, then the first usable
// provider in domain.ProviderPriority, then mock when the set allows it.
// Otherwise it fails with domain.ErrNoProviderAvailable.
func (s *ProviderSelector) Resolve(
	preferred domain.AIProvider, available domain.ProviderSet,
) (domain.ProviderSelection, error) {
	if preferred != "" && preferred != domain.AIProviderMock {
		if entry, ok := available.Get(preferred); ok && entry.Usable() {
			return selection(entry), nil
		}
		logger.Debug("Preferred provider %s not usable, falling back", preferred)
	}

	if preferred == domain.AIProviderMock && available.AllowMock {
		return mockSelection(available), nil
	}

	for _, p := range domain.ProviderPriority() {
		if entry, ok := available.Get(p); ok && entry.Usable() {
			return selection(entry), nil
		}
	}

	if available.AllowMock {
		logger.Warn("No embedding provider configured, using mock provider (development mode)")
		return mockSelection(available), nil
	}

	return domain.ProviderSelection{}, fmt.Errorf(
		"%w: configure one of openai, voyage, gemini or ollama", domain.ErrNoProviderAvailable)
}

func selection(entry domain.ProviderEntry) domain.ProviderSelection {
	creds := entry.Credentials
	if creds.BaseURL == "" {
		creds.BaseURL = entry.Config.BaseURL
	}
	return domain.ProviderSelection{
		Provider:    entry.Config.Provider,
		Credentials: creds,
		Model:       modelFor(entry.Config.Provider, entry.Config.Model),
	}
}

func mockSelection(available domain.ProviderSet) domain.ProviderSelection {
	model := ""
	if entry, ok := available.Get(domain.AIProviderMock); ok {
		model = entry.Config.Model
	}
	return domain.ProviderSelection{
		Provider: domain.AIProviderMock,
		Model:    modelFor(domain.AIProviderMock, model),
	}
}

func modelFor(provider domain.AIProvider, configured string) string {
	if configured != "" {
		return configured
	}
	return domain.DefaultEmbeddingModels()[provider]
}

// NewProviderSet builds the explicit provider set for one request.
func NewProviderSet(entries []domain.ProviderEntry, allowMock bool) domain.ProviderSet {
	set := domain.ProviderSet{
		Entries:   make(map[domain.AIProvider]domain.ProviderEntry, len(entries)),
		AllowMock: allowMock,
	}
	for _, e := range entries {
		set.Entries[e.Config.Provider] = e
	}
	return set
}
