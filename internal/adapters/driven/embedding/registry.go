// Package embedding wires the provider adapters into a registry the
// embedding service resolves against.
package embedding

import (
	"net/http"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/mock"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/voyage"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.EmbeddingRegistry = (*Registry)(nil)

// Registry maps providers to their adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.AIProvider]driven.EmbeddingAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.AIProvider]driven.EmbeddingAdapter)}
}

// NewDefaultRegistry registers every built-in adapter sharing one HTTP client.
// A nil client means each adapter uses its default.
func NewDefaultRegistry(client *http.Client) *Registry {
	r := NewRegistry()
	r.Register(openai.New(openai.Config{HTTPClient: client}))
	r.Register(voyage.New(voyage.Config{HTTPClient: client}))
	r.Register(gemini.New(gemini.Config{HTTPClient: client}))
	r.Register(ollama.New(ollama.Config{HTTPClient: client}))
	r.Register(mock.New())
	return r
}

// Register adds or replaces the adapter for its provider.
func (r *Registry) Register(adapter driven.EmbeddingAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Provider()] = adapter
}

// Adapter returns the adapter for provider.
func (r *Registry) Adapter(provider domain.AIProvider) (driven.EmbeddingAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[provider]
	return a, ok
}

// Providers returns the registered providers in selection priority order,
// followed by mock.
func (r *Registry) Providers() []domain.AIProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AIProvider
	for _, p := range append(domain.ProviderPriority(), domain.AIProviderMock) {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
