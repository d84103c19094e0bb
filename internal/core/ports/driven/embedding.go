// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// EmbeddingAdapter turns text into a vector for one provider.
// Each provider owns its wire format and normalises the response into []float32.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Voyage AI (voyage-3, voyage-3-lite), base64 encoded responses
//   - Gemini (text-embedding-004)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Mock, deterministic vectors for development and tests
type EmbeddingAdapter interface {
	// Provider returns the provider identity this adapter serves.
	Provider() domain.AIProvider

	// SupportsModel reports whether the provider recognises the model.
	SupportsModel(model string) bool

	// GenerateEmbedding returns the vector for text.
	// Fails with domain.ErrUnsupportedModel for an unknown model and with a
	// *domain.ProviderError for network, timeout or non-2xx failures.
	// Adapters never retry.
	GenerateEmbedding(ctx context.Context, text, model string, creds domain.Credentials) ([]float32, error)
}

// EmbeddingRegistry resolves the adapter for a provider.
type EmbeddingRegistry interface {
	// Adapter returns the adapter for the provider, or false if none is registered.
	Adapter(provider domain.AIProvider) (EmbeddingAdapter, bool)
}
