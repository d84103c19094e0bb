package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ProviderConfigStore reads embedding provider configuration.
// Credential decryption is entirely the store's responsibility; the core never
// persists or logs the returned credentials.
type ProviderConfigStore interface {
	// GetActiveConfig returns the active config for a provider with its
	// decrypted credentials. Returns a nil config if none is active.
	GetActiveConfig(ctx context.Context, provider domain.AIProvider) (*domain.ProviderConfig, domain.Credentials, error)

	// ListActive returns every active provider with its credentials.
	ListActive(ctx context.Context) ([]domain.ProviderEntry, error)

	// Save stores a provider config. Fails with domain.ErrInvalidInput for an
	// unknown provider.
	Save(ctx context.Context, cfg domain.ProviderConfig) error
}
