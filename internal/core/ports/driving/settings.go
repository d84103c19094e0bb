package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetProvider stores an embedding provider config. CredentialRef is kept
	// as given ("env:NAME" or a literal key).
	SetProvider(ctx context.Context, cfg domain.ProviderConfig) error

	// SetPreferredProvider sets the provider tried first by searches.
	SetPreferredProvider(provider domain.AIProvider) error

	// Validate checks that settings are within bounds and that a provider can
	// be selected.
	Validate(ctx context.Context) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
