package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ProviderStore implements the interface.
var _ driven.ProviderConfigStore = (*ProviderStore)(nil)

// envPrefix marks a credential reference that names an environment variable.
const envPrefix = "env:"

// ProviderStore keeps provider configs in the settings file under
// providers.<name>.{base_url,model,active,credential}.
//
// The credential value is either "env:NAME", resolved from the environment
// on every read, or the literal key. Each provider has a single table, so at
// most one config per provider is ever active.
type ProviderStore struct {
	config driven.ConfigStore
}

// NewProviderStore creates a provider store backed by config.
func NewProviderStore(config driven.ConfigStore) *ProviderStore {
	return &ProviderStore{config: config}
}

func providerKey(p domain.AIProvider, field string) string {
	return "providers." + string(p) + "." + field
}

// Save writes a provider config.
func (s *ProviderStore) Save(_ context.Context, cfg domain.ProviderConfig) error {
	if !cfg.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, cfg.Provider)
	}

	values := []struct {
		field string
		value any
	}{
		{"base_url", cfg.BaseURL},
		{"model", cfg.Model},
		{"active", cfg.Active},
		{"credential", cfg.CredentialRef},
	}
	for _, v := range values {
		if err := s.config.Set(providerKey(cfg.Provider, v.field), v.value); err != nil {
			return fmt.Errorf("save %s config: %w", cfg.Provider, err)
		}
	}
	return nil
}

// GetActiveConfig returns the active config for provider with resolved
// credentials, or a nil config if the provider is absent or inactive.
func (s *ProviderStore) GetActiveConfig(
	_ context.Context, provider domain.AIProvider,
) (*domain.ProviderConfig, domain.Credentials, error) {
	cfg, ok := s.load(provider)
	if !ok || !cfg.Active {
		return nil, domain.Credentials{}, nil
	}
	return &cfg, s.credentials(cfg), nil
}

// ListActive returns active providers in selection priority order, then mock.
func (s *ProviderStore) ListActive(_ context.Context) ([]domain.ProviderEntry, error) {
	var out []domain.ProviderEntry
	for _, p := range append(domain.ProviderPriority(), domain.AIProviderMock) {
		cfg, ok := s.load(p)
		if !ok || !cfg.Active {
			continue
		}
		out = append(out, domain.ProviderEntry{Config: cfg, Credentials: s.credentials(cfg)})
	}
	return out, nil
}

func (s *ProviderStore) load(p domain.AIProvider) (domain.ProviderConfig, bool) {
	if len(s.config.Keys("providers."+string(p)+".")) == 0 {
		return domain.ProviderConfig{}, false
	}
	return domain.ProviderConfig{
		Provider:      p,
		BaseURL:       s.config.GetString(providerKey(p, "base_url")),
		Model:         s.config.GetString(providerKey(p, "model")),
		Active:        s.config.GetBool(providerKey(p, "active")),
		CredentialRef: s.config.GetString(providerKey(p, "credential")),
	}, true
}

func (s *ProviderStore) credentials(cfg domain.ProviderConfig) domain.Credentials {
	return domain.Credentials{APIKey: ResolveCredential(cfg.CredentialRef), BaseURL: cfg.BaseURL}
}

// ResolveCredential turns a credential reference into the key it names.
// An unset environment variable resolves to "".
func ResolveCredential(ref string) string {
	if name, ok := strings.CutPrefix(ref, envPrefix); ok {
		return strings.TrimSpace(os.Getenv(strings.TrimSpace(name)))
	}
	return ref
}
