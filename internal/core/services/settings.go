package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEnvironment          = "app.environment"
	keyTopK                 = "retrieval.top_k"
	keyThreshold            = "retrieval.threshold"
	keyProvider             = "retrieval.provider"
	keyIncludeHeaderContext = "retrieval.include_header_context"
	keyIncludeNotes         = "retrieval.include_notes"
	keyIncludeDetails       = "retrieval.include_details"
	keyEmbeddingTimeout     = "retrieval.embedding_timeout_seconds"
	keyCacheEnabled         = "cache.enabled"
	keyCacheThreshold       = "cache.threshold"
	keyCacheMaxAge          = "cache.max_age_hours"
	keyRetryMaxAttempts     = "retry.max_attempts"
	keyRetryInitialInterval = "retry.initial_interval_ms"
	keyRetryMaxInterval     = "retry.max_interval_ms"
	keySimilarityBackend    = "similarity.backend"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	providers   driven.ProviderConfigStore
}

// NewSettingsService creates a new settings service.
// providers may be nil when provider configuration is managed elsewhere.
func NewSettingsService(configStore driven.ConfigStore, providers driven.ProviderConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		providers:   providers,
	}
}

// Get retrieves current application settings. Missing or invalid values fall
// back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Environment: s.getEnvironment(defaults.Environment),
		Retrieval: domain.RetrievalSettings{
			TopK:                 s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold:            s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
			Provider:             s.getProvider(defaults.Retrieval.Provider),
			IncludeHeaderContext: s.getBool(keyIncludeHeaderContext, defaults.Retrieval.IncludeHeaderContext),
			IncludeNotes:         s.getBool(keyIncludeNotes, defaults.Retrieval.IncludeNotes),
			IncludeDetails:       s.getBool(keyIncludeDetails, defaults.Retrieval.IncludeDetails),
			EmbeddingTimeout:     s.getDuration(keyEmbeddingTimeout, time.Second, defaults.Retrieval.EmbeddingTimeout),
		},
		Cache: domain.CacheSettings{
			Enabled:   s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			Threshold: s.getFloat(keyCacheThreshold, defaults.Cache.Threshold),
			MaxAge:    s.getDuration(keyCacheMaxAge, time.Hour, defaults.Cache.MaxAge),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:     s.getInt(keyRetryMaxAttempts, defaults.Retry.MaxAttempts),
			InitialInterval: s.getDuration(keyRetryInitialInterval, time.Millisecond, defaults.Retry.InitialInterval),
			MaxInterval:     s.getDuration(keyRetryMaxInterval, time.Millisecond, defaults.Retry.MaxInterval),
		},
		Similarity: s.getSimilarityBackend(defaults.Similarity),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEnvironment, string(settings.Environment)},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.Threshold},
		{keyProvider, settings.Retrieval.Provider.String()},
		{keyIncludeHeaderContext, settings.Retrieval.IncludeHeaderContext},
		{keyIncludeNotes, settings.Retrieval.IncludeNotes},
		{keyIncludeDetails, settings.Retrieval.IncludeDetails},
		{keyEmbeddingTimeout, int(settings.Retrieval.EmbeddingTimeout / time.Second)},
		{keyCacheEnabled, settings.Cache.Enabled},
		{keyCacheThreshold, settings.Cache.Threshold},
		{keyCacheMaxAge, int(settings.Cache.MaxAge / time.Hour)},
		{keyRetryMaxAttempts, settings.Retry.MaxAttempts},
		{keyRetryInitialInterval, int(settings.Retry.InitialInterval / time.Millisecond)},
		{keyRetryMaxInterval, int(settings.Retry.MaxInterval / time.Millisecond)},
		{keySimilarityBackend, string(settings.Similarity)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetProvider stores an embedding provider config. An empty model is replaced
// by the provider default.
func (s *SettingsService) SetProvider(ctx context.Context, cfg domain.ProviderConfig) error {
	if !cfg.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
	if s.providers == nil {
		return fmt.Errorf("provider config store: %w", domain.ErrNotImplemented)
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultEmbeddingModels()[cfg.Provider]
	}
	if _, known := domain.EmbeddingDimensions()[cfg.Model]; !known {
		return fmt.Errorf("%w: %s does not support %q", domain.ErrUnsupportedModel, cfg.Provider, cfg.Model)
	}
	if cfg.Active && cfg.Provider.RequiresAPIKey() && cfg.CredentialRef == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, cfg.Provider)
	}
	return s.providers.Save(ctx, cfg)
}

// SetPreferredProvider sets the provider tried first by searches.
func (s *SettingsService) SetPreferredProvider(provider domain.AIProvider) error {
	if provider != "" && !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
	}
	return s.configStore.Set(keyProvider, provider.String())
}

// Validate checks that settings are within bounds and that some provider can
// serve embeddings.
func (s *SettingsService) Validate(ctx context.Context) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	if s.providers == nil {
		return nil
	}

	entries, err := s.providers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load provider configs: %w", err)
	}
	_, err = NewProviderSelector().Resolve(
		settings.Retrieval.Provider, NewProviderSet(entries, settings.Environment.AllowsMock()))
	return err
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func validateSettings(settings *domain.AppSettings) error {
	switch {
	case !settings.Environment.IsValid():
		return fmt.Errorf("%w: environment %q", domain.ErrInvalidInput, settings.Environment)
	case settings.Retrieval.TopK < 0 || settings.Retrieval.TopK > domain.MaxTopK:
		return fmt.Errorf("%w: top_k %d outside [0, %d]", domain.ErrInvalidInput, settings.Retrieval.TopK, domain.MaxTopK)
	case !inUnitRange(settings.Retrieval.Threshold):
		return fmt.Errorf("%w: retrieval threshold %v outside [0, 1]", domain.ErrInvalidInput, settings.Retrieval.Threshold)
	case !inUnitRange(settings.Cache.Threshold):
		return fmt.Errorf("%w: cache threshold %v outside [0, 1]", domain.ErrInvalidInput, settings.Cache.Threshold)
	case settings.Retrieval.Provider != "" && !settings.Retrieval.Provider.IsValid():
		return fmt.Errorf("%w: provider %q", domain.ErrInvalidInput, settings.Retrieval.Provider)
	case settings.Retrieval.EmbeddingTimeout <= 0:
		return fmt.Errorf("%w: embedding timeout must be positive", domain.ErrInvalidInput)
	case settings.Retry.MaxAttempts < 1:
		return fmt.Errorf("%w: retry max attempts must be at least 1", domain.ErrInvalidInput)
	case !settings.Similarity.IsValid():
		return fmt.Errorf("%w: similarity backend %q", domain.ErrInvalidInput, settings.Similarity)
	}
	return nil
}

func inUnitRange(x float64) bool {
	return !math.IsNaN(x) && x >= 0 && x <= 1
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	n := s.configStore.GetInt(key)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * unit
}

func (s *SettingsService) getEnvironment(defaultVal domain.Environment) domain.Environment {
	env := domain.Environment(s.configStore.GetString(keyEnvironment))
	if !env.IsValid() {
		return defaultVal
	}
	return env
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getSimilarityBackend(defaultVal domain.SimilarityBackend) domain.SimilarityBackend {
	backend := domain.SimilarityBackend(s.configStore.GetString(keySimilarityBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
