package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("app.environment", "development")
	_ = store.Set("retrieval.top_k", int64(12))
	_ = store.Set("retrieval.threshold", 0.65)
	_ = store.Set("retrieval.provider", "voyage")
	_ = store.Set("retrieval.include_notes", false)
	_ = store.Set("retrieval.embedding_timeout_seconds", int64(5))
	_ = store.Set("cache.max_age_hours", int64(6))
	_ = store.Set("similarity.backend", "auto")

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.EnvironmentDevelopment, settings.Environment)
	assert.Equal(t, 12, settings.Retrieval.TopK)
	assert.InDelta(t, 0.65, settings.Retrieval.Threshold, 1e-9)
	assert.Equal(t, domain.AIProviderVoyage, settings.Retrieval.Provider)
	assert.False(t, settings.Retrieval.IncludeNotes)
	assert.Equal(t, 5*time.Second, settings.Retrieval.EmbeddingTimeout)
	assert.Equal(t, 6*time.Hour, settings.Cache.MaxAge)
	assert.Equal(t, domain.SimilarityAuto, settings.Similarity)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("app.environment", "staging")
	_ = store.Set("retrieval.provider", "anthropic")
	_ = store.Set("similarity.backend", "gpu")

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Environment, settings.Environment)
	assert.Equal(t, defaults.Retrieval.Provider, settings.Retrieval.Provider)
	assert.Equal(t, defaults.Similarity, settings.Similarity)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Environment = domain.EnvironmentDevelopment
	settings.Retrieval.TopK = 20
	settings.Retrieval.Threshold = 0.4
	settings.Retrieval.IncludeHeaderContext = true
	settings.Cache.Threshold = 0.9
	settings.Cache.MaxAge = 12 * time.Hour
	settings.Retry.MaxAttempts = 3

	require.NoError(t, service.Save(&settings))

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *loaded)
}

func TestSettingsService_Save_RejectsOutOfRange(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	tests := []struct {
		name   string
		mutate func(*domain.AppSettings)
	}{
		{"topK above max", func(s *domain.AppSettings) { s.Retrieval.TopK = 51 }},
		{"threshold above one", func(s *domain.AppSettings) { s.Retrieval.Threshold = 1.01 }},
		{"cache threshold negative", func(s *domain.AppSettings) { s.Cache.Threshold = -0.5 }},
		{"unknown environment", func(s *domain.AppSettings) { s.Environment = "staging" }},
		{"zero timeout", func(s *domain.AppSettings) { s.Retrieval.EmbeddingTimeout = 0 }},
		{"zero attempts", func(s *domain.AppSettings) { s.Retry.MaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			tt.mutate(&settings)
			assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SetProvider(t *testing.T) {
	providers := memory.NewProviderConfigStore()
	service := NewSettingsService(memory.NewConfigStore(), providers)
	ctx := context.Background()

	err := service.SetProvider(ctx, domain.ProviderConfig{Provider: domain.AIProviderOllama, Active: true})
	require.NoError(t, err)

	cfg, _, err := providers.GetActiveConfig(ctx, domain.AIProviderOllama)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "nomic-embed-text", cfg.Model)
}

func TestSettingsService_SetProvider_Validation(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), memory.NewProviderConfigStore())
	ctx := context.Background()

	err := service.SetProvider(ctx, domain.ProviderConfig{Provider: "anthropic"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = service.SetProvider(ctx, domain.ProviderConfig{Provider: domain.AIProviderOpenAI, Active: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cloud provider needs a credential")

	err = service.SetProvider(ctx, domain.ProviderConfig{
		Provider: domain.AIProviderOpenAI, Model: "gpt-4o", CredentialRef: "env:OPENAI_API_KEY",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedModel)
}

func TestSettingsService_SetPreferredProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetPreferredProvider(domain.AIProviderGemini))
	assert.Equal(t, "gemini", store.GetString("retrieval.provider"))

	assert.ErrorIs(t, service.SetPreferredProvider("bogus"), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	providers := memory.NewProviderConfigStore()
	service := NewSettingsService(store, providers)
	ctx := context.Background()

	assert.ErrorIs(t, service.Validate(ctx), domain.ErrNoProviderAvailable)

	_ = store.Set("app.environment", "development")
	assert.NoError(t, service.Validate(ctx), "development falls back to mock")

	_ = store.Set("app.environment", "production")
	require.NoError(t, providers.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderOllama, Active: true}))
	assert.NoError(t, service.Validate(ctx))
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
