package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestProviderConfigStore_SaveRejectsUnknownProvider(t *testing.T) {
	err := NewProviderConfigStore().Save(context.Background(), domain.ProviderConfig{Provider: "anthropic"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProviderConfigStore_GetActiveConfig(t *testing.T) {
	ctx := context.Background()
	store := NewProviderConfigStore()
	require.NoError(t, store.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small", Active: true}))
	require.NoError(t, store.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderVoyage}))
	store.SetAPIKey(domain.AIProviderOpenAI, "sk-test")

	cfg, creds, err := store.GetActiveConfig(ctx, domain.AIProviderOpenAI)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "sk-test", creds.APIKey)

	cfg, _, err = store.GetActiveConfig(ctx, domain.AIProviderVoyage)
	require.NoError(t, err)
	assert.Nil(t, cfg, "inactive config is not returned")

	cfg, _, err = store.GetActiveConfig(ctx, domain.AIProviderGemini)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestProviderConfigStore_ListActive_PriorityOrder(t *testing.T) {
	ctx := context.Background()
	store := NewProviderConfigStore()
	require.NoError(t, store.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderOllama, Active: true, BaseURL: "http://localhost:11434"}))
	require.NoError(t, store.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderOpenAI, Active: true}))
	require.NoError(t, store.Save(ctx, domain.ProviderConfig{Provider: domain.AIProviderGemini}))

	entries, err := store.ListActive(ctx)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AIProviderOpenAI, entries[0].Config.Provider)
	assert.Equal(t, domain.AIProviderOllama, entries[1].Config.Provider)
	assert.Equal(t, "http://localhost:11434", entries[1].Credentials.BaseURL)
}
