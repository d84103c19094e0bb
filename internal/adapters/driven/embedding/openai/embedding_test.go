package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const embeddingResponse = `{
	"object": "list",
	"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, -0.3]}],
	"model": "text-embedding-3-small",
	"usage": {"prompt_tokens": 2, "total_tokens": 2}
}`

func TestGenerateEmbedding(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.Equal(t, "hello world", body["input"])
		assert.Equal(t, "float", body["encoding_format"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(embeddingResponse))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	vec, err := a.GenerateEmbedding(context.Background(), "hello world", "text-embedding-3-small",
		domain.Credentials{APIKey: "sk-test"})

	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, -0.3}, vec, 1e-7)
	assert.Equal(t, 1, calls)
}

func TestGenerateEmbedding_APIErrorIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := a.GenerateEmbedding(context.Background(), "hello", "text-embedding-3-small",
		domain.Credentials{APIKey: "sk-test"})

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Equal(t, domain.AIProviderOpenAI, perr.Provider)
	assert.NotContains(t, err.Error(), "sk-test")
	assert.Equal(t, 1, calls)
}

func TestGenerateEmbedding_Validation(t *testing.T) {
	a := New(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := a.GenerateEmbedding(context.Background(), "hello", "voyage-3", domain.Credentials{APIKey: "k"})
	require.ErrorIs(t, err, domain.ErrUnsupportedModel)

	_, err = a.GenerateEmbedding(context.Background(), "", "text-embedding-3-small", domain.Credentials{APIKey: "k"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = a.GenerateEmbedding(context.Background(), "hello", "text-embedding-3-small", domain.Credentials{})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGenerateEmbedding_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(embeddingResponse))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := a.GenerateEmbedding(ctx, "hello", "text-embedding-3-small", domain.Credentials{APIKey: "k"})

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
