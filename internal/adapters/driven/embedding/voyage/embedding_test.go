package voyage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestGenerateEmbedding_DecodesBase64(t *testing.T) {
	want := []float32{0.25, -1, 0.5}
	encoded := base64.StdEncoding.EncodeToString(domain.EncodeVector(want))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer pa-key", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req.Input)
		assert.Equal(t, "voyage-3-lite", req.Model)
		assert.Equal(t, "base64", req.EncodingFormat)

		fmt.Fprintf(w, `{"object":"list","data":[{"object":"embedding","embedding":%q,"index":0}]}`, encoded)
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	vec, err := a.GenerateEmbedding(context.Background(), "hello", "voyage-3-lite", domain.Credentials{APIKey: "pa-key"})

	require.NoError(t, err)
	assert.Equal(t, want, vec)
}

func TestGenerateEmbedding_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no data", `{"data": []}`},
		{"not base64", `{"data": [{"embedding": "!!!", "index": 0}]}`},
		{"ragged bytes", `{"data": [{"embedding": "AAAA", "index": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
			_, err := a.GenerateEmbedding(context.Background(), "hello", "voyage-3", domain.Credentials{APIKey: "k"})

			require.ErrorIs(t, err, domain.ErrProviderUnavailable)
		})
	}
}

func TestGenerateEmbedding_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Provided API key is invalid."}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := a.GenerateEmbedding(context.Background(), "hello", "voyage-3", domain.Credentials{APIKey: "bad"})

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "Provided API key is invalid.")
}

func TestGenerateEmbedding_RequiresKey(t *testing.T) {
	a := New(Config{})
	_, err := a.GenerateEmbedding(context.Background(), "hello", "voyage-3", domain.Credentials{})

	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
