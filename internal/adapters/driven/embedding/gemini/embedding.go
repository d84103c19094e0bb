// Package gemini provides an embedding adapter for the Google Gemini API.
package gemini

import (
	"context"
	"net/http"
	"net/url"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.EmbeddingAdapter = (*Adapter)(nil)

// DefaultBaseURL is the Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds configuration for the Gemini adapter.
type Config struct {
	// BaseURL is the API endpoint (default: the v1beta Generative Language API).
	BaseURL string

	// HTTPClient is the client used for requests (default: 30s timeout).
	HTTPClient *http.Client
}

// Adapter generates embeddings using Gemini's embedContent method.
type Adapter struct {
	client  *http.Client
	baseURL string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// New creates a new Gemini adapter.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = transport.NewHTTPClient()
	}
	return &Adapter{
		client:  cfg.HTTPClient,
		baseURL: transport.BaseURL(cfg.BaseURL, DefaultBaseURL),
	}
}

// Provider returns domain.AIProviderGemini.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.AIProviderGemini
}

// SupportsModel reports whether model is a known Gemini embedding model.
func (a *Adapter) SupportsModel(model string) bool {
	return transport.Supports(domain.ProviderModels()[domain.AIProviderGemini], model)
}

// GenerateEmbedding returns the vector for text. The key travels in the
// x-goog-api-key header so it never appears in a logged URL.
func (a *Adapter) GenerateEmbedding(
	ctx context.Context, text, model string, creds domain.Credentials,
) ([]float32, error) {
	if err := transport.CheckRequest(a.Provider(), text, model, domain.ProviderModels()[domain.AIProviderGemini]); err != nil {
		return nil, err
	}
	if creds.APIKey == "" {
		return nil, &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusUnauthorized, Message: "API key required"}
	}

	endpoint := transport.BaseURL(creds.BaseURL, a.baseURL) + "/models/" + url.PathEscape(model) + ":embedContent"
	headers := map[string]string{"x-goog-api-key": creds.APIKey}
	req := embedRequest{
		Model:   "models/" + model,
		Content: content{Parts: []part{{Text: text}}},
	}

	var resp embedResponse
	if err := transport.PostJSON(ctx, a.client, a.Provider(), endpoint, headers, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusOK, Message: "empty embedding"}
	}
	return transport.ToFloat32(resp.Embedding.Values), nil
}
