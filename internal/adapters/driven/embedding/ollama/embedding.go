// Package ollama provides an embedding adapter for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.EmbeddingAdapter = (*Adapter)(nil)

// DefaultBaseURL is the local Ollama API.
const DefaultBaseURL = "http://localhost:11434"

// Config holds configuration for the Ollama adapter.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	// Credentials.BaseURL overrides it per call.
	BaseURL string

	// HTTPClient is the client used for requests (default: 30s timeout).
	HTTPClient *http.Client
}

// Adapter generates embeddings using Ollama.
type Adapter struct {
	client  *http.Client
	baseURL string
}

// embedRequest is the /api/embed request format.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// New creates a new Ollama adapter.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = transport.NewHTTPClient()
	}
	return &Adapter{
		client:  cfg.HTTPClient,
		baseURL: transport.BaseURL(cfg.BaseURL, DefaultBaseURL),
	}
}

// Provider returns domain.AIProviderOllama.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.AIProviderOllama
}

// SupportsModel reports whether model is a known Ollama embedding model.
func (a *Adapter) SupportsModel(model string) bool {
	return transport.Supports(domain.ProviderModels()[domain.AIProviderOllama], model)
}

// GenerateEmbedding returns the vector for text. No API key is needed.
func (a *Adapter) GenerateEmbedding(
	ctx context.Context, text, model string, creds domain.Credentials,
) ([]float32, error) {
	if err := transport.CheckRequest(a.Provider(), text, model, domain.ProviderModels()[domain.AIProviderOllama]); err != nil {
		return nil, err
	}

	url := transport.BaseURL(creds.BaseURL, a.baseURL) + "/api/embed"
	var resp embedResponse
	if err := transport.PostJSON(ctx, a.client, a.Provider(), url, nil, embedRequest{Model: model, Input: text}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, &domain.ProviderError{
			Provider:   a.Provider(),
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("empty embedding for model %s", model),
		}
	}
	return transport.ToFloat32(resp.Embeddings[0]), nil
}
