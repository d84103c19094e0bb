// Package voyage provides an embedding adapter for the Voyage AI API.
//
// Vectors are requested base64 encoded, which Voyage returns as little-endian
// float32 bytes, the same layout vectors are stored in.
package voyage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.EmbeddingAdapter = (*Adapter)(nil)

// DefaultBaseURL is the Voyage AI API endpoint.
const DefaultBaseURL = "https://api.voyageai.com/v1"

// Config holds configuration for the Voyage adapter.
type Config struct {
	// BaseURL is the API endpoint (default: https://api.voyageai.com/v1).
	BaseURL string

	// HTTPClient is the client used for requests (default: 30s timeout).
	HTTPClient *http.Client
}

// Adapter generates embeddings using Voyage AI.
type Adapter struct {
	client  *http.Client
	baseURL string
}

type embedRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
}

type embedResponse struct {
	Data []struct {
		Embedding string `json:"embedding"`
		Index     int    `json:"index"`
	} `json:"data"`
}

// New creates a new Voyage adapter.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = transport.NewHTTPClient()
	}
	return &Adapter{
		client:  cfg.HTTPClient,
		baseURL: transport.BaseURL(cfg.BaseURL, DefaultBaseURL),
	}
}

// Provider returns domain.AIProviderVoyage.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.AIProviderVoyage
}

// SupportsModel reports whether model is a known Voyage embedding model.
func (a *Adapter) SupportsModel(model string) bool {
	return transport.Supports(domain.ProviderModels()[domain.AIProviderVoyage], model)
}

// GenerateEmbedding returns the vector for text.
func (a *Adapter) GenerateEmbedding(
	ctx context.Context, text, model string, creds domain.Credentials,
) ([]float32, error) {
	if err := transport.CheckRequest(a.Provider(), text, model, domain.ProviderModels()[domain.AIProviderVoyage]); err != nil {
		return nil, err
	}
	if creds.APIKey == "" {
		return nil, &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusUnauthorized, Message: "API key required"}
	}

	url := transport.BaseURL(creds.BaseURL, a.baseURL) + "/embeddings"
	headers := map[string]string{"Authorization": "Bearer " + creds.APIKey}
	req := embedRequest{Input: []string{text}, Model: model, EncodingFormat: "base64"}

	var resp embedResponse
	if err := transport.PostJSON(ctx, a.client, a.Provider(), url, headers, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, a.malformed("no embedding in response", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].Embedding)
	if err != nil {
		return nil, a.malformed("embedding is not base64", err)
	}
	vec, err := domain.DecodeVector(raw)
	if err != nil {
		return nil, a.malformed(fmt.Sprintf("embedding has %d bytes", len(raw)), err)
	}
	return vec, nil
}

func (a *Adapter) malformed(msg string, err error) error {
	return &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusOK, Message: msg, Err: err}
}
