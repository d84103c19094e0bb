// Package openai provides an embedding adapter for the OpenAI API and
// OpenAI-compatible endpoints.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.EmbeddingAdapter = (*Adapter)(nil)

// DefaultBaseURL is the OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds configuration for the OpenAI adapter.
type Config struct {
	// BaseURL is the API endpoint (default: https://api.openai.com/v1).
	// Credentials.BaseURL overrides it per call.
	BaseURL string

	// HTTPClient is the client used for requests (default: 30s timeout).
	HTTPClient *http.Client
}

// Adapter generates embeddings using the openai-go SDK.
// The SDK's own retries are disabled; retry policy belongs to the caller.
type Adapter struct {
	client  *http.Client
	baseURL string
}

// New creates a new OpenAI adapter.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = transport.NewHTTPClient()
	}
	return &Adapter{
		client:  cfg.HTTPClient,
		baseURL: transport.BaseURL(cfg.BaseURL, DefaultBaseURL),
	}
}

// Provider returns domain.AIProviderOpenAI.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.AIProviderOpenAI
}

// SupportsModel reports whether model is a known OpenAI embedding model.
func (a *Adapter) SupportsModel(model string) bool {
	return transport.Supports(domain.ProviderModels()[domain.AIProviderOpenAI], model)
}

// GenerateEmbedding returns the vector for text.
func (a *Adapter) GenerateEmbedding(
	ctx context.Context, text, model string, creds domain.Credentials,
) ([]float32, error) {
	if err := transport.CheckRequest(a.Provider(), text, model, domain.ProviderModels()[domain.AIProviderOpenAI]); err != nil {
		return nil, err
	}
	if creds.APIKey == "" {
		return nil, &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusUnauthorized, Message: "API key required"}
	}

	client := openai.NewClient(
		option.WithAPIKey(creds.APIKey),
		option.WithBaseURL(transport.BaseURL(creds.BaseURL, a.baseURL)+"/"),
		option.WithHTTPClient(a.client),
		option.WithMaxRetries(0),
	)

	resp, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model:          openai.EmbeddingModel(model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, a.providerError(err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &domain.ProviderError{Provider: a.Provider(), StatusCode: http.StatusOK, Message: "empty embedding"}
	}
	return transport.ToFloat32(resp.Data[0].Embedding), nil
}

func (a *Adapter) providerError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &domain.ProviderError{Provider: a.Provider(), StatusCode: apiErr.StatusCode, Message: msg}
	}
	return &domain.ProviderError{Provider: a.Provider(), Message: "request failed", Err: err}
}
