// Package transport holds the HTTP plumbing shared by the raw HTTP embedding
// adapters: JSON requests and the mapping of failures to domain errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// NewHTTPClient returns a client with the default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// PostJSON sends in as JSON to url and decodes a 2xx response into out.
// Transport failures, non-2xx statuses and undecodable bodies are returned as
// *domain.ProviderError.
func PostJSON(
	ctx context.Context,
	client *http.Client,
	provider domain.AIProvider,
	url string,
	headers map[string]string,
	in, out any,
) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    ErrorMessage(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        err,
		}
	}
	return nil
}

// ErrorMessage extracts a readable message from an error body. It understands
// {"error": {"message": ...}}, {"error": "..."}, {"detail": "..."} and
// {"message": "..."}, and otherwise returns the trimmed body.
func ErrorMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Detail  string          `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(payload.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// CheckRequest validates text and model before any network call.
func CheckRequest(provider domain.AIProvider, text, model string, supported []string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	if !Supports(supported, model) {
		return fmt.Errorf("%w: %s does not support %q", domain.ErrUnsupportedModel, provider, model)
	}
	return nil
}

// Supports reports whether model is in models.
func Supports(models []string, model string) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

// BaseURL returns override when set, else fallback, without a trailing slash.
func BaseURL(override, fallback string) string {
	u := override
	if u == "" {
		u = fallback
	}
	return strings.TrimRight(u, "/")
}

// ToFloat32 narrows a float64 vector.
func ToFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
