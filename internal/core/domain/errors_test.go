package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrUnsupportedModel", ErrUnsupportedModel},
		{"ErrProviderUnavailable", ErrProviderUnavailable},
		{"ErrNoProviderAvailable", ErrNoProviderAvailable},
		{"ErrInvalidEmbedding", ErrInvalidEmbedding},
		{"ErrRetrievalFailed", ErrRetrievalFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoProviderAvailable, ErrProviderUnavailable))
	assert.False(t, errors.Is(ErrProviderUnavailable, ErrNoProviderAvailable))
	assert.False(t, errors.Is(ErrRetrievalFailed, ErrProviderUnavailable))
}

func TestProviderError(t *testing.T) {
	t.Run("matches sentinel and cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &ProviderError{Provider: AIProviderOpenAI, Err: cause}

		assert.True(t, errors.Is(err, ErrProviderUnavailable))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "openai")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("carries upstream status", func(t *testing.T) {
		err := &ProviderError{Provider: AIProviderVoyage, StatusCode: 503, Message: "overloaded"}

		assert.True(t, errors.Is(err, ErrProviderUnavailable))
		assert.Contains(t, err.Error(), "status 503")
		assert.Contains(t, err.Error(), "overloaded")
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("embed query: %w", &ProviderError{Provider: AIProviderGemini, StatusCode: 500})

		var perr *ProviderError
		assert.True(t, errors.As(err, &perr))
		assert.Equal(t, 500, perr.StatusCode)
	})
}

func TestRetrievalError(t *testing.T) {
	cause := &ProviderError{Provider: AIProviderOllama, StatusCode: 504}
	err := NewRetrievalError(cause)

	assert.True(t, errors.Is(err, ErrRetrievalFailed))
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.False(t, errors.Is(err, ErrNoProviderAvailable))
	assert.Contains(t, err.Error(), "retrieval failed")

	noProvider := NewRetrievalError(ErrNoProviderAvailable)
	assert.True(t, errors.Is(noProvider, ErrNoProviderAvailable))
	assert.False(t, errors.Is(noProvider, ErrProviderUnavailable))
}
