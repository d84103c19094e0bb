package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// Retrieval Errors.

	// ErrUnsupportedModel indicates the provider does not recognise the model.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrProviderUnavailable indicates a network, timeout or upstream failure.
	// Callers may retry.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoProviderAvailable indicates no embedding provider is configured.
	// Not retryable without operator action.
	ErrNoProviderAvailable = errors.New("no embedding provider available")

	// ErrInvalidEmbedding indicates a stored vector is malformed.
	// Search absorbs it by skipping the row.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrStaleEmbedding indicates the chunk field changed while its vector
	// was being computed. The indexer picks the new text up on its next run.
	ErrStaleEmbedding = errors.New("stale embedding")

	// ErrRetrievalFailed indicates the whole search failed.
	ErrRetrievalFailed = errors.New("retrieval failed")
)

// ProviderError describes a failed call to an embedding provider.
// It matches ErrProviderUnavailable with errors.Is.
type ProviderError struct {
	// Provider is the provider that failed.
	Provider AIProvider

	// StatusCode is the upstream HTTP status, or 0 for transport failures.
	StatusCode int

	// Message is the upstream error message, if any.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, ErrProviderUnavailable, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, ErrProviderUnavailable, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, ErrProviderUnavailable, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, ErrProviderUnavailable)
	}
}

// Unwrap exposes both the sentinel and the cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProviderUnavailable}
	}
	return []error{ErrProviderUnavailable, e.Err}
}

// RetrievalError wraps the upstream cause of a failed search.
// It matches ErrRetrievalFailed and the cause with errors.Is.
type RetrievalError struct {
	Cause error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRetrievalFailed, e.Cause)
}

// Unwrap exposes both the sentinel and the cause.
func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalFailed, e.Cause}
}

// NewRetrievalError wraps cause as a retrieval failure.
func NewRetrievalError(cause error) error {
	return &RetrievalError{Cause: cause}
}
