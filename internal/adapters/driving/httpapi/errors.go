package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Error codes returned in the "error" field of a failed response.
const (
	codeInvalidRequest      = "invalid_request"
	codeNoProvider          = "no_provider_configured"
	codeProviderUnavailable = "provider_unavailable"
	codeNotImplemented      = "not_implemented"
	codeUnavailable         = "unavailable"
	codeInternal            = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeServiceError maps domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: codeInvalidRequest, Message: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: codeInvalidRequest, Message: err.Error()})
	case errors.Is(err, domain.ErrNoProviderAvailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: codeNoProvider, Message: err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: codeProviderUnavailable, Message: err.Error()})
	case errors.Is(err, domain.ErrNotImplemented):
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: codeNotImplemented, Message: err.Error()})
	default:
		logger.Error("http: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: codeInternal, Message: "an internal error occurred"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("http: write response: %v", err)
	}
}
