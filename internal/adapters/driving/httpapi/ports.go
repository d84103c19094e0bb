package httpapi

import (
	"context"
	"errors"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("httpapi: search service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Search provides retrieval. Required.
	Search driving.SearchService

	// Cache provides the semantic cache. Cache routes answer 501 without it.
	Cache driving.CacheService

	// Settings supplies request defaults. Optional.
	Settings driving.SettingsService

	// Health reports storage reachability. Optional.
	Health func(ctx context.Context) error
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
