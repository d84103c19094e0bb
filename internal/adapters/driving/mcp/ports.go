package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides retrieval.
	Search driving.SearchService

	// Cache provides the semantic response cache.
	Cache driving.CacheService

	// Document exposes documents and chunks as resources.
	Document driving.DocumentService

	// Settings supplies search defaults.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Cache, Document and Settings are optional.
	return nil
}
