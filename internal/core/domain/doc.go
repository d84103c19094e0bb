// Package domain defines the core business entities for the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document and Chunk: retrievable text with up to four embeddable fields
//   - Embedding: a stored vector bound to one (chunk, field, model)
//   - ProviderConfig: how to reach an embedding provider
//   - CacheEntry: a cached (query, response) pair
//   - SearchResult: one ranked chunk returned by a search
//   - ScheduledTask: background maintenance run on an interval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
