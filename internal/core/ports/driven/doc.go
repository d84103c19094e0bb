// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingAdapter / EmbeddingRegistry: text to vector, one adapter per provider
//   - SimilarityBackend: cosine similarity (portable Go or native cgo)
//   - ChunkStore: chunks and their per-field embeddings
//   - ProviderConfigStore: active provider configs with decrypted credentials
//   - CacheStore: semantic cache rows
//   - ConfigStore: application configuration
//   - SchedulerStore: maintenance task state and run history
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
