// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements every persistent store
// through a single database handle:
//
//   - ChunkStore: documents, chunks and per-field embeddings
//   - CacheStore: the semantic query cache
//   - SchedulerStore: maintenance task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Vectors are BLOBs of little-endian float32 values; times are Unix nanoseconds.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/rag.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on SQLite's
// locking in WAL mode, and foreign keys are enabled on every connection.
package sqlite
