package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentService manages the documents and chunks search reads from.
// Ingestion pipelines call it to register text; only completed documents
// are searchable.
type DocumentService interface {
	// Save creates or updates a document. A new document starts pending.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// SetStatus moves a document through its processing lifecycle.
	SetStatus(ctx context.Context, documentID string, status domain.DocumentStatus) error

	// Delete removes a document with its chunks and embeddings.
	Delete(ctx context.Context, documentID string) error

	// AddChunk stores or updates a chunk. Embeddings of changed fields are
	// invalidated and must be recomputed by the index service.
	AddChunk(ctx context.Context, chunk *domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}
