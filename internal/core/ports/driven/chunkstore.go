package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ChunkStore persists documents, chunks and their field embeddings.
// Search treats it as read-mostly and never mutates it.
type ChunkStore interface {
	// StreamEmbeddedFields calls fn for every stored embedding that belongs to a
	// completed document and matches the filter. Returning an error from fn stops
	// the stream and the error is returned.
	StreamEmbeddedFields(ctx context.Context, filter domain.EmbeddedFieldFilter, fn func(domain.EmbeddedField) error) error

	// GetChunks retrieves chunks by ID. Missing IDs are omitted from the result.
	GetChunks(ctx context.Context, ids []string) (map[string]domain.Chunk, error)

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SetDocumentStatus updates a document's processing status.
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	// SaveChunk stores or updates a chunk. Embeddings of every field whose text
	// changed are deleted in the same operation.
	SaveChunk(ctx context.Context, chunk *domain.Chunk) error

	// SaveEmbedding stores the embedding for (chunk, field, model), replacing any
	// previous one. Fails with domain.ErrInvalidEmbedding for a malformed vector
	// and with domain.ErrStaleEmbedding when emb.SourceText no longer matches
	// the field. The check and the write are atomic.
	SaveEmbedding(ctx context.Context, emb *domain.Embedding) error

	// ListChunksMissingEmbeddings returns chunks of completed documents that
	// have a present field among fields without an embedding for model.
	ListChunksMissingEmbeddings(ctx context.Context, model string, fields []domain.ChunkField, limit int) ([]domain.Chunk, error)

	// HasEmbedding reports whether (chunk, field, model) has an embedding.
	HasEmbedding(ctx context.Context, chunkID string, field domain.ChunkField, model string) (bool, error)

	// DeleteDocument removes a document, its chunks and their embeddings.
	DeleteDocument(ctx context.Context, id string) error
}
