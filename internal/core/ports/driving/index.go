package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IndexService keeps chunk field embeddings in step with chunk text.
type IndexService interface {
	// EmbedChunk embeds every present field of a chunk that lacks an embedding
	// for the resolved model. Returns the number of embeddings written.
	EmbedChunk(ctx context.Context, chunkID string, provider domain.AIProvider) (int, error)

	// EmbedPending embeds up to limit chunks with missing field embeddings.
	EmbedPending(ctx context.Context, provider domain.AIProvider, limit int) (domain.IndexStats, error)
}
