package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService computes missing field embeddings for stored chunks.
// Provider calls are paced by a rate limiter.
type IndexService struct {
	chunks   driven.ChunkStore
	embedder *Embedder
	limiter  *rate.Limiter
}

// NewIndexService creates an index service. A nil limiter means no pacing.
func NewIndexService(chunks driven.ChunkStore, embedder *Embedder, limiter *rate.Limiter) *IndexService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &IndexService{
		chunks:   chunks,
		embedder: embedder,
		limiter:  limiter,
	}
}

// EmbedChunk embeds every present field of a chunk that has no embedding for
// the resolved model and returns how many were written.
func (s *IndexService) EmbedChunk(ctx context.Context, chunkID string, provider domain.AIProvider) (int, error) {
	chunk, err := s.chunks.GetChunk(ctx, chunkID)
	if err != nil {
		return 0, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	target, err := s.embedder.Resolve(ctx, provider, "")
	if err != nil {
		return 0, err
	}

	written, _, err := s.embedFields(ctx, target, chunk)
	return written, err
}

// EmbedPending embeds up to limit chunks that are missing field embeddings.
// A provider failure on one field is counted and the run continues; context
// cancellation stops it.
func (s *IndexService) EmbedPending(
	ctx context.Context, provider domain.AIProvider, limit int,
) (domain.IndexStats, error) {
	logger.Section("Embedding Pending Chunks")
	start := time.Now()
	var stats domain.IndexStats

	target, err := s.embedder.Resolve(ctx, provider, "")
	if err != nil {
		return stats, err
	}

	chunks, err := s.chunks.ListChunksMissingEmbeddings(ctx, target.Model(), domain.AllChunkFields(), limit)
	if err != nil {
		return stats, fmt.Errorf("list pending chunks: %w", err)
	}
	logger.Info("Found %d chunks missing %s embeddings", len(chunks), target.Model())

	for i := range chunks {
		stats.Chunks++
		written, skipped, err := s.embedFields(ctx, target, &chunks[i])
		stats.Embedded += written
		stats.Skipped += skipped
		if err != nil {
			if ctx.Err() != nil {
				stats.Duration = time.Since(start)
				return stats, ctx.Err()
			}
			stats.Failed++
			logger.Warn("Embedding chunk %s failed: %v", chunks[i].ID, err)
		}
	}

	stats.Duration = time.Since(start)
	logger.Info("Embedded %d fields across %d chunks in %v (%d failed)",
		stats.Embedded, stats.Chunks, stats.Duration, stats.Failed)
	return stats, nil
}

// embedFields returns the number of embeddings written and of fields skipped
// because they already had one or changed while their vector was computed.
func (s *IndexService) embedFields(ctx context.Context, target *EmbeddingTarget, chunk *domain.Chunk) (int, int, error) {
	written, skipped := 0, 0
	var errs []error

	for _, field := range chunk.PresentFields() {
		has, err := s.chunks.HasEmbedding(ctx, chunk.ID, field, target.Model())
		if err != nil {
			return written, skipped, fmt.Errorf("check embedding: %w", err)
		}
		if has {
			skipped++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return written, skipped, err
		}
		text := chunk.FieldText(field)
		vec, err := target.Embed(ctx, text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			continue
		}

		emb := &domain.Embedding{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Field:      field,
			Model:      target.Model(),
			Vector:     domain.EncodeVector(vec),
			Dimension:  len(vec),
			CreatedAt:  time.Now(),
			SourceText: text,
		}
		err = s.chunks.SaveEmbedding(ctx, emb)
		if errors.Is(err, domain.ErrStaleEmbedding) {
			logger.Debug("Chunk %s %s changed during embedding, leaving it pending", chunk.ID, field)
			skipped++
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", field, err))
			continue
		}
		written++
	}

	return written, skipped, errors.Join(errs...)
}
