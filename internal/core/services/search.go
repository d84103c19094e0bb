package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// scoredChunk holds per-chunk aggregation state before hydration.
type scoredChunk struct {
	chunkID    string
	documentID string
	matches    []domain.FieldMatch
	score      float64
}

// SearchService provides multi-field semantic retrieval.
// It holds only immutable dependencies; all per-request state is local.
type SearchService struct {
	chunks   driven.ChunkStore
	embedder *Embedder
	engine   *SimilarityEngine
}

// NewSearchService creates a new search service.
func NewSearchService(chunks driven.ChunkStore, embedder *Embedder, engine *SimilarityEngine) *SearchService {
	return &SearchService{
		chunks:   chunks,
		embedder: embedder,
		engine:   engine,
	}
}

// Search embeds the query once, scores every enabled field of every chunk of a
// completed document, and returns the best chunks by their maximum field score.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	if err := validateSearch(query, opts); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		logger.Debug("TopK %d, returning no results", opts.TopK)
		return []domain.SearchResult{}, nil
	}

	start := time.Now()
	vec, sel, err := s.embedder.Embed(ctx, query, opts.Provider, opts.Model)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, domain.NewRetrievalError(err)
	}
	logger.Info("Query embedded via %s/%s in %v", sel.Provider, sel.Model, time.Since(start))

	fields := opts.Fields()
	logger.Debug("Fields: %v, TopK: %d, Threshold: %.3f", fields, opts.TopK, opts.Threshold)

	// Cancellation only applies to the query embedding; ranking runs to completion.
	rankCtx := context.WithoutCancel(ctx)
	candidates, skipped, err := s.score(rankCtx, vec, sel.Model, fields)
	if err != nil {
		return nil, domain.NewRetrievalError(fmt.Errorf("stream embedded fields: %w", err))
	}
	logger.Debug("Scored %d chunks, skipped %d invalid rows", len(candidates), skipped)

	ranked := rank(candidates, opts.Threshold, opts.TopK)
	logger.Debug("Ranked: %d above threshold", len(ranked))

	results, err := s.hydrate(rankCtx, ranked)
	if err != nil {
		return nil, domain.NewRetrievalError(fmt.Errorf("hydrate results: %w", err))
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

func validateSearch(query string, opts domain.SearchOptions) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if math.IsNaN(opts.Threshold) || opts.Threshold < 0 || opts.Threshold > 1 {
		return fmt.Errorf("%w: similarity threshold %v outside [0, 1]", domain.ErrInvalidInput, opts.Threshold)
	}
	if opts.TopK > domain.MaxTopK {
		return fmt.Errorf("%w: topK %d exceeds %d", domain.ErrInvalidInput, opts.TopK, domain.MaxTopK)
	}
	return nil
}

// score streams stored vectors and keeps, per chunk, the similarity of each field.
func (s *SearchService) score(
	ctx context.Context, query []float32, model string, fields []domain.ChunkField,
) (map[string]*scoredChunk, int, error) {
	candidates := make(map[string]*scoredChunk)
	skipped := 0

	filter := domain.EmbeddedFieldFilter{Fields: fields, Model: model}
	err := s.chunks.StreamEmbeddedFields(ctx, filter, func(row domain.EmbeddedField) error {
		if row.Model != model || !fieldEnabled(fields, row.Field) {
			return nil
		}
		sim, ok := s.engine.CompareBytes(query, row.Vector)
		if !ok {
			skipped++
			return nil
		}

		c, exists := candidates[row.ChunkID]
		if !exists {
			c = &scoredChunk{chunkID: row.ChunkID, documentID: row.DocumentID, score: math.Inf(-1)}
			candidates[row.ChunkID] = c
		}
		c.addMatch(row.Field, sim)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return candidates, skipped, nil
}

// addMatch records a field similarity, keeping the higher score if the field
// was already seen.
func (c *scoredChunk) addMatch(field domain.ChunkField, sim float64) {
	for i := range c.matches {
		if c.matches[i].Field == field {
			if sim > c.matches[i].Similarity {
				c.matches[i].Similarity = sim
			}
			c.score = math.Max(c.score, sim)
			return
		}
	}
	c.matches = append(c.matches, domain.FieldMatch{Field: field, Similarity: sim})
	c.score = math.Max(c.score, sim)
}

// rank applies the threshold, orders by score then chunk ID then document ID,
// and truncates to topK. Matched fields end up best first.
func rank(candidates map[string]*scoredChunk, threshold float64, topK int) []*scoredChunk {
	ranked := make([]*scoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.score < threshold {
			continue
		}
		sort.SliceStable(c.matches, func(i, j int) bool {
			if c.matches[i].Similarity != c.matches[j].Similarity {
				return c.matches[i].Similarity > c.matches[j].Similarity
			}
			return c.matches[i].Field.Order() < c.matches[j].Field.Order()
		})
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].chunkID != ranked[j].chunkID {
			return ranked[i].chunkID < ranked[j].chunkID
		}
		return ranked[i].documentID < ranked[j].documentID
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// hydrate attaches chunk content and metadata. Chunks deleted since scoring
// are dropped.
func (s *SearchService) hydrate(ctx context.Context, ranked []*scoredChunk) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ranked))
	if len(ranked) == 0 {
		return results, nil
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.chunkID
	}
	chunks, err := s.chunks.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range ranked {
		chunk, ok := chunks[c.chunkID]
		if !ok {
			logger.Debug("Chunk %s vanished before hydration, dropping", c.chunkID)
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:       c.chunkID,
			DocumentID:    c.documentID,
			BestField:     c.matches[0].Field,
			MatchedFields: c.matches,
			MaxSimilarity: c.score,
			Content:       chunk.Content,
			Metadata:      chunk.Metadata,
		})
	}
	return results, nil
}

func fieldEnabled(fields []domain.ChunkField, f domain.ChunkField) bool {
	for _, allowed := range fields {
		if allowed == f {
			return true
		}
	}
	return false
}
