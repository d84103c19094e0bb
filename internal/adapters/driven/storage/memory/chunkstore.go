package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

type embeddingKey struct {
	chunkID string
	field   domain.ChunkField
	model   string
}

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string]domain.Chunk
	embeddings map[embeddingKey]domain.Embedding
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[embeddingKey]domain.Embedding),
	}
}

// SaveDocument stores or updates a document.
func (s *ChunkStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusPending
	}
	if !doc.Status.IsValid() {
		return fmt.Errorf("%w: document status %q", domain.ErrInvalidInput, doc.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SetDocumentStatus updates a document's processing status.
func (s *ChunkStore) SetDocumentStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: document status %q", domain.ErrInvalidInput, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document, its chunks and their embeddings.
func (s *ChunkStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	for chunkID, c := range s.chunks {
		if c.DocumentID == id {
			delete(s.chunks, chunkID)
		}
	}
	for k, e := range s.embeddings {
		if e.DocumentID == id {
			delete(s.embeddings, k)
		}
	}
	return nil
}

// SaveChunk stores or updates a chunk, dropping embeddings of changed fields.
func (s *ChunkStore) SaveChunk(_ context.Context, chunk *domain.Chunk) error {
	if chunk == nil || chunk.ID == "" || chunk.DocumentID == "" {
		return fmt.Errorf("%w: chunk and document id required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: chunk content required", domain.ErrInvalidInput)
	}
	if chunk.UpdatedAt.IsZero() {
		chunk.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[chunk.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", chunk.DocumentID, domain.ErrNotFound)
	}

	var old *domain.Chunk
	if existing, ok := s.chunks[chunk.ID]; ok {
		old = &existing
	}
	changed := chunk.ChangedFields(old)
	if old != nil && old.DocumentID != chunk.DocumentID {
		changed = domain.AllChunkFields()
	}
	for k := range s.embeddings {
		if k.chunkID != chunk.ID {
			continue
		}
		for _, f := range changed {
			if k.field == f {
				delete(s.embeddings, k)
				break
			}
		}
	}
	s.chunks[chunk.ID] = *chunk
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetChunks retrieves chunks by ID, omitting missing ones.
func (s *ChunkStore) GetChunks(_ context.Context, ids []string) (map[string]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Chunk, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// SaveEmbedding stores the embedding for (chunk, field, model).
func (s *ChunkStore) SaveEmbedding(_ context.Context, emb *domain.Embedding) error {
	if emb == nil || !emb.Field.IsValid() || emb.Model == "" {
		return fmt.Errorf("%w: embedding needs a valid field and model", domain.ErrInvalidInput)
	}
	if !domain.IsValidVector(emb.Vector, emb.Dimension) {
		return fmt.Errorf("%w: chunk %s field %s", domain.ErrInvalidEmbedding, emb.ChunkID, emb.Field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[emb.ChunkID]
	if !ok {
		return fmt.Errorf("chunk %s: %w", emb.ChunkID, domain.ErrNotFound)
	}
	if emb.SourceText != "" && c.FieldText(emb.Field) != emb.SourceText {
		return fmt.Errorf("chunk %s field %s: %w", emb.ChunkID, emb.Field, domain.ErrStaleEmbedding)
	}
	stored := *emb
	stored.SourceText = ""
	stored.DocumentID = c.DocumentID
	stored.Dimension = domain.VectorDimension(emb.Vector)
	stored.Vector = append([]byte(nil), emb.Vector...)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.embeddings[embeddingKey{chunkID: emb.ChunkID, field: emb.Field, model: emb.Model}] = stored
	return nil
}

// HasEmbedding reports whether (chunk, field, model) has an embedding.
func (s *ChunkStore) HasEmbedding(_ context.Context, chunkID string, field domain.ChunkField, model string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.embeddings[embeddingKey{chunkID: chunkID, field: field, model: model}]
	return ok, nil
}

// StreamEmbeddedFields calls fn for each matching embedding of a completed
// document, ordered by chunk ID then field order. The lock is released before
// fn runs.
func (s *ChunkStore) StreamEmbeddedFields(
	ctx context.Context, filter domain.EmbeddedFieldFilter, fn func(domain.EmbeddedField) error,
) error {
	s.mu.RLock()
	rows := make([]domain.EmbeddedField, 0, len(s.embeddings))
	for k, e := range s.embeddings {
		if filter.Model != "" && k.model != filter.Model {
			continue
		}
		if !fieldAllowed(filter.Fields, k.field) {
			continue
		}
		doc, ok := s.documents[e.DocumentID]
		if !ok || doc.Status != domain.DocumentStatusCompleted {
			continue
		}
		rows = append(rows, domain.EmbeddedField{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Field:      e.Field,
			Vector:     e.Vector,
			Model:      e.Model,
		})
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChunkID != rows[j].ChunkID {
			return rows[i].ChunkID < rows[j].ChunkID
		}
		return rows[i].Field.Order() < rows[j].Field.Order()
	})

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// ListChunksMissingEmbeddings returns chunks of completed documents that have
// a present field among fields without an embedding for model.
func (s *ChunkStore) ListChunksMissingEmbeddings(
	_ context.Context, model string, fields []domain.ChunkField, limit int,
) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Chunk
	for _, c := range s.chunks {
		doc, ok := s.documents[c.DocumentID]
		if !ok || doc.Status != domain.DocumentStatusCompleted {
			continue
		}
		for _, f := range c.PresentFields() {
			if !fieldAllowed(fields, f) {
				continue
			}
			if _, ok := s.embeddings[embeddingKey{chunkID: c.ID, field: f, model: model}]; !ok {
				out = append(out, c)
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].Position < out[j].Position
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func fieldAllowed(fields []domain.ChunkField, f domain.ChunkField) bool {
	if len(fields) == 0 {
		return true
	}
	for _, allowed := range fields {
		if allowed == f {
			return true
		}
	}
	return false
}
