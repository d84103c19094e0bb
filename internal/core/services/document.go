package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages documents and chunks in the chunk store.
type DocumentService struct {
	chunks driven.ChunkStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(chunks driven.ChunkStore) *DocumentService {
	return &DocumentService{chunks: chunks}
}

// Save creates or updates a document, assigning an ID when none is given.
func (s *DocumentService) Save(ctx context.Context, doc *domain.Document) error {
	if s.chunks == nil {
		return domain.ErrNotImplemented
	}
	if doc == nil {
		return fmt.Errorf("%w: document required", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if err := s.chunks.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	logger.Debug("saved document %s (%s)", doc.ID, doc.Status)
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.chunks == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.chunks.GetDocument(ctx, documentID)
}

// SetStatus updates a document's processing status.
func (s *DocumentService) SetStatus(ctx context.Context, documentID string, status domain.DocumentStatus) error {
	if s.chunks == nil {
		return domain.ErrNotImplemented
	}
	return s.chunks.SetDocumentStatus(ctx, documentID, status)
}

// Delete removes a document with its chunks and embeddings.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.chunks == nil {
		return domain.ErrNotImplemented
	}
	return s.chunks.DeleteDocument(ctx, documentID)
}

// AddChunk stores or updates a chunk, assigning an ID when none is given.
func (s *DocumentService) AddChunk(ctx context.Context, chunk *domain.Chunk) error {
	if s.chunks == nil {
		return domain.ErrNotImplemented
	}
	if chunk == nil {
		return fmt.Errorf("%w: chunk required", domain.ErrInvalidInput)
	}
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	if err := s.chunks.SaveChunk(ctx, chunk); err != nil {
		return fmt.Errorf("save chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *DocumentService) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	if s.chunks == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.chunks.GetChunk(ctx, chunkID)
}
