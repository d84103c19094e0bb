package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// SimilarityEngine validates vectors and scores them with a backend.
type SimilarityEngine struct {
	backend driven.SimilarityBackend
}

// NewSimilarityEngine creates an engine over backend.
func NewSimilarityEngine(backend driven.SimilarityBackend) *SimilarityEngine {
	return &SimilarityEngine{backend: backend}
}

// BackendName returns the name of the backend in use.
func (e *SimilarityEngine) BackendName() string {
	return e.backend.Name()
}

// CosineSimilarity returns the cosine similarity of a and b clamped to [-1, 1].
// Mismatched, empty or non-finite vectors fail with domain.ErrInvalidEmbedding.
// A zero magnitude vector scores 0.
func (e *SimilarityEngine) CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension %d vs %d", domain.ErrInvalidEmbedding, len(a), len(b))
	}
	if !domain.IsFiniteVector(a) || !domain.IsFiniteVector(b) {
		return 0, fmt.Errorf("%w: empty or non-finite vector", domain.ErrInvalidEmbedding)
	}
	return clamp(e.backend.Cosine(a, b)), nil
}

// IsValid reports whether a stored buffer holds expectedDim finite components.
func (e *SimilarityEngine) IsValid(data []byte, expectedDim int) bool {
	return domain.IsValidVector(data, expectedDim)
}

// Dimension returns the component count of a stored buffer.
func (e *SimilarityEngine) Dimension(data []byte) int {
	return domain.VectorDimension(data)
}

// CompareBytes scores a stored buffer against a query vector.
// ok is false when the buffer is malformed or has the wrong dimension; such
// rows are skipped by callers, never reported.
func (e *SimilarityEngine) CompareBytes(query []float32, stored []byte) (float64, bool) {
	if !domain.IsValidVector(stored, len(query)) {
		return 0, false
	}
	v, err := domain.DecodeVector(stored)
	if err != nil {
		return 0, false
	}
	score, err := e.CosineSimilarity(query, v)
	if err != nil {
		return 0, false
	}
	return score, true
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	case x < -1:
		return -1
	default:
		return x
	}
}
