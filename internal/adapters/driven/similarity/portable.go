// Package similarity provides cosine similarity backends and runtime selection.
package similarity

import (
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Portable implements the interface.
var _ driven.SimilarityBackend = (*Portable)(nil)

// Portable is the pure Go scalar backend. It accumulates in float64 and is
// the reference the native backend is checked against.
type Portable struct{}

// NewPortable returns the portable backend.
func NewPortable() *Portable {
	return &Portable{}
}

// Name returns "portable".
func (p *Portable) Name() string {
	return "portable"
}

// Cosine returns dot(a, b) / (|a| * |b|), or 0 for mismatched, empty or zero
// magnitude vectors.
func (p *Portable) Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
