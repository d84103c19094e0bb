//go:build !cgo

package cosine

import (
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.SimilarityBackend = (*Backend)(nil)

// Available reports whether the native kernel is compiled in.
// This is a stub for builds without CGO.
func Available() bool {
	return false
}

// Cosine returns the cosine similarity of a and b.
// This is a stub for builds without CGO; it runs the same loop in Go so the
// package stays usable, but selection never picks it.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Backend adapts the kernel to driven.SimilarityBackend.
type Backend struct{}

// New returns the native backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "native".
func (b *Backend) Name() string {
	return "native"
}

// Cosine implements driven.SimilarityBackend.
func (b *Backend) Cosine(x, y []float32) float64 {
	return Cosine(x, y)
}
