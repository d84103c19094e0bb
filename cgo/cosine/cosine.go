//go:build cgo

package cosine

/*
#cgo CFLAGS: -O3
#include <math.h>
#include <stddef.h>

static double sercha_cosine(const float *a, const float *b, size_t n) {
	double dot = 0.0, na = 0.0, nb = 0.0;
	for (size_t i = 0; i < n; i++) {
		double x = (double)a[i];
		double y = (double)b[i];
		dot += x * y;
		na += x * x;
		nb += y * y;
	}
	if (na == 0.0 || nb == 0.0) {
		return 0.0;
	}
	return dot / (sqrt(na) * sqrt(nb));
}
*/
import "C"

import (
	"unsafe"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.SimilarityBackend = (*Backend)(nil)

// Available reports whether the native kernel is compiled in.
func Available() bool {
	return true
}

// Cosine returns the cosine similarity of a and b.
// Vectors of different or zero length yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return float64(C.sercha_cosine(
		(*C.float)(unsafe.Pointer(&a[0])),
		(*C.float)(unsafe.Pointer(&b[0])),
		C.size_t(len(a)),
	))
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
