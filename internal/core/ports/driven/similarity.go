package driven

// SimilarityBackend computes cosine similarity between two vectors of equal,
// non-zero length. Backends must agree with each other within 1e-6.
// Validation of the inputs is the caller's job.
type SimilarityBackend interface {
	// Name identifies the backend ("portable" or "native").
	Name() string

	// Cosine returns dot(a, b) / (|a| * |b|), or 0 when either magnitude is zero.
	Cosine(a, b []float32) float64
}
