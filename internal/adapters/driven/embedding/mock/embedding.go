// Package mock provides a deterministic embedding adapter for development
// environments and tests. It never touches the network.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/transport"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.EmbeddingAdapter = (*Adapter)(nil)

// Adapter derives unit vectors from a hash of (model, text).
// The same input always yields the same vector.
type Adapter struct{}

// New creates a mock adapter.
func New() *Adapter {
	return &Adapter{}
}

// Provider returns domain.AIProviderMock.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.AIProviderMock
}

// SupportsModel reports whether model is one of the mock models.
func (a *Adapter) SupportsModel(model string) bool {
	return transport.Supports(domain.ProviderModels()[domain.AIProviderMock], model)
}

// GenerateEmbedding returns a deterministic L2-normalised vector.
func (a *Adapter) GenerateEmbedding(
	ctx context.Context, text, model string, _ domain.Credentials,
) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ProviderError{Provider: a.Provider(), Message: "cancelled", Err: err}
	}
	if err := transport.CheckRequest(a.Provider(), text, model, domain.ProviderModels()[domain.AIProviderMock]); err != nil {
		return nil, err
	}
	return Vector(model, text, domain.EmbeddingDimensions()[model]), nil
}

// Vector computes the mock vector for (model, text) with the given dimension.
func Vector(model, text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(model))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
