package domain

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Vectors are stored as IEEE-754 float32 values in little-endian byte order.
const bytesPerComponent = 4

// Embedding is a stored vector bound to exactly one (chunk, field, model).
type Embedding struct {
	// ChunkID is the owning chunk.
	ChunkID string

	// DocumentID is the owning chunk's document.
	DocumentID string

	// Field is the chunk field the vector was computed from.
	Field ChunkField

	// Model is the embedding model that produced the vector.
	Model string

	// Vector is the raw little-endian float32 buffer.
	Vector []byte

	// Dimension is the number of components; len(Vector) == Dimension*4.
	Dimension int

	// CreatedAt is when the vector was computed.
	CreatedAt time.Time

	// SourceText is the field text the vector was computed from. When set,
	// stores refuse the save with ErrStaleEmbedding if the field has changed
	// since. It is not persisted.
	SourceText string
}

// EmbeddedField is one row streamed out of the chunk store during search.
type EmbeddedField struct {
	ChunkID    string
	DocumentID string
	Field      ChunkField
	Vector     []byte
	Model      string
}

// EncodeVector converts a vector to its stored byte form.
func EncodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*bytesPerComponent)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*bytesPerComponent:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector converts a stored byte buffer back to a vector.
// It fails with ErrInvalidEmbedding on a ragged buffer or non-finite component.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%bytesPerComponent != 0 {
		return nil, fmt.Errorf("%w: byte length %d", ErrInvalidEmbedding, len(data))
	}
	v := make([]float32, len(data)/bytesPerComponent)
	for i := range v {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*bytesPerComponent:]))
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%w: non-finite component at %d", ErrInvalidEmbedding, i)
		}
		v[i] = f
	}
	return v, nil
}

// VectorDimension returns the number of float32 components in a stored buffer,
// or 0 when the buffer length is not a multiple of four.
func VectorDimension(data []byte) int {
	if len(data)%bytesPerComponent != 0 {
		return 0
	}
	return len(data) / bytesPerComponent
}

// IsValidVector reports whether a stored buffer holds exactly expectedDim finite
// components. An expectedDim of 0 accepts any non-empty dimension.
func IsValidVector(data []byte, expectedDim int) bool {
	if len(data) == 0 || len(data)%bytesPerComponent != 0 {
		return false
	}
	if expectedDim > 0 && len(data)/bytesPerComponent != expectedDim {
		return false
	}
	for i := 0; i < len(data); i += bytesPerComponent {
		f := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// IsFiniteVector reports whether every component of v is finite and v is non-empty.
func IsFiniteVector(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
