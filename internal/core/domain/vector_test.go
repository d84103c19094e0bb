package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeVector(t *testing.T) {
	v := []float32{0.25, -1.5, 3, 0}

	data := EncodeVector(v)
	require.Len(t, data, len(v)*4)

	decoded, err := DecodeVector(data)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestEncodeVector_LittleEndian(t *testing.T) {
	// 1.0 is 0x3F800000.
	data := EncodeVector([]float32{1})
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, data)
}

func TestEncodeVector_Empty(t *testing.T) {
	assert.Nil(t, EncodeVector(nil))
}

func TestDecodeVector_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"ragged length", []byte{1, 2, 3, 4, 5}},
		{"NaN component", EncodeVector([]float32{1, float32(math.NaN())})},
		{"Inf component", EncodeVector([]float32{float32(math.Inf(1))})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVector(tt.data)
			assert.ErrorIs(t, err, ErrInvalidEmbedding)
		})
	}
}

func TestVectorDimension(t *testing.T) {
	assert.Equal(t, 3, VectorDimension(EncodeVector([]float32{1, 2, 3})))
	assert.Equal(t, 0, VectorDimension([]byte{1, 2, 3}))
	assert.Equal(t, 0, VectorDimension(nil))
}

func TestIsValidVector(t *testing.T) {
	valid := EncodeVector([]float32{0.1, 0.2, 0.3, 0.4})

	tests := []struct {
		name     string
		data     []byte
		dim      int
		expected bool
	}{
		{"matching dimension", valid, 4, true},
		{"any dimension", valid, 0, true},
		{"wrong dimension", valid, 8, false},
		{"length not multiple of four", valid[:15], 0, false},
		{"length not multiple of four with dim", valid[:15], 4, false},
		{"empty", nil, 0, false},
		{"NaN", EncodeVector([]float32{float32(math.NaN()), 1}), 2, false},
		{"negative Inf", EncodeVector([]float32{float32(math.Inf(-1)), 1}), 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidVector(tt.data, tt.dim))
		})
	}
}

func TestIsFiniteVector(t *testing.T) {
	assert.True(t, IsFiniteVector([]float32{1, 2}))
	assert.False(t, IsFiniteVector(nil))
	assert.False(t, IsFiniteVector([]float32{float32(math.NaN())}))
}
