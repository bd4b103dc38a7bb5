package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestDecodeEmbedding(t *testing.T) {
	vec, err := DecodeEmbedding("[0.1, -0.5, 2]")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, -0.5, 2}, vec)

	_, err = DecodeEmbedding("not json")
	assert.Error(t, err)
}
