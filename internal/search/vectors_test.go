package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity_IdenticalVectorsYieldOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarity_OrthogonalVectorsYieldZero(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineSimilarity_OppositeVectorsYieldNegativeOne(t *testing.T) {
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)
}

func TestCosineSimilarity_MismatchedLengthOrEmptyYieldsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestCosineSimilarity_ZeroVectorYieldsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
}

func TestFloat32BytesRoundTrip_PreservesValues(t *testing.T) {
	v := []float32{0.5, -1.25, 3.75, 0}
	got := BytesToFloat32(Float32ToBytes(v))
	assert.Equal(t, v, got)
}

func TestBytesToFloat32_OddLengthReturnsNil(t *testing.T) {
	assert.Nil(t, BytesToFloat32([]byte{1, 2, 3}))
}
