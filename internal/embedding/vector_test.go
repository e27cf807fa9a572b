package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.True(t, IsZero(zero))
}

func TestCentroid(t *testing.T) {
	c := Centroid([][]float32{{1, 0}, {0, 1}}, 2)
	require.Len(t, c, 2)
	assert.InDelta(t, float64(c[0]), float64(c[1]), 1e-6)

	var norm float64
	for _, x := range c {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestCentroid_SingleVector(t *testing.T) {
	v := []float32{3, 4}
	c := Centroid([][]float32{v}, 2)
	want := Normalize(v)
	for i := range want {
		assert.InDelta(t, float64(want[i]), float64(c[i]), 1e-6)
	}
}

func TestCentroid_Empty(t *testing.T) {
	c := Centroid(nil, 3)
	require.Len(t, c, 3)
	assert.True(t, IsZero(c))
}
