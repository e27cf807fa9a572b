// Package embedding maps text into fixed-dimension semantic vectors and
// provides the similarity primitives built on them. Vectors are only
// comparable when produced by the same encoder configuration (model and
// dimensionality); mixing encoders is a caller error.
package embedding

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. If either vector has zero norm, or the lengths differ (vectors
// from different encoder configurations), the similarity is 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Centroid returns the normalized element-wise mean of vectors, representing
// a multi-document profile as one point in semantic space. Empty input yields
// the zero vector of length dim.
func Centroid(vectors [][]float32, dim int) []float32 {
	out := make([]float32, dim)
	if len(vectors) == 0 {
		return out
	}
	sum := make([]float64, dim)
	for _, v := range vectors {
		for i := 0; i < dim && i < len(v); i++ {
			sum[i] += float64(v[i])
		}
	}
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(vectors)))
	}
	return Normalize(out)
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
