// Package mock provides a deterministic embedder for tests and for
// running without any embedding backend. Vectors are derived from a hash
// of the text, so identical documents always land on identical vectors
// and exact-match retrieval works end to end.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

const dimensions = 384 // matches all-MiniLM-L6-v2 so it can stand in for onnx

// Embedder generates hash-seeded pseudo-random unit vectors.
type Embedder struct{}

// New creates a mock embedder.
func New() *Embedder {
	return &Embedder{}
}

// Embed derives a deterministic unit vector from text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dimensions)
	for i := range vec {
		// LCG advances the hash into a full-length vector.
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return dimensions
}

func normalize(vec []float32) []float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
