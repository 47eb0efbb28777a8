// Package memory provides the retrieval memory behind response generation.
// Completed exchanges are appended to a durable record queue and indexed
// in an embedded vector store; generation pulls the nearest past exchanges
// back out to ground new responses in how the user actually writes.
package memory

import (
	"context"

	"github.com/echoforge/echoforge/core"
)

// Embedder converts text to a vector for similarity search.
//
// Implementations:
//   - embedder/mock: deterministic hash-based vectors for tests and
//     API-key-free local runs
//   - embedder/onnx: local all-MiniLM-L6-v2 inference (build tag "onnx")
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ScoredRecord is a past exchange together with its cosine similarity
// to the query, in [0, 1].
type ScoredRecord struct {
	Record core.Record
	Score  float32
}
