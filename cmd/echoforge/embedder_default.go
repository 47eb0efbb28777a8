//go:build !onnx

package main

import (
	"github.com/echoforge/echoforge/memory"
	"github.com/echoforge/echoforge/memory/embedder/mock"
)

// newEmbedder returns the deterministic hash embedder. Build with the
// "onnx" tag for real sentence-transformer embeddings.
func newEmbedder() (memory.Embedder, error) {
	return mock.New(), nil
}
