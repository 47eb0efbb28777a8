//go:build onnx

package main

import (
	"os"

	"github.com/echoforge/echoforge/memory"
	"github.com/echoforge/echoforge/memory/embedder/onnx"
)

// newEmbedder loads the local sentence-transformer model. Paths come
// from the environment so the binary stays relocatable.
func newEmbedder() (memory.Embedder, error) {
	return onnx.New(onnx.Config{
		ModelPath:     envOr("ECHOFORGE_ONNX_MODEL", "models/all-MiniLM-L6-v2/model.onnx"),
		TokenizerPath: envOr("ECHOFORGE_ONNX_TOKENIZER", "models/all-MiniLM-L6-v2/tokenizer.json"),
		LibraryPath:   envOr("ECHOFORGE_ONNX_LIB", "/usr/local/lib/libonnxruntime.so"),
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
