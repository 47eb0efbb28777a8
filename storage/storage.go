// Package storage provides the persistence collaborators: a namespaced
// JSON blob store (one whole value replaced atomically per call) and
// checkpoint stores for suspended conversations.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: not found")

// BlobStore is a simple namespaced blob store. Values are opaque JSON;
// Append treats the value under a key as a JSON array and adds one
// element, creating the collection if absent.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Append(ctx context.Context, key string, record any) error
}
