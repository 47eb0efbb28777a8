package workflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrThreadNotFound is MemoryStore's report of a thread id with no
// checkpoint. Durable stores surface their own not-found sentinel;
// Resume wraps either into its returned error.
var ErrThreadNotFound = errors.New("workflow: thread not found")

// CheckpointStore persists serialized checkpoints keyed by thread id.
// storage.FileStore and storage.RedisStore satisfy it.
type CheckpointStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// checkpoint is the serialized form of a suspended run: the state so far
// and the node execution continues from.
type checkpoint[S any] struct {
	ThreadID  string    `json:"thread_id"`
	NextNode  string    `json:"next_node"`
	State     S         `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemoryStore is an in-process CheckpointStore, the default when no
// durable store is supplied.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrThreadNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}
