package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON file per key under a base directory. Writes
// go to a temp file in the same directory, are fsynced, and renamed into
// place, so a crash mid-write never corrupts the previous value. Writes
// to the same key are serialized; distinct keys proceed concurrently.
//
// FileStore also satisfies workflow.CheckpointStore.
type FileStore struct {
	base string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a store rooted at base.
func NewFileStore(base string) *FileStore {
	return &FileStore{
		base:  base,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *FileStore) path(key string) string {
	// Keys are flat names; strip path separators defensively so a key
	// can never escape the base directory.
	key = strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.base, key+".json")
}

func (s *FileStore) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Load reads the value under key, or ErrNotFound.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Save replaces the whole value under key atomically.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()
	return s.write(key, data)
}

// write performs the temp-write-fsync-rename dance. Callers hold the
// key lock.
func (s *FileStore) write(key string, data []byte) error {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return fmt.Errorf("ensure data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.base, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Append adds one record to the JSON array under key, creating the
// collection if absent. The read-modify-write cycle holds the key lock
// so concurrent completions cannot lose updates.
func (s *FileStore) Append(ctx context.Context, key string, record any) error {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	var records []json.RawMessage
	data, err := os.ReadFile(s.path(key))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("existing collection %s is not a JSON array: %w", key, err)
		}
	case os.IsNotExist(err):
		// First record creates the collection.
	default:
		return fmt.Errorf("read collection %s: %w", key, err)
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	records = append(records, encoded)

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	return s.write(key, out)
}

// Delete removes the value under key. Deleting an absent key is not an
// error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns all stored keys. Temp files left behind by an
// interrupted write are not keys and are skipped.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if strings.HasPrefix(e.Name(), "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}
