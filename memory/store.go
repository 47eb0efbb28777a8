package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/echoforge/echoforge/core"
	"github.com/echoforge/echoforge/storage"
)

// Blob keys. The record queue and the profile live next to each other
// in the same blob store.
const (
	profileKey = "user_profile"
	recordsKey = "echo_record_queue"
)

const collectionName = "echo_records"

// Store holds the user profile and the historical record queue, and keeps
// a vector index over the records for similarity retrieval.
//
// The record queue in the blob store is the source of truth; the chromem
// index is an in-process acceleration structure rebuilt from it via
// Reindex at startup. Retrieval is advisory: every failure on the query
// path degrades to an empty result rather than surfacing an error, so a
// broken index can never block a conversation.
type Store struct {
	blobs    storage.BlobStore
	embedder Embedder

	mu  sync.RWMutex
	db  *chromem.DB
	col *chromem.Collection

	cache *ristretto.Cache

	profileMu sync.Mutex
	profile   core.Profile
}

// NewStore creates a store over the given blobs and embedder.
func NewStore(blobs storage.BlobStore, embedder Embedder) (*Store, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	// Embeddings are the expensive part of indexing; identical documents
	// (a reindex after restart, repeated queries) hit the cache instead.
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Store{
		blobs:    blobs,
		embedder: embedder,
		db:       db,
		col:      col,
		cache:    cache,
	}, nil
}

// embed returns the vector for text, consulting the cache first.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.cache.Get(text); ok {
		if emb, ok := v.([]float32); ok {
			return emb, nil
		}
	}
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Set(text, emb, int64(len(emb)*4))
	return emb, nil
}

// Profile returns the user profile, loading it from the blob store on
// first use. A missing or unreadable profile yields the empty default
// shape; the profile is descriptive context, never a hard dependency.
func (s *Store) Profile(ctx context.Context) core.Profile {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()

	if s.profile != nil {
		return s.profile
	}

	data, err := s.blobs.Load(ctx, profileKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[MEMORY] Failed to load profile: %v, using defaults", err)
		}
		s.profile = core.NewProfile()
		return s.profile
	}

	var p core.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[MEMORY] Profile is not valid JSON: %v, using defaults", err)
		s.profile = core.NewProfile()
		return s.profile
	}

	s.profile = p
	return s.profile
}

// SaveProfile persists the profile and updates the cached copy.
func (s *Store) SaveProfile(ctx context.Context, p core.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.blobs.Save(ctx, profileKey, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	s.profileMu.Lock()
	s.profile = p
	s.profileMu.Unlock()
	return nil
}

// Records returns every stored record, oldest first.
func (s *Store) Records(ctx context.Context) ([]core.Record, error) {
	data, err := s.blobs.Load(ctx, recordsKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load record queue: %w", err)
	}
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode record queue: %w", err)
	}
	return records, nil
}

// Reindex rebuilds the vector index from the record queue. Call once at
// startup; the index itself is not persisted.
func (s *Store) Reindex(ctx context.Context) error {
	records, err := s.Records(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if err := s.index(ctx, records[i]); err != nil {
			return fmt.Errorf("index record %d: %w", i, err)
		}
	}
	log.Printf("[MEMORY] Indexed %d historical records", len(records))
	return nil
}

// AppendRecord durably appends the record to the queue and adds it to
// the live index. Queue persistence is the hard requirement; an indexing
// failure is logged and the record becomes retrievable after the next
// Reindex.
func (s *Store) AppendRecord(ctx context.Context, rec core.Record) error {
	if err := s.blobs.Append(ctx, recordsKey, rec); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	if err := s.index(ctx, rec); err != nil {
		log.Printf("[MEMORY] Failed to index new record: %v", err)
	}
	return nil
}

// index embeds the record's canonical document and adds it to chromem.
// The stored content is the full record JSON so query results round-trip
// without a second lookup.
func (s *Store) index(ctx context.Context, rec core.Record) error {
	emb, err := s.embed(ctx, rec.Document())
	if err != nil {
		return fmt.Errorf("embed record: %w", err)
	}
	content, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.col.AddDocument(ctx, chromem.Document{
		ID:        uuid.NewString(),
		Content:   string(content),
		Embedding: emb,
		Metadata: map[string]string{
			"platform":  rec.Platform,
			"timestamp": rec.Timestamp,
		},
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns up to k records most similar to text, best first. It
// never fails: any error on the embedding or search path is logged and
// an empty slice is returned, so generation proceeds without examples.
func (s *Store) Query(ctx context.Context, text string, k int) []ScoredRecord {
	s.mu.RLock()
	count := s.col.Count()
	s.mu.RUnlock()

	// chromem rejects nResults larger than the collection.
	if k > count {
		k = count
	}
	if k <= 0 {
		log.Printf("[MEMORY] No records to retrieve")
		return nil
	}

	emb, err := s.embed(ctx, text)
	if err != nil {
		log.Printf("[MEMORY] Failed to embed query: %v, retrieval skipped", err)
		return nil
	}

	s.mu.RLock()
	results, err := s.col.QueryEmbedding(ctx, emb, k, nil, nil)
	s.mu.RUnlock()
	if err != nil {
		log.Printf("[MEMORY] Query failed: %v, retrieval skipped", err)
		return nil
	}

	scored := make([]ScoredRecord, 0, len(results))
	for i, res := range results {
		var rec core.Record
		if err := json.Unmarshal([]byte(res.Content), &rec); err != nil {
			log.Printf("[MEMORY] Skipping result #%d: %v", i+1, err)
			continue
		}
		scored = append(scored, ScoredRecord{Record: rec, Score: res.Similarity})
	}
	log.Printf("[MEMORY] Retrieved %d records for query", len(scored))
	return scored
}
