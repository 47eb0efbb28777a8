package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/echoforge/echoforge/core"
	"github.com/echoforge/echoforge/memory/embedder/mock"
	"github.com/echoforge/echoforge/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storage.NewFileStore(t.TempDir()), mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func testRecord(title string) core.Record {
	return core.Record{
		Platform:     "LinkedIn",
		Title:        title,
		Content:      "Content for " + title,
		AIResponse:   "Generated response for " + title,
		AIEvaluation: "Confident match",
		Timestamp:    "2026-08-31T12:00:00Z",
	}
}

func TestStore_QueryEmptyStore(t *testing.T) {
	s := newTestStore(t)
	if got := s.Query(context.Background(), "anything", 3); len(got) != 0 {
		t.Errorf("query on empty store returned %v", got)
	}
}

func TestStore_AppendThenQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AppendRecord(ctx, testRecord("Go generics deep dive")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendRecord(ctx, testRecord("Weekend hiking trip")); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Querying with the exact document text of one record must rank it
	// first with near-perfect similarity.
	want := testRecord("Go generics deep dive")
	got := s.Query(ctx, want.Document(), 2)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Record.Title != want.Title {
		t.Errorf("top result = %q, want %q", got[0].Record.Title, want.Title)
	}
	if got[0].Score < 0.99 {
		t.Errorf("exact match score = %f", got[0].Score)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("results not ordered best first: %f < %f", got[0].Score, got[1].Score)
	}
}

func TestStore_QueryClampsK(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AppendRecord(ctx, testRecord("only one")); err != nil {
		t.Fatalf("append: %v", err)
	}
	got := s.Query(ctx, "only one", 5)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
}

func TestStore_AppendPersistsToQueue(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewFileStore(t.TempDir())
	s, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, title := range []string{"first", "second"} {
		if err := s.AppendRecord(ctx, testRecord(title)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := s.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 || records[0].Title != "first" || records[1].Title != "second" {
		t.Errorf("records = %+v", records)
	}
}

func TestStore_ReindexRestoresRetrieval(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewFileStore(t.TempDir())

	first, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	rec := testRecord("survives restart")
	if err := first.AppendRecord(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A fresh store over the same blobs starts with an empty index
	// until Reindex rebuilds it from the queue.
	second, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := second.Query(ctx, rec.Document(), 1); len(got) != 0 {
		t.Fatalf("unindexed store returned %v", got)
	}
	if err := second.Reindex(ctx); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	got := second.Query(ctx, rec.Document(), 1)
	if len(got) != 1 || got[0].Record.Title != "survives restart" {
		t.Errorf("after reindex got %+v", got)
	}
}

// flakyEmbedder works for the first n calls, then fails.
type flakyEmbedder struct {
	inner Embedder
	n     int
	calls int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls > f.n {
		return nil, errors.New("embedder offline")
	}
	return f.inner.Embed(ctx, text)
}

func (f *flakyEmbedder) Dimensions() int { return f.inner.Dimensions() }

func TestStore_QueryDegradesOnEmbedderFailure(t *testing.T) {
	ctx := context.Background()
	emb := &flakyEmbedder{inner: mock.New(), n: 1}
	s, err := NewStore(storage.NewFileStore(t.TempDir()), emb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.AppendRecord(ctx, testRecord("indexed while healthy")); err != nil {
		t.Fatalf("append: %v", err)
	}

	// The embedder is now dead. Retrieval never errors; it just comes
	// back empty so the caller generates without examples.
	if got := s.Query(ctx, "some new query", 1); len(got) != 0 {
		t.Errorf("query with dead embedder returned %v", got)
	}
}

func TestStore_AppendSurvivesIndexFailure(t *testing.T) {
	ctx := context.Background()
	emb := &flakyEmbedder{inner: mock.New(), n: 0}
	s, err := NewStore(storage.NewFileStore(t.TempDir()), emb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	// Indexing fails but the durable append still succeeds.
	if err := s.AppendRecord(ctx, testRecord("queued anyway")); err != nil {
		t.Fatalf("append: %v", err)
	}
	records, err := s.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Title != "queued anyway" {
		t.Errorf("records = %+v", records)
	}
}

func TestStore_ProfileDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := s.Profile(ctx)
	for _, key := range []string{
		"personality_traits", "interests", "communication_style",
		"expertise_areas", "decision_patterns", "created_at", "last_updated",
	} {
		if _, ok := p[key]; !ok {
			t.Errorf("default profile missing %q", key)
		}
	}
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewFileStore(t.TempDir())
	s, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	p := core.NewProfile()
	p["interests"] = []any{"distributed systems"}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	reopened, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	got := reopened.Profile(ctx)
	interests, ok := got["interests"].([]any)
	if !ok || len(interests) != 1 || interests[0] != "distributed systems" {
		t.Errorf("interests = %v", got["interests"])
	}
}

func TestStore_ProfileIgnoresCorruptBlob(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewFileStore(t.TempDir())
	if err := blobs.Save(ctx, "user_profile", []byte("{not json")); err != nil {
		t.Fatalf("save: %v", err)
	}

	s, err := NewStore(blobs, mock.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	p := s.Profile(ctx)
	if _, ok := p["personality_traits"]; !ok {
		t.Errorf("corrupt profile did not fall back to defaults: %v", p)
	}
}
