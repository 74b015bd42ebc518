package vector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/embedding"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/storage"
)

const testDims = 32

func newTestStore(t *testing.T) (*Store, *storage.SQLiteStorage) {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.NewSQLiteStorage(filepath.Join(dir, "nyaya.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := StoreConfig{
		CollectionName: "legal_documents",
		PersistDir:     filepath.Join(dir, "vectors"),
		EmbeddingModel: "text-embedding-ada-002",
	}
	s := NewStore(cfg, embedding.NewMockEmbedder(testDims), db, zap.NewNop())
	t.Cleanup(func() { s.Close() })
	return s, db
}

// seedChunks persists a document and one chunk per text, returning the chunks.
func seedChunks(t *testing.T, db *storage.SQLiteStorage, texts ...string) []models.Chunk {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	doc := &models.Document{
		ID:        "doc1",
		Name:      "penal_code.txt",
		Path:      "/corpus/penal_code.txt",
		Content:   "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			ID:          "doc1_" + string(rune('a'+i)),
			DocumentID:  "doc1",
			Source:      "penal_code.txt",
			Content:     text,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			CharLength:  len(text),
			Section:     "Section 302",
			CreatedAt:   now,
		}
	}
	if err := db.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	return chunks
}

func TestStore_InitBuildAndQuery(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	chunks := seedChunks(t, db,
		"Section 302 prescribes the punishment for murder.",
		"Formation of a civil contract requires offer and acceptance.")
	if err := s.Init(ctx, chunks); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !s.Initialized() {
		t.Fatal("Initialized() = false after Init")
	}

	// The mock embedder is deterministic, so querying with a chunk's own
	// text scores that chunk at ~1.0.
	results := s.Query(ctx, chunks[0].Content, 5, 0.95)
	if len(results) != 1 {
		t.Fatalf("Query() returned %d results, want 1", len(results))
	}
	r := results[0]
	if r.ChunkID != chunks[0].ID {
		t.Errorf("ChunkID = %s, want %s", r.ChunkID, chunks[0].ID)
	}
	if r.Score < 0.99 || r.Score > 1.0 {
		t.Errorf("Score = %f, want ~1.0", r.Score)
	}
	if r.Source != "penal_code.txt" || r.Section != "Section 302" {
		t.Errorf("payload not resolved: source=%q section=%q", r.Source, r.Section)
	}
}

func TestStore_QueryUninitialized(t *testing.T) {
	s, _ := newTestStore(t)

	results := s.Query(context.Background(), "punishment for theft", 5, 0.7)
	if results != nil {
		t.Errorf("Query() before Init = %v, want nil", results)
	}
}

func TestStore_AddBeforeInitFails(t *testing.T) {
	s, db := newTestStore(t)
	chunks := seedChunks(t, db, "Section 303 deals with theft.")

	if err := s.Add(context.Background(), chunks); err == nil {
		t.Error("Add() before Init should fail")
	}
	if err := s.Remove(context.Background(), []string{"doc1_a"}); err == nil {
		t.Error("Remove() before Init should fail")
	}
}

func TestStore_AddAfterInit(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	chunks := seedChunks(t, db,
		"Section 302 prescribes the punishment for murder.",
		"Section 303 deals with punishment for theft.")
	if err := s.Init(ctx, chunks[:1]); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, chunks[1:]); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	stats := s.Stats()
	if stats.DocumentCount != 2 {
		t.Errorf("DocumentCount after Add = %d, want 2", stats.DocumentCount)
	}

	results := s.Query(ctx, chunks[1].Content, 5, 0.95)
	if len(results) != 1 || results[0].ChunkID != chunks[1].ID {
		t.Errorf("added chunk not retrievable: %+v", results)
	}
}

func TestStore_InitLoadsFromDisk(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	chunks := seedChunks(t, db, "Section 302 prescribes the punishment for murder.")
	if err := s.Init(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same persist directory loads without chunks.
	reopened := NewStore(s.cfg, embedding.NewMockEmbedder(testDims), db, zap.NewNop())
	if err := reopened.Init(ctx, nil); err != nil {
		t.Fatalf("Init(nil) after persist error = %v", err)
	}
	results := reopened.Query(ctx, chunks[0].Content, 5, 0.95)
	if len(results) != 1 {
		t.Fatalf("Query() on reloaded store returned %d results, want 1", len(results))
	}

	stats := reopened.Stats()
	if stats.Status != StatusInitialized || stats.DocumentCount != 1 {
		t.Errorf("Stats() on reloaded store = %+v", stats)
	}
}

func TestStore_InitLoadWithoutPersistedData(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Init(context.Background(), nil); err == nil {
		t.Error("Init(nil) with no persisted store should fail")
	}
	if s.Initialized() {
		t.Error("store should stay uninitialized after failed load")
	}
}

func TestStore_Stats(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	stats := s.Stats()
	if stats.Status != StatusNotInitialized {
		t.Errorf("Status before Init = %q, want %q", stats.Status, StatusNotInitialized)
	}
	if stats.DocumentCount != 0 || stats.CollectionName != "" {
		t.Errorf("uninitialized Stats() should carry no identity: %+v", stats)
	}

	chunks := seedChunks(t, db, "Section 302.", "Section 303.", "General provisions.")
	if err := s.Init(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	stats = s.Stats()
	if stats.Status != StatusInitialized {
		t.Errorf("Status = %q, want %q", stats.Status, StatusInitialized)
	}
	if stats.DocumentCount != 3 {
		t.Errorf("DocumentCount = %d, want 3", stats.DocumentCount)
	}
	if stats.CollectionName != "legal_documents" {
		t.Errorf("CollectionName = %q", stats.CollectionName)
	}
	if stats.EmbeddingModel != "text-embedding-ada-002" {
		t.Errorf("EmbeddingModel = %q", stats.EmbeddingModel)
	}
}

func TestStore_Reset(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	chunks := seedChunks(t, db, "Section 302 prescribes the punishment for murder.")
	if err := s.Init(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if s.Initialized() {
		t.Error("store still initialized after Reset")
	}
	if _, err := os.Stat(s.indexPath()); !os.IsNotExist(err) {
		t.Error("index file still present after Reset")
	}
	docs, _ := db.CountDocuments(ctx)
	chunkCount, _ := db.CountChunks(ctx)
	if docs != 0 || chunkCount != 0 {
		t.Errorf("storage not cleared: %d documents, %d chunks", docs, chunkCount)
	}
	if results := s.Query(ctx, chunks[0].Content, 5, 0.0); results != nil {
		t.Errorf("Query() after Reset = %v, want nil", results)
	}

	// Nothing persisted anymore, so a load must fail.
	if err := s.Init(ctx, nil); err == nil {
		t.Error("Init(nil) after Reset should fail")
	}

	// Reset on an already-uninitialized store is harmless.
	if err := s.Reset(ctx); err != nil {
		t.Errorf("second Reset() error = %v", err)
	}
}

func TestStore_Remove(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	chunks := seedChunks(t, db,
		"Section 302 prescribes the punishment for murder.",
		"Section 303 deals with punishment for theft.")
	if err := s.Init(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(ctx, []string{chunks[0].ID}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Stats().DocumentCount != 1 {
		t.Errorf("DocumentCount after Remove = %d, want 1", s.Stats().DocumentCount)
	}
	if results := s.Query(ctx, chunks[0].Content, 5, 0.95); len(results) != 0 {
		t.Errorf("removed chunk still retrievable: %+v", results)
	}
}

func TestStore_QuerySkipsMissingPayloads(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	stored := seedChunks(t, db, "Section 302 prescribes the punishment for murder.")
	orphan := models.Chunk{
		ID:      "orphan_1",
		Content: "Unpersisted chunk text.",
	}
	if err := s.Init(ctx, append(stored, orphan)); err != nil {
		t.Fatal(err)
	}

	// The orphan has no storage row, so it cannot appear in results.
	results := s.Query(ctx, orphan.Content, 5, 0.0)
	for _, r := range results {
		if r.ChunkID == orphan.ID {
			t.Error("chunk without payload returned by Query()")
		}
	}
}
