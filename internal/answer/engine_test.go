package answer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/embedding"
	"github.com/nyayalabs/nyaya/internal/llm"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/session"
	"github.com/nyayalabs/nyaya/internal/storage"
	"github.com/nyayalabs/nyaya/internal/vector"
)

type engineFixture struct {
	engine   *Engine
	store    *vector.Store
	db       *storage.SQLiteStorage
	client   *llm.MockClient
	sessions *session.Store
}

func newEngineFixture(t *testing.T, threshold float64, answer string) *engineFixture {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.NewSQLiteStorage(filepath.Join(dir, "nyaya.db"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store := vector.NewStore(vector.StoreConfig{
		CollectionName: "legal_documents",
		PersistDir:     filepath.Join(dir, "vectors"),
		EmbeddingModel: "text-embedding-ada-002",
	}, embedding.NewMockEmbedder(32), db, zap.NewNop())
	t.Cleanup(func() { store.Close() })

	client := llm.NewMockClient(answer)
	sessions := session.NewStore(0, zap.NewNop())
	engine := NewEngine(Config{
		TopK:           5,
		ScoreThreshold: threshold,
		Model:          "gpt-3.5-turbo",
	}, store, client, sessions, zap.NewNop())

	return &engineFixture{
		engine:   engine,
		store:    store,
		db:       db,
		client:   client,
		sessions: sessions,
	}
}

// seed persists one document with one chunk per text and indexes them.
func (f *engineFixture) seed(t *testing.T, texts ...string) []models.Chunk {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	doc := &models.Document{
		ID:        "doc1",
		Name:      "bns.txt",
		Path:      "/corpus/bns.txt",
		Content:   "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			ID:          "doc1_" + string(rune('a'+i)),
			DocumentID:  "doc1",
			Source:      "bns.txt",
			Content:     text,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			CharLength:  len(text),
			Section:     "Section 303",
			CreatedAt:   now,
		}
	}
	if err := f.db.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Init(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	return chunks
}

func TestEngine_ProcessQuery(t *testing.T) {
	const chunkText = "Section 303 of the Bharatiya Nyaya Sanhita prescribes imprisonment for theft."
	f := newEngineFixture(t, 0.95, "Theft is punishable under Section 303 with imprisonment.")
	f.seed(t, chunkText)
	sessionID := f.sessions.Create()

	// Querying with the chunk's own text scores it ~1.0 under the mock
	// embedder, so it clears the 0.95 threshold.
	resp := f.engine.ProcessQuery(context.Background(), chunkText, sessionID)

	if !resp.Success {
		t.Fatalf("Success = false, error = %q", resp.Error)
	}
	if resp.Answer != "Theft is punishable under Section 303 with imprisonment." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if resp.QueryType != "penalty" {
		t.Errorf("QueryType = %q, want penalty", resp.QueryType)
	}
	if resp.RetrievedDocs != 1 {
		t.Errorf("RetrievedDocs = %d, want 1", resp.RetrievedDocs)
	}
	if len(resp.Citations) != 1 || resp.Citations[0] != "Section 303" {
		t.Errorf("Citations = %v, want [Section 303]", resp.Citations)
	}
	if resp.Confidence != 0.13 {
		t.Errorf("Confidence = %f, want 0.13", resp.Confidence)
	}
	if resp.SessionID != sessionID {
		t.Errorf("SessionID = %q, want %q", resp.SessionID, sessionID)
	}
	if resp.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q", resp.Model)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("Timestamp %q not RFC3339: %v", resp.Timestamp, err)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Source != "bns.txt" {
		t.Errorf("Sources = %+v", resp.Sources)
	}
	if len(resp.Excerpts) != 1 {
		t.Fatalf("Excerpts = %+v, want 1 entry", resp.Excerpts)
	}
	if resp.Excerpts[0].Section != "Section 303" {
		t.Errorf("excerpt section = %q", resp.Excerpts[0].Section)
	}
	if resp.Excerpts[0].Score < 0.99 || resp.Excerpts[0].Score > 1.0 {
		t.Errorf("excerpt score = %f, want ~1.0", resp.Excerpts[0].Score)
	}
}

func TestEngine_ProcessQuery_PenaltyScenario(t *testing.T) {
	f := newEngineFixture(t, 0.999, "Under Section 303, theft is punished with imprisonment.")
	f.seed(t, "Section 303 prescribes imprisonment for theft")
	sessionID := f.sessions.Create()

	resp := f.engine.ProcessQuery(context.Background(), "What is the punishment for theft?", sessionID)

	if resp.QueryType != "penalty" {
		t.Errorf("QueryType = %q, want penalty", resp.QueryType)
	}
	found := false
	for _, c := range resp.Citations {
		if c == "Section 303" {
			found = true
		}
	}
	if !found {
		t.Errorf("Citations = %v, want Section 303 included", resp.Citations)
	}
}

func TestEngine_ProcessQuery_Uninitialized(t *testing.T) {
	f := newEngineFixture(t, 0.7, "irrelevant")
	sessionID := f.sessions.Create()

	resp := f.engine.ProcessQuery(context.Background(), "What is theft?", sessionID)

	if resp.Success {
		t.Fatal("Success = true for uninitialized index")
	}
	if resp.Answer != apologyAnswer {
		t.Errorf("Answer = %q, want apology", resp.Answer)
	}
	if resp.Confidence != 0.0 {
		t.Errorf("Confidence = %f, want 0.0", resp.Confidence)
	}
	if resp.QueryType != "error" {
		t.Errorf("QueryType = %q, want error", resp.QueryType)
	}
	if resp.Error == "" {
		t.Error("Error field empty")
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty list", resp.Sources)
	}
	if resp.Citations == nil || len(resp.Citations) != 0 {
		t.Errorf("Citations = %v, want empty list", resp.Citations)
	}
	if resp.SessionID != sessionID {
		t.Errorf("SessionID = %q", resp.SessionID)
	}
}

func TestEngine_ProcessQuery_GenerationFailure(t *testing.T) {
	f := newEngineFixture(t, 0.7, "")
	f.seed(t, "Section 303 prescribes imprisonment for theft")
	f.client.Fail(errors.New("upstream unavailable"))

	resp := f.engine.ProcessQuery(context.Background(), "What is theft?", "sess")

	if resp.Success {
		t.Fatal("Success = true after generation failure")
	}
	if resp.QueryType != "error" || resp.Confidence != 0.0 {
		t.Errorf("error response fields wrong: type=%q confidence=%f", resp.QueryType, resp.Confidence)
	}
	if !strings.Contains(resp.Error, "upstream unavailable") {
		t.Errorf("Error = %q", resp.Error)
	}
	if resp.Answer != apologyAnswer {
		t.Errorf("Answer = %q, want apology", resp.Answer)
	}
}

func TestEngine_ProcessQuery_NoRetrievedDocsFloor(t *testing.T) {
	f := newEngineFixture(t, 0.999, "General information about the legal system.")
	f.seed(t, "Section 303 prescribes imprisonment for theft")

	// An unrelated question cannot clear a 0.999 threshold.
	resp := f.engine.ProcessQuery(context.Background(), "Tell me about maritime salvage rights", "sess")

	if !resp.Success {
		t.Fatalf("Success = false: %q", resp.Error)
	}
	if resp.RetrievedDocs != 0 {
		t.Errorf("RetrievedDocs = %d, want 0", resp.RetrievedDocs)
	}
	if resp.Confidence != 0.1 {
		t.Errorf("Confidence = %f, want exactly 0.1", resp.Confidence)
	}
	if len(resp.Excerpts) != 0 {
		t.Errorf("Excerpts = %+v, want none", resp.Excerpts)
	}
}

func TestEngine_ProcessQuery_IncludesSessionHistory(t *testing.T) {
	f := newEngineFixture(t, 0.7, "Answer text.")
	f.seed(t, "Section 303 prescribes imprisonment for theft")
	sessionID := f.sessions.Create()
	f.sessions.RecordTurn(sessionID, "What is Section 303?", &models.QueryResponse{
		Confidence: 0.8, QueryType: "citation",
	})

	f.engine.ProcessQuery(context.Background(), "And what about attempts?", sessionID)

	reqs := f.client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("LLM calls = %d, want 1", len(reqs))
	}
	if !strings.Contains(reqs[0][0].Content, "What is Section 303?") {
		t.Error("prior question missing from system prompt")
	}
}

func TestEngine_ProcessQuery_SourcesDeduplicated(t *testing.T) {
	f := newEngineFixture(t, 0.0, "Answer.")
	f.seed(t,
		"Section 303 prescribes imprisonment for theft",
		"Whoever commits theft shall be punished under this provision")

	resp := f.engine.ProcessQuery(context.Background(), "theft", "sess")

	// Both chunks come from bns.txt, so one source entry remains.
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %+v, want 1 deduplicated entry", resp.Sources)
	}
}

func TestEngine_Status(t *testing.T) {
	f := newEngineFixture(t, 0.7, "x")

	st := f.engine.Status()
	if st.RAGEngine != "not_initialized" {
		t.Errorf("RAGEngine = %q, want not_initialized", st.RAGEngine)
	}
	if st.VectorStore.Status != vector.StatusNotInitialized {
		t.Errorf("VectorStore.Status = %q", st.VectorStore.Status)
	}

	f.seed(t, "Section 303 prescribes imprisonment for theft")

	st = f.engine.Status()
	if st.RAGEngine != "initialized" {
		t.Errorf("RAGEngine = %q, want initialized", st.RAGEngine)
	}
	if st.VectorStore.DocumentCount != 1 {
		t.Errorf("DocumentCount = %d, want 1", st.VectorStore.DocumentCount)
	}
	if st.LLMModel != "gpt-3.5-turbo" {
		t.Errorf("LLMModel = %q", st.LLMModel)
	}
	if _, err := time.Parse(time.RFC3339, st.Timestamp); err != nil {
		t.Errorf("Timestamp %q not RFC3339", st.Timestamp)
	}
}
