package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func embeddingBackend(t *testing.T, dims int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: %q", got)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		out := struct {
			Data []item `json:"data"`
		}{}
		for i := range req.Input {
			vec := make([]float32, dims)
			vec[i%dims] = 1
			out.Data = append(out.Data, item{Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var calls int32
	srv := embeddingBackend(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{
		Model: "text-embedding-ada-002", Dimensions: 4,
		BaseURL: srv.URL, APIKey: "test-key", CacheSize: 10,
	}, nil)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "what is theft")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 4 {
		t.Fatalf("dims: got %d", len(vec))
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("embedding not normalized: norm=%f", norm)
	}
}

func TestOpenAIEmbedder_CacheHit(t *testing.T) {
	var calls int32
	srv := embeddingBackend(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{
		Model: "m", Dimensions: 4, BaseURL: srv.URL, APIKey: "test-key", CacheSize: 10,
	}, nil)
	defer e.Close()

	if _, err := e.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 API call with cache, got %d", got)
	}
}

func TestOpenAIEmbedder_Batch(t *testing.T) {
	var calls int32
	srv := embeddingBackend(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{
		Model: "m", Dimensions: 4, BaseURL: srv.URL, APIKey: "test-key", CacheSize: 10,
	}, nil)
	defer e.Close()

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 4 {
			t.Errorf("vector %d dims: %d", i, len(v))
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("batch should use one API call, got %d", got)
	}
}

func TestOpenAIEmbedder_RetriesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{Model: "m", Dimensions: 2, BaseURL: srv.URL, APIKey: "k"}, nil)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 {
		t.Errorf("dims: %d", len(vec))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected retry (2 calls), got %d", got)
	}
}

func TestOpenAIEmbedder_FailsFastOnBadRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{Model: "m", Dimensions: 2, BaseURL: srv.URL, APIKey: "k"}, nil)
	defer e.Close()

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 401")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("401 should not be retried, got %d calls", got)
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	var calls int32
	srv := embeddingBackend(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{Model: "m", Dimensions: 8, BaseURL: srv.URL, APIKey: "test-key"}, nil)
	defer e.Close()

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected dimensions mismatch error")
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "same input")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d", i)
		}
	}
	c, _ := e.Embed(context.Background(), "different input")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should embed differently")
	}
}
