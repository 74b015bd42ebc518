package vector

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddAndSearch(t *testing.T) {
	idx := NewMemoryIndex(3)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.707, 0.707, 0},
	}
	if err := idx.Add(ctx, ids, vectors); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size() = %d, want 3", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("best match = %s, want a", results[0].ID)
	}
	if results[1].ID != "c" {
		t.Errorf("second match = %s, want c", results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ordered by score: %f < %f", results[0].Score, results[1].Score)
	}
}

func TestMemoryIndex_AddReplacesExistingID(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{0, 1}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Fatalf("Size() after replace = %d, want 1", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Score < 0.99 {
		t.Errorf("replaced vector not in effect, score = %f", results[0].Score)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex(3)
	ctx := context.Background()

	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("Add() with wrong dimension should fail")
	}
	if err := idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("Add() with mismatched lengths should fail")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("Search() with wrong dimension should fail")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}
	if err := idx.Add(ctx, ids, vectors); err != nil {
		t.Fatal(err)
	}

	if err := idx.Remove(ctx, []string{"b", "unknown"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if idx.Size() != 2 {
		t.Errorf("Size() after remove = %d, want 2", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == "b" {
			t.Error("removed ID still returned by Search()")
		}
	}

	// Survivors are still searchable after the swap-delete.
	results, err = idx.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != "a" {
		t.Errorf("best match after remove = %s, want a", results[0].ID)
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx", "test.vec")
	ctx := context.Background()

	idx := NewMemoryIndex(3)
	ids := []string{"chunk_1", "chunk_2"}
	vectors := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	if err := idx.Add(ctx, ids, vectors); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := NewMemoryIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded Size() = %d, want 2", loaded.Size())
	}

	want, err := idx.Search(ctx, []float32{0.4, 0.5, 0.6}, 2)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Search(ctx, []float32{0.4, 0.5, 0.6}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Score != want[i].Score {
			t.Errorf("result %d: got %s/%f, want %s/%f",
				i, got[i].ID, got[i].Score, want[i].ID, want[i].Score)
		}
	}
}

func TestMemoryIndex_LoadDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.vec")
	ctx := context.Background()

	idx := NewMemoryIndex(3)
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other := NewMemoryIndex(5)
	if err := other.Load(path); err == nil {
		t.Error("Load() with mismatched dimension should fail")
	}
}

func TestMemoryIndex_LoadMissingFile(t *testing.T) {
	idx := NewMemoryIndex(3)
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.vec")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.73, 0.73},
		{1, 1},
		{1.0001, 1},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
