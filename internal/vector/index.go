// Package vector provides dense vector indexing and the persistent store
// that backs similarity retrieval.
package vector

import "context"

// VectorResult is a single nearest-neighbor hit.
type VectorResult struct {
	ID    string
	Score float32
}

// VectorIndex abstracts a dense vector index over string-keyed entries.
type VectorIndex interface {
	// Add indexes vectors under the given IDs. An existing ID is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search returns up to k entries ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Remove deletes the given IDs. Unknown IDs are ignored.
	Remove(ctx context.Context, ids []string) error

	// Save persists the index to the given file path.
	Save(path string) error

	// Load replaces the index contents from the given file path.
	Load(path string) error

	// Size returns the number of indexed vectors.
	Size() int

	Close() error
}
