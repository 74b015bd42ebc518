// Package keyword provides the full-text passage index behind lookup.
package keyword

import (
	"context"

	"github.com/nyayalabs/nyaya/internal/models"
)

// Index defines full-text operations over chunk passages. Hits carry chunk
// IDs that callers resolve against storage.
type Index interface {
	IndexChunks(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	DeleteChunks(ctx context.Context, ids []string) error
	// Count returns the number of indexed passages.
	Count() (uint64, error)
	Close() error
}

// Result is a single passage hit.
type Result struct {
	ID    string
	Score float64
}
