// Package storage defines the persistence interface for corpus documents and chunks.
package storage

import (
	"context"

	"github.com/nyayalabs/nyaya/internal/models"
)

// Storage defines document and chunk persistence operations.
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Chunk operations
	BatchCreateChunks(ctx context.Context, chunks []models.Chunk) error
	GetChunksByIDs(ctx context.Context, ids []string) ([]models.Chunk, error)
	GetChunksByDocumentID(ctx context.Context, docID string) ([]models.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)
	SectionCounts(ctx context.Context) (map[string]int64, error)

	// Clear removes all documents and chunks. Used by index reset.
	Clear(ctx context.Context) error

	Close() error
}
