// Package models defines core data structures for documents, chunks, queries, and responses.
package models

import "time"

// Document represents a source legal document loaded from the corpus.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Chunk is a contiguous span of a document with legal-aware metadata.
// Chunks are immutable once created; the vector index owns them after indexing.
type Chunk struct {
	ID          string    `json:"id" db:"id"`
	DocumentID  string    `json:"document_id" db:"document_id"`
	Source      string    `json:"source" db:"source"`
	Content     string    `json:"content" db:"content"`
	ChunkIndex  int       `json:"chunk_index" db:"chunk_index"`
	TotalChunks int       `json:"total_chunks" db:"total_chunks"`
	CharLength  int       `json:"char_length" db:"char_length"`
	// Section is the best-effort legal section label ("Section 302", "Article 14", ...)
	// or "General" when no reference was found.
	Section   string    `json:"legal_section" db:"section"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GeneralSection is the sentinel label for chunks without a recognizable legal reference.
const GeneralSection = "General"
