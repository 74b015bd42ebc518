package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/models"
)

// SQLiteStorage implements Storage backed by SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStorage opens (or creates) the database at dbPath and ensures the schema.
func NewSQLiteStorage(dbPath string, logger *zap.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked during ingestion.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("sqlite storage ready", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		char_length INTEGER NOT NULL,
		section TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON document_chunks(document_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_section ON document_chunks(section);
	`

	_, err := s.db.Exec(schema)
	return err
}

// UpsertDocument inserts the document or replaces an existing row with the same ID.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.Document) error {
	query := `
	INSERT INTO documents (id, name, path, content, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		path = excluded.path,
		content = excluded.content,
		updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.Name, doc.Path, doc.Content, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT id, name, path, content, created_at, updated_at FROM documents WHERE id = ?`

	doc := &models.Document{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Name, &doc.Path, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	query := `
	SELECT id, name, path, content, created_at, updated_at
	FROM documents ORDER BY name LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Path, &doc.Content,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// BatchCreateChunks inserts chunks in a single transaction.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO document_chunks
		(id, document_id, source, content, chunk_index, total_chunks, char_length, section, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocumentID, c.Source, c.Content,
			c.ChunkIndex, c.TotalChunks, c.CharLength, c.Section, c.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetChunksByIDs fetches the chunks with the given IDs. Missing IDs are
// skipped, and the result order is unspecified.
func (s *SQLiteStorage) GetChunksByIDs(ctx context.Context, ids []string) ([]models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`
	SELECT id, document_id, source, content, chunk_index, total_chunks, char_length, section, created_at
	FROM document_chunks WHERE id IN (%s)
	`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *SQLiteStorage) GetChunksByDocumentID(ctx context.Context, docID string) ([]models.Chunk, error) {
	query := `
	SELECT id, document_id, source, content, chunk_index, total_chunks, char_length, section, created_at
	FROM document_chunks WHERE document_id = ? ORDER BY chunk_index
	`
	rows, err := s.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (s *SQLiteStorage) DeleteChunksByDocumentID(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// SectionCounts returns the number of chunks per section label.
func (s *SQLiteStorage) SectionCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT section, COUNT(*) FROM document_chunks GROUP BY section`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var section string
		var count int64
		if err := rows.Scan(&section, &count); err != nil {
			return nil, fmt.Errorf("failed to scan section count: %w", err)
		}
		counts[section] = count
	}
	return counts, rows.Err()
}

// Clear removes every chunk and document.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks`); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanChunks(rows *sql.Rows) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Source, &c.Content,
			&c.ChunkIndex, &c.TotalChunks, &c.CharLength, &c.Section, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
