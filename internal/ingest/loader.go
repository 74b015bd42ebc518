// Package ingest loads corpus documents into storage, the vector store, and
// the keyword index.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/extract"
	"github.com/nyayalabs/nyaya/internal/keyword"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/segment"
	"github.com/nyayalabs/nyaya/internal/storage"
	"github.com/nyayalabs/nyaya/internal/vector"
)

// Loader ingests corpus files: extract, normalize, segment, persist, and
// index. A path maps to a stable document ID, so loading the same file
// again replaces its chunks instead of duplicating them.
type Loader struct {
	db        storage.Storage
	store     *vector.Store
	kw        keyword.Index
	segmenter *segment.Segmenter
	extractor *extract.Extractor
	exts      []string
	logger    *zap.Logger
}

// Result reports what a corpus load touched.
type Result struct {
	Files  int
	Chunks int
}

// NewLoader creates a loader with the given dependencies. exts limits which
// file extensions are ingested; empty means all files.
func NewLoader(
	db storage.Storage,
	store *vector.Store,
	kw keyword.Index,
	segmenter *segment.Segmenter,
	extractor *extract.Extractor,
	exts []string,
	logger *zap.Logger,
) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		db:        db,
		store:     store,
		kw:        kw,
		segmenter: segmenter,
		extractor: extractor,
		exts:      exts,
		logger:    logger,
	}
}

// LoadDirectory walks dir recursively and ingests every regular file with an
// allowed extension.
//
// When a persisted vector index can be loaded, the load is incremental:
// files whose stored content is unchanged are skipped, and changed files
// have their chunks replaced in place. Without a reusable index everything
// is prepared first and the vector store is built in one shot.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) (*Result, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	if !l.store.Initialized() {
		if err := l.store.Init(ctx, nil); err != nil {
			l.logger.Info("no reusable vector index, building from scratch",
				zap.String("dir", absDir))
		}
	}
	incremental := l.store.Initialized()

	var result Result
	var pending []models.Chunk
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), l.exts) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}

		doc, chunks, prepErr := l.prepare(path)
		if prepErr != nil {
			return prepErr
		}
		if doc == nil {
			return nil
		}
		if incremental {
			if l.unchanged(ctx, doc) {
				l.logger.Debug("skipping unchanged file", zap.String("path", path))
				return nil
			}
			if err := l.replace(ctx, doc, chunks); err != nil {
				return err
			}
		} else {
			if err := l.insert(ctx, doc, chunks); err != nil {
				return err
			}
			pending = append(pending, chunks...)
		}
		result.Files++
		result.Chunks += len(chunks)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !incremental {
		if len(pending) == 0 {
			return nil, fmt.Errorf("no indexable documents in %s", absDir)
		}
		if err := l.store.Init(ctx, pending); err != nil {
			return nil, fmt.Errorf("failed to build vector store: %w", err)
		}
		if err := l.kw.IndexChunks(ctx, pending); err != nil {
			return nil, fmt.Errorf("failed to build keyword index: %w", err)
		}
	}

	l.logger.Info("corpus loaded",
		zap.String("dir", absDir),
		zap.Int("files", result.Files),
		zap.Int("chunks", result.Chunks))
	return &result, nil
}

// ReloadFile re-ingests a single file, replacing its previous chunks. Files
// with disallowed extensions are ignored; a file that became empty is
// removed outright. Requires an initialized vector store.
func (l *Loader) ReloadFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if !extensionAllowed(filepath.Ext(absPath), l.exts) {
		return nil
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	doc, chunks, err := l.prepare(absPath)
	if err != nil {
		return err
	}
	if doc == nil {
		return l.RemoveFile(ctx, absPath)
	}
	if l.unchanged(ctx, doc) {
		return nil
	}
	if !l.store.Initialized() {
		return fmt.Errorf("vector store not initialized, run ingest first")
	}
	if err := l.replace(ctx, doc, chunks); err != nil {
		return err
	}
	l.logger.Info("file reloaded",
		zap.String("path", absPath),
		zap.Int("chunks", len(chunks)))
	return nil
}

// RemoveFile drops the document for path from storage and both indexes.
// Removing a path that was never ingested is a no-op.
func (l *Loader) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	docID := docIDFor(absPath)
	if _, err := l.db.GetDocument(ctx, docID); err != nil {
		return nil
	}

	chunks, err := l.db.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(chunks) > 0 {
		ids := chunkIDs(chunks)
		if l.store.Initialized() {
			if err := l.store.Remove(ctx, ids); err != nil {
				return fmt.Errorf("failed to remove vectors: %w", err)
			}
		}
		if err := l.kw.DeleteChunks(ctx, ids); err != nil {
			return fmt.Errorf("failed to remove passages: %w", err)
		}
	}
	if err := l.db.DeleteChunksByDocumentID(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := l.db.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	l.logger.Info("file removed", zap.String("path", absPath))
	return nil
}

// prepare extracts and segments one file. Returns (nil, nil, nil) for files
// that yield no indexable text.
func (l *Loader) prepare(path string) (*models.Document, []models.Chunk, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("absolute path: %w", err)
	}
	raw, err := l.extractor.Extract(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("extract %s: %w", absPath, err)
	}
	text := NormalizeText(raw)
	if text == "" {
		l.logger.Warn("skipping empty document", zap.String("path", absPath))
		return nil, nil, nil
	}

	docID := docIDFor(absPath)
	name := filepath.Base(absPath)
	chunks := l.segmenter.Segment(docID, name, text)
	if len(chunks) == 0 {
		l.logger.Warn("document produced no chunks", zap.String("path", absPath))
		return nil, nil, nil
	}
	now := time.Now().UTC()
	doc := &models.Document{
		ID:        docID,
		Name:      name,
		Path:      absPath,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return doc, chunks, nil
}

// unchanged reports whether the stored document already carries this content.
func (l *Loader) unchanged(ctx context.Context, doc *models.Document) bool {
	existing, err := l.db.GetDocument(ctx, doc.ID)
	return err == nil && existing.Content == doc.Content
}

// insert stores the document and its chunks without touching the indexes.
func (l *Loader) insert(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	if err := l.db.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if err := l.db.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// replace swaps a document's chunks in storage and both indexes.
func (l *Loader) replace(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	old, err := l.db.GetChunksByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(old) > 0 {
		ids := chunkIDs(old)
		if err := l.store.Remove(ctx, ids); err != nil {
			return fmt.Errorf("failed to remove vectors: %w", err)
		}
		if err := l.kw.DeleteChunks(ctx, ids); err != nil {
			return fmt.Errorf("failed to remove passages: %w", err)
		}
		if err := l.db.DeleteChunksByDocumentID(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
	}
	if err := l.insert(ctx, doc, chunks); err != nil {
		return err
	}
	if err := l.store.Add(ctx, chunks); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	if err := l.kw.IndexChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to index passages: %w", err)
	}
	return nil
}

func chunkIDs(chunks []models.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == norm {
			return true
		}
	}
	return false
}
