package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/embedding"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/storage"
)

// Store status strings reported by Stats.
const (
	StatusInitialized    = "initialized"
	StatusNotInitialized = "not_initialized"
)

// StoreConfig holds the persistent identity of a vector store.
type StoreConfig struct {
	CollectionName string
	PersistDir     string
	EmbeddingModel string
}

// Store combines an embedder, a brute-force index, and on-disk persistence
// into the retrieval backend for the answer engine. Vectors live in a binary
// file under PersistDir; chunk payloads are resolved by ID from storage,
// which the ingestion pipeline keeps populated.
//
// Before Init succeeds the store is uninitialized: Query returns no results,
// Add and Remove fail, and Stats reports not_initialized.
type Store struct {
	cfg      StoreConfig
	embedder embedding.Embedder
	db       storage.Storage
	logger   *zap.Logger

	mu    sync.RWMutex
	index VectorIndex
}

// NewStore creates an uninitialized store. Call Init before querying.
func NewStore(cfg StoreConfig, embedder embedding.Embedder, db storage.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:      cfg,
		embedder: embedder,
		db:       db,
		logger:   logger,
	}
}

// Init either builds a fresh index from the given chunks (non-empty slice)
// or loads a previously persisted index from disk (empty slice). The two
// paths are mutually exclusive; loading fails if nothing was ever persisted.
func (s *Store) Init(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return s.load()
	}
	return s.build(ctx, chunks)
}

func (s *Store) build(ctx context.Context, chunks []models.Chunk) error {
	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		ids[i] = c.ID
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	index := NewMemoryIndex(s.embedder.Dimensions())
	if err := index.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	if err := index.Save(s.indexPath()); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	s.setIndex(index)
	s.logger.Info("vector store built",
		zap.String("collection", s.cfg.CollectionName),
		zap.Int("chunks", index.Size()))
	return nil
}

func (s *Store) load() error {
	index := NewMemoryIndex(s.embedder.Dimensions())
	if err := index.Load(s.indexPath()); err != nil {
		return fmt.Errorf("no persisted vector store at %s: %w", s.indexPath(), err)
	}

	s.setIndex(index)
	s.logger.Info("vector store loaded",
		zap.String("collection", s.cfg.CollectionName),
		zap.Int("chunks", index.Size()))
	return nil
}

// Add appends chunks to an initialized store and persists the index.
func (s *Store) Add(ctx context.Context, chunks []models.Chunk) error {
	index := s.getIndex()
	if index == nil {
		return fmt.Errorf("vector store not initialized")
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		ids[i] = c.ID
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := index.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	if err := index.Save(s.indexPath()); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	s.logger.Debug("chunks added to vector store", zap.Int("count", len(chunks)))
	return nil
}

// Remove deletes indexed entries by chunk ID and persists the index.
func (s *Store) Remove(ctx context.Context, chunkIDs []string) error {
	index := s.getIndex()
	if index == nil {
		return fmt.Errorf("vector store not initialized")
	}
	if len(chunkIDs) == 0 {
		return nil
	}
	if err := index.Remove(ctx, chunkIDs); err != nil {
		return fmt.Errorf("failed to remove chunks: %w", err)
	}
	if err := index.Save(s.indexPath()); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}
	return nil
}

// Query embeds the text, searches the index, and returns up to k results
// with score >= threshold, most relevant first. Failures (including an
// uninitialized store) are logged and yield no results rather than errors.
func (s *Store) Query(ctx context.Context, text string, k int, threshold float64) []models.RetrievalResult {
	index := s.getIndex()
	if index == nil {
		s.logger.Warn("query against uninitialized vector store")
		return nil
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Error("failed to embed query", zap.Error(err))
		return nil
	}

	hits, err := index.Search(ctx, queryVec, k)
	if err != nil {
		s.logger.Error("vector search failed", zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	chunks, err := s.db.GetChunksByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to resolve chunk payloads", zap.Error(err))
		return nil
	}
	byID := make(map[string]models.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	var results []models.RetrievalResult
	for _, h := range hits {
		score := ClampScore(float64(h.Score))
		if score < threshold {
			continue
		}
		c, ok := byID[h.ID]
		if !ok {
			s.logger.Warn("indexed chunk missing from storage", zap.String("chunk_id", h.ID))
			continue
		}
		results = append(results, models.RetrievalResult{
			ChunkID: c.ID,
			Content: c.Content,
			Source:  c.Source,
			Section: c.Section,
			Score:   score,
		})
	}
	return results
}

// Stats reports the store's identity and size, or just not_initialized.
func (s *Store) Stats() models.VectorStats {
	index := s.getIndex()
	if index == nil {
		return models.VectorStats{Status: StatusNotInitialized}
	}
	return models.VectorStats{
		Status:           StatusInitialized,
		DocumentCount:    index.Size(),
		CollectionName:   s.cfg.CollectionName,
		PersistDirectory: s.cfg.PersistDir,
		EmbeddingModel:   s.cfg.EmbeddingModel,
	}
}

// Initialized reports whether Init has succeeded.
func (s *Store) Initialized() bool {
	return s.getIndex() != nil
}

// Reset discards the persisted index and all stored documents and chunks,
// returning the store to the uninitialized state.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.indexPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove index file: %w", err)
	}
	if err := s.db.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}

	s.index = nil
	s.logger.Info("vector store reset", zap.String("collection", s.cfg.CollectionName))
	return nil
}

func (s *Store) Close() error {
	if index := s.getIndex(); index != nil {
		return index.Close()
	}
	return nil
}

func (s *Store) getIndex() VectorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Store) setIndex(index VectorIndex) {
	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
}

func (s *Store) indexPath() string {
	return filepath.Join(s.cfg.PersistDir, s.cfg.CollectionName+".vec")
}
