// Package lookup runs hybrid (keyword + semantic) passage lookup over
// indexed chunks. It backs the read-only search endpoint and is never
// consulted by the answer pipeline.
package lookup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/config"
	"github.com/nyayalabs/nyaya/internal/keyword"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/storage"
	"github.com/nyayalabs/nyaya/internal/vector"
)

// Engine runs passage lookup with the configured side weights.
type Engine struct {
	db     storage.Storage
	store  *vector.Store
	kw     keyword.Index
	cfg    config.LookupConfig
	logger *zap.Logger
}

// NewEngine creates a lookup engine with the given dependencies.
func NewEngine(db storage.Storage, store *vector.Store, kw keyword.Index, cfg config.LookupConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		store:  store,
		kw:     kw,
		cfg:    cfg,
		logger: logger,
	}
}

// Search runs both lookup sides in parallel, fuses scores at the chunk
// level, and resolves chunk payloads from storage.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*models.LookupResponse, error) {
	startTime := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	var (
		keywordResults  []*keyword.Result
		semanticResults []models.RetrievalResult
		errChan         = make(chan error, 1)
		wg              sync.WaitGroup
	)

	if e.cfg.KeywordWeight > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := e.kw.Search(ctx, query, limit)
			if err != nil {
				errChan <- fmt.Errorf("keyword lookup failed: %w", err)
				return
			}
			keywordResults = results
		}()
	}

	if e.cfg.SemanticWeight > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The store absorbs its own failures into an empty result set,
			// so the semantic side never fails the whole lookup.
			semanticResults = e.store.Query(ctx, query, limit, 0)
		}()
	}

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	fused := Fuse(
		NormalizeKeywordScores(keywordResults),
		SemanticScores(semanticResults),
		e.cfg.KeywordWeight, e.cfg.SemanticWeight)
	total := len(fused)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	results, err := e.resolve(ctx, fused)
	if err != nil {
		return nil, err
	}

	return &models.LookupResponse{
		Query:     query,
		Results:   results,
		Total:     total,
		QueryTime: time.Since(startTime).Milliseconds(),
	}, nil
}

// resolve turns fused hits into lookup results in order, dropping hits whose
// chunk payload is gone.
func (e *Engine) resolve(ctx context.Context, fused []*FusedChunk) ([]*models.LookupResult, error) {
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkID
	}
	chunks, err := e.db.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chunks: %w", err)
	}
	byID := make(map[string]models.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	results := make([]*models.LookupResult, 0, len(fused))
	for _, f := range fused {
		chunk, ok := byID[f.ChunkID]
		if !ok {
			e.logger.Warn("lookup hit without stored chunk", zap.String("chunk_id", f.ChunkID))
			continue
		}
		results = append(results, &models.LookupResult{
			ChunkID:   f.ChunkID,
			Content:   chunk.Content,
			Source:    chunk.Source,
			Section:   chunk.Section,
			Score:     f.Score,
			MatchType: matchType(f),
		})
	}
	return results, nil
}

func matchType(f *FusedChunk) string {
	switch {
	case f.KeywordScore > 0 && f.SemanticScore > 0:
		return "hybrid"
	case f.KeywordScore > 0:
		return "keyword"
	default:
		return "semantic"
	}
}
