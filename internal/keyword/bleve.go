// Package keyword provides the Bleve implementation of Index.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/nyayalabs/nyaya/internal/models"
)

// sectionBoost ranks passages whose section label matches the query above
// plain content matches, so "Section 302" surfaces the labeled passages
// first.
const sectionBoost = 2.0

// passage is the indexed shape of a chunk.
type passage struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Section string `json:"section"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is opened and reused so indexed passages survive
// restarts. If you change the index mapping in code, remove the index
// directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	passageMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so statutory
	// terms match verbatim; stemming would fold "punishable" into "punish"
	// and break exact-term lookup.
	textFieldMapping.Analyzer = standard.Name
	passageMapping.AddFieldMappingsAt("content", textFieldMapping)
	passageMapping.AddFieldMappingsAt("section", textFieldMapping)
	passageMapping.AddFieldMappingsAt("source", textFieldMapping)
	im.AddDocumentMapping("passage", passageMapping)
	im.DefaultType = "passage"
	im.DefaultMapping = passageMapping // untyped docs also index content/section/source

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexChunks adds or replaces the given chunks in a single batch.
func (b *BleveIndex) IndexChunks(ctx context.Context, chunks []models.Chunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		p := passage{Content: c.Content, Source: c.Source, Section: c.Section}
		if err := batch.Index(c.ID, p); err != nil {
			return fmt.Errorf("failed to batch chunk %s: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}

// Search runs a match query over content and section and returns up to
// limit hits, best first. A passage matching in both fields outranks a
// content-only match.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	sectionQuery := bleve.NewMatchQuery(query)
	sectionQuery.SetField("section")
	sectionQuery.SetBoost(sectionBoost)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(contentQuery, sectionQuery))
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DeleteChunks removes the given chunk IDs in a single batch. Unknown IDs
// are ignored.
func (b *BleveIndex) DeleteChunks(ctx context.Context, ids []string) error {
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// Count returns the number of indexed passages.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
