package segment

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nyayalabs/nyaya/internal/models"
)

// Segmenter turns raw document text into labeled chunks ready for indexing.
type Segmenter struct {
	splitter *Splitter
}

// NewSegmenter creates a segmenter producing chunks of at most chunkSize runes
// with chunkOverlap runes of shared context between neighbors.
func NewSegmenter(chunkSize, chunkOverlap int) *Segmenter {
	return &Segmenter{splitter: NewSplitter(chunkSize, chunkOverlap)}
}

// Segment splits text and wraps each piece in a Chunk carrying its position,
// length, and best-effort legal section label. A chunk without a recognizable
// reference is labeled "General"; one unlabelable chunk never aborts the rest.
// Returns nil for whitespace-only input.
func (s *Segmenter) Segment(docID, source, text string) []models.Chunk {
	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return nil
	}
	now := time.Now().UTC()
	chunks := make([]models.Chunk, len(pieces))
	for i, piece := range pieces {
		section := ExtractSection(piece)
		if section == "" {
			section = models.GeneralSection
		}
		chunks[i] = models.Chunk{
			ID:          fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			DocumentID:  docID,
			Source:      source,
			Content:     piece,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			CharLength:  utf8.RuneCountInString(piece),
			Section:     section,
			CreatedAt:   now,
		}
	}
	return chunks
}
