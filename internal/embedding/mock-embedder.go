package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/nyayalabs/nyaya/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline development.
// It returns a fixed-dimension unit vector derived from the text hash so that
// the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := hashText(text)
	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(h*uint64(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

func hashText(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
