// Package embedding provides text embedding via the OpenAI embeddings API,
// with an LRU cache and a deterministic mock for tests and offline use.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations return unit
// L2-normalized vectors so that inner product equals cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
