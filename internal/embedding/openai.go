package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/pkg/utils"
)

const (
	maxRetries   = 5
	baseDelay    = time.Second
	maxDelay     = 5 * time.Second
	maxBatchSize = 100
)

// OpenAIConfig holds settings for the OpenAI embedder.
type OpenAIConfig struct {
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	CacheSize  int
}

// OpenAIEmbedder embeds text through the OpenAI embeddings endpoint.
// Identical text is served from the cache without a second API call.
type OpenAIEmbedder struct {
	model      string
	dimensions int
	baseURL    string
	apiKey     string
	client     *http.Client
	cache      *EmbeddingCache
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder for the configured model.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *zap.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	var cache *EmbeddingCache
	if cfg.CacheSize > 0 {
		cache = NewEmbeddingCache(cfg.CacheSize)
	}
	return &OpenAIEmbedder{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: 60 * time.Second},
		cache:      cache,
		logger:     logger,
	}
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts, serving repeats from the cache and requesting the
// rest from the API in batches.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if e.cache != nil {
			if v, ok := e.cache.Get(t); ok {
				out[i] = v
				continue
			}
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	e.logger.Debug("embedding batch", zap.Int("texts", len(missing)), zap.String("model", e.model))

	for start := 0; start < len(missing); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		vecs, err := e.request(ctx, missing[start:end])
		if err != nil {
			return nil, err
		}
		for j, v := range vecs {
			if len(v) != e.dimensions {
				return nil, fmt.Errorf("embedding dimensions mismatch: got %d, want %d", len(v), e.dimensions)
			}
			utils.NormalizeL2(v)
			idx := missingIdx[start+j]
			out[idx] = v
			if e.cache != nil {
				e.cache.Set(texts[idx], v)
			}
		}
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases idle connections.
func (e *OpenAIEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// request posts one embeddings call, retrying transient failures with
// exponential backoff and honoring Retry-After on rate limits.
func (e *OpenAIEmbedder) request(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("embedding request: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var parsed embeddingResponse
			err := json.NewDecoder(resp.Body).Decode(&parsed)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode embedding response: %w", err)
			}
			if len(parsed.Data) != len(inputs) {
				return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(parsed.Data), len(inputs))
			}
			vecs := make([][]float32, len(inputs))
			for _, d := range parsed.Data {
				if d.Index < 0 || d.Index >= len(vecs) {
					return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
				}
				vecs[d.Index] = d.Embedding
			}
			return vecs, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("embedding API rate limited (429)")
			e.logger.Warn("embedding rate limited, retrying", zap.Int("attempt", attempt+1))

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("embedding API server error (%d)", resp.StatusCode)
			e.logger.Warn("embedding server error, retrying",
				zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1))

		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("embedding API error (%d): %s", resp.StatusCode, string(msg))
		}
	}
	return nil, fmt.Errorf("embedding request failed after %d attempts: %w", maxRetries, lastErr)
}
