package llm

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
)

const (
	maxRetries = 5
	baseDelay  = time.Second
	maxDelay   = 5 * time.Second
)

// OpenAIConfig holds settings for the OpenAI chat client.
type OpenAIConfig struct {
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// OpenAIClient generates completions through the OpenAI chat endpoint.
type OpenAIClient struct {
	model       string
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

// NewOpenAIClient creates a client for the configured model.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: 120 * time.Second},
		logger:      logger,
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete posts one chat-completion call, retrying transient failures with
// exponential backoff and honoring Retry-After on rate limits.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("chat request: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var parsed chatResponse
			err := json.NewDecoder(resp.Body).Decode(&parsed)
			resp.Body.Close()
			if err != nil {
				return "", fmt.Errorf("decode chat response: %w", err)
			}
			if len(parsed.Choices) == 0 {
				return "", fmt.Errorf("chat response has no choices")
			}
			return parsed.Choices[0].Message.Content, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("chat API rate limited (429)")
			c.logger.Warn("chat rate limited, retrying", zap.Int("attempt", attempt+1))

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("chat API server error (%d)", resp.StatusCode)
			c.logger.Warn("chat server error, retrying",
				zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1))

		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return "", fmt.Errorf("chat API error (%d): %s", resp.StatusCode, string(msg))
		}
	}
	return "", fmt.Errorf("chat request failed after %d attempts: %w", maxRetries, lastErr)
}
