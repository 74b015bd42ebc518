package llm

import (
	"context"
	"sync"
)

// MockClient returns a fixed response and records every request. Used in
// tests and offline development.
type MockClient struct {
	mu       sync.Mutex
	response string
	err      error
	requests [][]Message
}

// NewMockClient creates a mock that always answers with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{response: response}
}

// Fail makes subsequent Complete calls return err.
func (c *MockClient) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *MockClient) Complete(_ context.Context, messages []Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := make([]Message, len(messages))
	copy(copied, messages)
	c.requests = append(c.requests, copied)

	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

// Requests returns the recorded conversations in call order.
func (c *MockClient) Requests() [][]Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]Message, len(c.requests))
	copy(out, c.requests)
	return out
}

func (c *MockClient) Model() string {
	return "mock"
}

func (c *MockClient) Close() error {
	return nil
}
