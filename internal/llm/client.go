// Package llm provides the chat-completion client used for answer generation.
package llm

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates a completion for an ordered list of messages.
type Client interface {
	// Complete returns the assistant's reply to the conversation.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Model returns the model identifier reported in responses.
	Model() string

	Close() error
}
