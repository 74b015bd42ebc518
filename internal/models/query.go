package models

import "fmt"

// AskRequest is the inbound payload for a question.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate ensures the request carries a non-empty question.
func (r *AskRequest) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// LookupQuery represents a passage lookup request (no LLM involved).
type LookupQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the lookup query has valid fields and sets defaults.
func (q *LookupQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}
