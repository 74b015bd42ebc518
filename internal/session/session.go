// Package session tracks per-conversation state: question history,
// confidence trend, and last-activity timestamps for expiry sweeps.
package session

import "time"

// Turn is one question record in a session's history.
type Turn struct {
	QuestionNumber int     `json:"question_number"`
	Query          string  `json:"query"`
	Timestamp      string  `json:"timestamp"`
	Confidence     float64 `json:"confidence"`
	QueryType      string  `json:"query_type"`
}

// Session is one conversation. QuestionCount always equals len(History),
// and LastActivity never precedes CreatedAt.
type Session struct {
	ID               string
	CreatedAt        time.Time
	QuestionCount    int
	History          []Turn
	ConfidenceScores []float64
	LastActivity     time.Time
}
