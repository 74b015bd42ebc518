package models

// RetrievalResult is a read-only projection of an indexed chunk returned by a
// similarity query. Score is cosine similarity on unit vectors: higher is better,
// and threshold filtering keeps results with Score >= threshold.
type RetrievalResult struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Section string  `json:"legal_section"`
	Score   float64 `json:"relevance_score"`
}

// SourceAttribution names a source document used by the generation service,
// with a short preview of the passage it contributed.
type SourceAttribution struct {
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

// Excerpt is one of the top retrieved passages shown alongside the answer.
type Excerpt struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"relevance_score"`
	Section string  `json:"legal_section"`
}

// SessionStats summarizes one session: confidence trend, duration from
// creation to last activity, and the query-type distribution.
type SessionStats struct {
	SessionID         string         `json:"session_id"`
	CreatedAt         string         `json:"created_at"`
	QuestionCount     int            `json:"question_count"`
	AverageConfidence float64        `json:"average_confidence"`
	DurationMinutes   int            `json:"duration_minutes"`
	LastActivity      string         `json:"last_activity"`
	QueryTypes        map[string]int `json:"query_types"`
}

// QueryResponse is the structured unit returned per question. Built fresh per
// query and never mutated after assembly.
type QueryResponse struct {
	Success       bool                `json:"success"`
	Answer        string              `json:"answer"`
	Confidence    float64             `json:"confidence"`
	QueryType     string              `json:"query_type"`
	RetrievedDocs int                 `json:"retrieved_docs"`
	Sources       []SourceAttribution `json:"sources"`
	Citations     []string            `json:"citations"`
	SessionID     string              `json:"session_id"`
	Timestamp     string              `json:"timestamp"`
	Model         string              `json:"model"`
	Excerpts      []Excerpt           `json:"relevant_excerpts"`
	Error         string              `json:"error,omitempty"`
	SessionStats  *SessionStats       `json:"session_stats,omitempty"`
}

// VectorStats describes the vector store for status reporting.
type VectorStats struct {
	Status           string `json:"status"`
	DocumentCount    int    `json:"document_count,omitempty"`
	CollectionName   string `json:"collection_name,omitempty"`
	PersistDirectory string `json:"persist_directory,omitempty"`
	EmbeddingModel   string `json:"embedding_model,omitempty"`
}

// LookupResult is a single passage lookup hit.
type LookupResult struct {
	ChunkID   string  `json:"chunk_id"`
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	Section   string  `json:"legal_section"`
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
}

// LookupResponse is the response for a passage lookup request.
type LookupResponse struct {
	Query     string          `json:"query"`
	Results   []*LookupResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
}
