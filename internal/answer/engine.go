// Package answer implements the retrieval-augmented answer engine: query
// classification, similarity retrieval, constrained generation, confidence
// scoring, citation extraction, and response assembly.
package answer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/llm"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/segment"
	"github.com/nyayalabs/nyaya/internal/session"
	"github.com/nyayalabs/nyaya/internal/vector"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

const apologyAnswer = "I apologize, but I'm unable to process your query at this time. Please try again later."

const (
	sourcePreviewChars = 200
	excerptChars       = 300
	maxExcerpts        = 3
)

// Config holds the engine's retrieval and reporting settings.
type Config struct {
	TopK           int
	ScoreThreshold float64
	Model          string
}

// Engine is the single entry point for answering questions. Every failure
// after startup is absorbed into an error-shaped response; ProcessQuery
// never returns an error or panics.
type Engine struct {
	cfg       Config
	store     *vector.Store
	generator *Generator
	sessions  *session.Store
	logger    *zap.Logger
}

// NewEngine wires the answer pipeline over an index, a completion client,
// and the session store used for conversation history.
func NewEngine(cfg Config, store *vector.Store, client llm.Client, sessions *session.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		store:     store,
		generator: NewGenerator(store, client, cfg.TopK, logger),
		sessions:  sessions,
		logger:    logger,
	}
}

// ProcessQuery runs classify → retrieve → generate → score → cite →
// assemble for one question and returns a well-formed response in all
// cases, including an uninitialized index and upstream failures.
func (e *Engine) ProcessQuery(ctx context.Context, question, sessionID string) *models.QueryResponse {
	if !e.store.Initialized() {
		return e.errorResponse("system not initialized", sessionID)
	}

	queryType := ClassifyQuery(question)
	docs := e.store.Query(ctx, question, e.cfg.TopK, e.cfg.ScoreThreshold)

	var history []session.Turn
	if sess, ok := e.sessions.Get(sessionID); ok {
		history = sess.History
	}

	answer, sourceDocs, err := e.generator.Answer(ctx, question, history)
	if err != nil {
		e.logger.Error("query processing failed", zap.Error(err))
		return e.errorResponse(err.Error(), sessionID)
	}

	citations := segment.ExtractCitations(answer)
	if citations == nil {
		citations = []string{}
	}
	confidence := scoreConfidence(docs, answer, citations)

	e.logger.Info("query processed",
		zap.String("query_type", queryType),
		zap.Float64("confidence", confidence),
		zap.Int("retrieved_docs", len(docs)))

	return &models.QueryResponse{
		Success:       true,
		Answer:        answer,
		Confidence:    confidence,
		QueryType:     queryType,
		RetrievedDocs: len(docs),
		Sources:       formatSources(sourceDocs),
		Citations:     citations,
		SessionID:     sessionID,
		Timestamp:     timestamp(),
		Model:         e.cfg.Model,
		Excerpts:      formatExcerpts(docs),
	}
}

// Status reports engine readiness alongside the index stats.
type Status struct {
	RAGEngine   string             `json:"rag_engine"`
	VectorStore models.VectorStats `json:"vector_store"`
	LLMModel    string             `json:"llm_model"`
	Timestamp   string             `json:"timestamp"`
}

func (e *Engine) Status() Status {
	state := vector.StatusNotInitialized
	if e.store.Initialized() {
		state = vector.StatusInitialized
	}
	return Status{
		RAGEngine:   state,
		VectorStore: e.store.Stats(),
		LLMModel:    e.cfg.Model,
		Timestamp:   timestamp(),
	}
}

func (e *Engine) errorResponse(errMsg, sessionID string) *models.QueryResponse {
	return &models.QueryResponse{
		Success:    false,
		Answer:     apologyAnswer,
		Confidence: 0.0,
		QueryType:  "error",
		Sources:    []models.SourceAttribution{},
		Citations:  []string{},
		SessionID:  sessionID,
		Timestamp:  timestamp(),
		Model:      e.cfg.Model,
		Excerpts:   []models.Excerpt{},
		Error:      errMsg,
	}
}

// formatSources lists the chain's sources, one preview per source file.
func formatSources(docs []models.RetrievalResult) []models.SourceAttribution {
	sources := make([]models.SourceAttribution, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.Source] {
			continue
		}
		seen[d.Source] = true
		sources = append(sources, models.SourceAttribution{
			Source:         d.Source,
			ContentPreview: utils.Truncate(d.Content, sourcePreviewChars),
		})
	}
	return sources
}

// formatExcerpts keeps the top retrieved passages for display.
func formatExcerpts(docs []models.RetrievalResult) []models.Excerpt {
	n := len(docs)
	if n > maxExcerpts {
		n = maxExcerpts
	}
	excerpts := make([]models.Excerpt, 0, n)
	for _, d := range docs[:n] {
		excerpts = append(excerpts, models.Excerpt{
			Content: utils.Truncate(d.Content, excerptChars),
			Source:  d.Source,
			Score:   d.Score,
			Section: d.Section,
		})
	}
	return excerpts
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
