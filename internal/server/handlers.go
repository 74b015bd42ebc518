package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/storage"
	"github.com/nyayalabs/nyaya/internal/vector"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

// maxQuestionChars caps inbound question length after sanitization.
const maxQuestionChars = 1000

const serviceName = "nyaya-legal-consultation"

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = utils.Sanitize(req.Question, maxQuestionChars)
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Unknown or expired session IDs get a fresh session transparently;
	// the client learns the replacement from the response's session_id.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.sessions.Create()
	} else if _, ok := s.sessions.Get(sessionID); !ok {
		sessionID = s.sessions.Create()
	}
	s.logger.Debug("ask request",
		zap.String("session_id", sessionID),
		zap.Int("question_chars", len(req.Question)))

	resp := s.engine.ProcessQuery(r.Context(), req.Question, sessionID)
	s.sessions.RecordTurn(sessionID, req.Question, resp)
	if stats, ok := s.sessions.Stats(sessionID); ok {
		resp.SessionStats = &stats
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Status()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status": map[string]interface{}{
			"rag_engine":        st.RAGEngine,
			"vector_store":      st.VectorStore,
			"llm_model":         st.LLMModel,
			"timestamp":         st.Timestamp,
			"documents_loaded":  st.VectorStore.DocumentCount > 0,
			"ready_for_queries": st.RAGEngine == vector.StatusInitialized,
			"active_sessions":   s.sessions.Count(),
		},
	})
}

// exampleGroup is one category of curated example questions.
type exampleGroup struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

var exampleQueries = []exampleGroup{
	{Category: "Definitions", Queries: []string{
		"What is the definition of theft under BNS?",
		"Define criminal conspiracy in legal terms",
		"What constitutes assault under Indian law?",
	}},
	{Category: "Procedures", Queries: []string{
		"What is the procedure for filing an FIR?",
		"How is bail granted in criminal cases?",
		"What are the steps in a criminal trial?",
	}},
	{Category: "Penalties", Queries: []string{
		"What is the punishment for murder under BNS?",
		"What are the penalties for fraud?",
		"What is the sentence for drug trafficking?",
	}},
	{Category: "Legal Provisions", Queries: []string{
		"What does Section 103 of BNS say?",
		"Explain the provisions related to self-defense",
		"What are the rights of an accused person?",
	}},
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"examples": exampleQueries,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, ok := s.sessions.Stats(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": stats,
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	// The body is optional; a missing or malformed body just means there is
	// no previous session to discard.
	var req struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.SessionID != "" {
		if s.sessions.Delete(req.SessionID) {
			s.logger.Debug("session reset", zap.String("session_id", req.SessionID))
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "session reset successfully",
		"session_id": s.sessions.Create(),
	})
}

func (s *Server) handleDocumentStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("document stats: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("document stats: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sections, err := s.storage.SectionCounts(ctx)
	if err != nil {
		s.logger.Error("document stats: section counts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := map[string]interface{}{
		"documents":    docCount,
		"chunks":       chunkCount,
		"sections":     sections,
		"vector_store": s.engine.Status().VectorStore,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.VectorIndexPath,
		s.config.Storage.KeywordIndexPath,
	)
	if err == nil {
		stats["disk_usage_bytes"] = diskBytes
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"document_stats": stats,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	response, err := s.lookup.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("passage lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes the error shape used across the API: success=false
// plus a message, so clients distinguish failures by the error field alone.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
