// Package cli provides output helpers for the nyaya command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	previewChars = 120
	excerptChars = 200
)

// WriteAnswer writes a consultation response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswer(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeAnswerText(w, resp)
		return nil
	}
}

func writeAnswerText(w io.Writer, resp *models.QueryResponse) {
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	if !resp.Success {
		if resp.Error != "" {
			fmt.Fprintf(w, "(error: %s)\n", resp.Error)
		}
		return
	}
	fmt.Fprintf(w, "\nConfidence: %.2f | Type: %s | Retrieved: %d\n",
		resp.Confidence, resp.QueryType, resp.RetrievedDocs)
	if len(resp.Citations) > 0 {
		fmt.Fprintf(w, "Citations: %s\n", strings.Join(resp.Citations, ", "))
	}
	if len(resp.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, s := range resp.Sources {
			fmt.Fprintf(w, "  - %s: %s\n", s.Source, utils.Truncate(s.ContentPreview, previewChars))
		}
	}
	if len(resp.Excerpts) > 0 {
		fmt.Fprintln(w, "\nRelevant excerpts:")
		for i, e := range resp.Excerpts {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "[%d] %s | %s | score %.4f\n", i+1, e.Source, e.Section, e.Score)
			fmt.Fprintf(w, "%s\n", utils.Truncate(e.Content, excerptChars))
		}
	}
}

// WriteLookupResults writes passage lookup hits to w in the given format.
func WriteLookupResults(w io.Writer, response *models.LookupResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeLookupResultsText(w, response)
		return nil
	}
}

func writeLookupResultsText(w io.Writer, response *models.LookupResponse) {
	fmt.Fprintf(w, "\nFound %d passages in %dms\n\n", response.Total, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Score: %.4f (%s) | %s | %s\n",
			i+1, result.Score, result.MatchType, result.Source, result.Section)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Content, excerptChars))
		fmt.Fprintln(w)
	}
}

// StatusInfo is the status snapshot rendered by WriteStatus. Its JSON shape
// matches the "status" object of GET /api/status, so the HTTP path decodes
// straight into it.
type StatusInfo struct {
	RAGEngine       string             `json:"rag_engine"`
	VectorStore     models.VectorStats `json:"vector_store"`
	LLMModel        string             `json:"llm_model"`
	DocumentsLoaded bool               `json:"documents_loaded"`
	ReadyForQueries bool               `json:"ready_for_queries"`
	ActiveSessions  int                `json:"active_sessions"`
	Timestamp       string             `json:"timestamp"`
}

// WriteStatus writes an engine status snapshot to w in the given format.
func WriteStatus(w io.Writer, st StatusInfo, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	default:
		writeStatusText(w, st)
		return nil
	}
}

func writeStatusText(w io.Writer, st StatusInfo) {
	ready := "no"
	if st.ReadyForQueries {
		ready = "yes"
	}
	fmt.Fprintf(w, "\nRAG engine:      %s\n", st.RAGEngine)
	fmt.Fprintf(w, "Ready:           %s\n", ready)
	fmt.Fprintf(w, "Vector store:    %s", st.VectorStore.Status)
	if st.VectorStore.DocumentCount > 0 {
		fmt.Fprintf(w, " (%d passages in %s)", st.VectorStore.DocumentCount, st.VectorStore.CollectionName)
	}
	fmt.Fprintln(w)
	if st.VectorStore.EmbeddingModel != "" {
		fmt.Fprintf(w, "Embedding model: %s\n", st.VectorStore.EmbeddingModel)
	}
	fmt.Fprintf(w, "LLM model:       %s\n", st.LLMModel)
	fmt.Fprintf(w, "Active sessions: %d\n", st.ActiveSessions)
}
