package answer

import (
	"fmt"
	"strings"

	"github.com/nyayalabs/nyaya/internal/llm"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/session"
)

const systemPromptHeader = `You are a professional legal AI assistant specializing in BNS (Bharatiya Nyaya Sanhita) legal documents.

Provide accurate, well-structured legal information based ONLY on the provided context.`

const systemPromptInstructions = `Instructions:
1. Provide clear, professional legal information
2. Cite specific sections and sources when available
3. Use proper legal terminology
4. If information is not in the context, clearly state this limitation
5. Structure your response with clear headings when appropriate
6. Include relevant BNS section numbers when applicable

IMPORTANT: This is for informational purposes only and does not constitute legal advice. Users should consult qualified legal professionals for specific legal matters.`

// maxHistoryTurns caps how much prior conversation enters the prompt.
const maxHistoryTurns = 5

// buildMessages assembles the constrained conversation: a system prompt
// carrying the retrieved context, recent turn history, and the answering
// rules, followed by the user's question.
func buildMessages(question string, docs []models.RetrievalResult, history []session.Turn) []llm.Message {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nContext from legal documents:\n")

	if len(docs) == 0 {
		b.WriteString("No relevant documents were retrieved.\n")
	} else {
		for i, d := range docs {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			fmt.Fprintf(&b, "[%s | %s]\n%s\n", d.Source, d.Section, d.Content)
		}
	}

	if len(history) > 0 {
		b.WriteString("\nPrevious questions in this consultation:\n")
		start := len(history) - maxHistoryTurns
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			fmt.Fprintf(&b, "%d. %s\n", turn.QuestionNumber, turn.Query)
		}
	}

	b.WriteString("\n")
	b.WriteString(systemPromptInstructions)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.String()},
		{Role: llm.RoleUser, Content: question},
	}
}
