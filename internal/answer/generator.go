package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/llm"
	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/internal/session"
	"github.com/nyayalabs/nyaya/internal/vector"
)

// Generator is the retrieval-QA chain: it runs its own retrieval pass for
// grounding context, builds the constrained prompt, and calls the
// chat-completion service. Its pass takes the top k without a score
// threshold, so its source list can differ from the engine's explicit,
// thresholded retrieval; both lists are reported separately and never
// reconciled.
type Generator struct {
	store  *vector.Store
	client llm.Client
	topK   int
	logger *zap.Logger
}

// NewGenerator creates a chain over the given index and completion client.
func NewGenerator(store *vector.Store, client llm.Client, topK int, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:  store,
		client: client,
		topK:   topK,
		logger: logger,
	}
}

// Answer generates a grounded answer and returns the chunks the chain
// supplied as context.
func (g *Generator) Answer(ctx context.Context, question string, history []session.Turn) (string, []models.RetrievalResult, error) {
	docs := g.store.Query(ctx, question, g.topK, 0)
	g.logger.Debug("chain retrieval", zap.Int("context_chunks", len(docs)))

	answer, err := g.client.Complete(ctx, buildMessages(question, docs, history))
	if err != nil {
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}
	return answer, docs, nil
}
