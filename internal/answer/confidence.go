package answer

import (
	"math"

	"github.com/nyayalabs/nyaya/internal/models"
	"github.com/nyayalabs/nyaya/pkg/utils"
)

const (
	// answerLengthNorm is the answer length in runes at which the length
	// factor saturates.
	answerLengthNorm = 500

	// confidenceFloor is the fixed confidence when retrieval produced no
	// documents.
	confidenceFloor = 0.1

	// citationBoost rewards answers that cite at least one section.
	citationBoost = 1.2
)

// scoreConfidence combines the average relevance of the retrieved documents
// with answer-quality factors, capped at 1.0 and rounded to 2 decimals.
func scoreConfidence(docs []models.RetrievalResult, answer string, citations []string) float64 {
	if len(docs) == 0 {
		return confidenceFloor
	}

	var sum float64
	for _, d := range docs {
		sum += d.Score
	}
	avg := sum / float64(len(docs))

	lengthFactor := math.Min(float64(len([]rune(answer)))/answerLengthNorm, 1.0)
	citationFactor := 1.0
	if len(citations) > 0 {
		citationFactor = citationBoost
	}

	return utils.Round2(math.Min(avg*lengthFactor*citationFactor, 1.0))
}
