// Package lookup provides score fusion for hybrid passage lookup.
package lookup

import (
	"sort"

	"github.com/nyayalabs/nyaya/internal/keyword"
	"github.com/nyayalabs/nyaya/internal/models"
)

// FusedChunk holds a chunk ID and fused keyword/semantic scores.
type FusedChunk struct {
	ChunkID       string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores normalizes keyword scores to [0,1] by max.
func NormalizeKeywordScores(results []*keyword.Result) map[string]float64 {
	if len(results) == 0 {
		return make(map[string]float64)
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	normalized := make(map[string]float64)
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// SemanticScores maps chunk ID to relevance. Cosine scores are already in
// [0,1], so no normalization is applied.
func SemanticScores(results []models.RetrievalResult) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ChunkID] = r.Score
	}
	return scores
}

// Fuse merges keyword and semantic score maps with weights and returns
// chunks sorted by fused score descending.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedChunk {
	scoreMap := make(map[string]*FusedChunk)
	for id, score := range keywordScores {
		scoreMap[id] = &FusedChunk{
			ChunkID:      id,
			KeywordScore: score,
		}
	}
	for id, score := range semanticScores {
		if fused, exists := scoreMap[id]; exists {
			fused.SemanticScore = score
		} else {
			scoreMap[id] = &FusedChunk{
				ChunkID:       id,
				SemanticScore: score,
			}
		}
	}
	fused := make([]*FusedChunk, 0, len(scoreMap))
	for _, f := range scoreMap {
		f.Score = (keywordWeight * f.KeywordScore) + (semanticWeight * f.SemanticScore)
		fused = append(fused, f)
	}
	sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}
