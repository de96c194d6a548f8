package rag

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/BaSui01/llmbridge/types"
)

// ValidateRelevanceQuery checks the FindRelevant bounds: maxResults >= 1 and
// minScore in [0,1].
func ValidateRelevanceQuery(maxResults int, minScore float64) error {
	if maxResults < 1 {
		return types.NewContractError("maxResults must be >= 1, got %d", maxResults)
	}
	if math.IsNaN(minScore) || minScore < 0 || minScore > 1 {
		return types.NewContractError("minScore must be in [0,1], got %v", minScore)
	}
	return nil
}

// ScoreFromCosineDistance converts a cosine distance (lower is closer) into
// a relevance score clamped to [0,1]. Servers report tiny negative distances
// for identical vectors.
func ScoreFromCosineDistance(distance float64) float64 {
	return min(max(1-distance, 0), 1)
}

// ScoreFromCertainty passes a certainty through; it is already a score.
func ScoreFromCertainty(certainty float64) float64 {
	return certainty
}

// ScoreFromCosineSimilarity maps a similarity in [-1,1] onto [0,1].
func ScoreFromCosineSimilarity(similarity float64) float64 {
	return (similarity + 1) / 2
}

// RankMatches drops matches scoring below minScore, sorts the rest by
// descending score (stable for ties) and keeps at most maxResults.
func RankMatches(matches []types.EmbeddingMatch, maxResults int, minScore float64) []types.EmbeddingMatch {
	out := make([]types.EmbeddingMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= minScore {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b types.EmbeddingMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// GenerateIDs returns n random UUIDs.
func GenerateIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

// checkParallel verifies that segments, when given, pair one to one with
// embeddings.
func checkParallel(embeddings []types.Embedding, segments []types.TextSegment) error {
	if len(embeddings) == 0 {
		return types.NewContractError("embeddings must not be empty")
	}
	if segments != nil && len(segments) != len(embeddings) {
		return types.NewContractError("got %d embeddings but %d text segments", len(embeddings), len(segments))
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
