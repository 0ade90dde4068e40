package index

import (
	"fmt"
	"math"
	"sort"

	"docchat/internal/models"
)

// Index is an in-memory vector index for one document session. Build
// replaces the whole index atomically; partial state is never visible to
// Query. Query ranks by descending cosine similarity with ties broken by
// ascending chunk id, so results are reproducible.
type Index interface {
	Build(entries []models.IndexEntry) error
	Query(vector []float32, k int) ([]models.ScoredChunk, error)
	Size() int
}

// validateEntries checks dimensional consistency and id uniqueness and
// returns the shared vector dimension (0 for an empty build).
func validateEntries(entries []models.IndexEntry) (int, error) {
	dim := 0
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.Chunk.ID] {
			return 0, fmt.Errorf("%w: duplicate chunk id %d", models.ErrInvalidArgument, e.Chunk.ID)
		}
		seen[e.Chunk.ID] = true
		if dim == 0 {
			dim = len(e.Embedding)
			continue
		}
		if len(e.Embedding) != dim {
			return 0, &models.DimensionMismatchError{Want: dim, Got: len(e.Embedding)}
		}
	}
	return dim, nil
}

// normalize returns an L2-normalized copy of v. A zero-magnitude vector
// comes back as all zeros, which scores 0 against everything instead of
// producing NaN.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// rank orders results by descending score, ascending chunk id on ties, and
// cuts the list to k.
func rank(results []models.ScoredChunk, k int) []models.ScoredChunk {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}
