package index

import (
	"fmt"
	"sync"

	"docchat/internal/models"
)

// Memory is the default backend: brute-force cosine similarity over
// normalized vectors. O(n·d) per query, which is fine at single-document
// scale.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	entries []models.IndexEntry
}

func NewMemory() *Memory { return &Memory{} }

// Build validates and normalizes all entries before touching the live
// index, then swaps it in one step.
func (m *Memory) Build(entries []models.IndexEntry) error {
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}
	fresh := make([]models.IndexEntry, len(entries))
	for i, e := range entries {
		fresh[i] = models.IndexEntry{Chunk: e.Chunk, Embedding: normalize(e.Embedding)}
	}

	m.mu.Lock()
	m.dim = dim
	m.entries = fresh
	m.mu.Unlock()
	return nil
}

func (m *Memory) Query(vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, nil
	}
	if len(vector) != m.dim {
		return nil, &models.DimensionMismatchError{Want: m.dim, Got: len(vector)}
	}

	q := normalize(vector)
	results := make([]models.ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		results[i] = models.ScoredChunk{Chunk: e.Chunk, Score: dot(e.Embedding, q)}
	}
	return rank(results, k), nil
}

func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
