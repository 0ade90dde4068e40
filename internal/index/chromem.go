package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"docchat/internal/models"
)

const chromemCollection = "session"

// Chromem backs the index with an in-memory chromem-go collection. chromem
// computes the same exact cosine similarity as the Memory backend; results
// are re-ranked here with the shared comparator so the ascending-id
// tie-break holds too.
type Chromem struct {
	mu     sync.RWMutex
	coll   *chromem.Collection
	chunks map[string]models.Chunk
	// zeroes holds chunks whose embeddings had zero magnitude. chromem
	// cannot normalize those, so they live outside the collection and score
	// 0 against every query.
	zeroes []models.Chunk
	dim    int
	size   int
}

func NewChromem() *Chromem { return &Chromem{} }

func (c *Chromem) Build(entries []models.IndexEntry) error {
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(chromemCollection, nil, rejectEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	chunks := make(map[string]models.Chunk, len(entries))
	var zeroes []models.Chunk
	var docs []chromem.Document
	for _, e := range entries {
		id := strconv.Itoa(e.Chunk.ID)
		chunks[id] = e.Chunk
		norm := normalize(e.Embedding)
		if isZero(norm) {
			zeroes = append(zeroes, e.Chunk)
			continue
		}
		meta := map[string]string{
			"start": strconv.Itoa(e.Chunk.StartOffset),
			"end":   strconv.Itoa(e.Chunk.EndOffset),
		}
		if e.Chunk.Section != "" {
			meta["section"] = e.Chunk.Section
		}
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   e.Chunk.Text,
			Metadata:  meta,
			Embedding: norm,
		})
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	c.mu.Lock()
	c.coll = coll
	c.chunks = chunks
	c.zeroes = zeroes
	c.dim = dim
	c.size = len(entries)
	c.mu.Unlock()
	return nil
}

func (c *Chromem) Query(vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.size == 0 {
		return nil, nil
	}
	if len(vector) != c.dim {
		return nil, &models.DimensionMismatchError{Want: c.dim, Got: len(vector)}
	}

	results := make([]models.ScoredChunk, 0, c.size)
	q := normalize(vector)
	if !isZero(q) && c.coll.Count() > 0 {
		// Fetch everything and re-rank locally: the collection is bounded
		// by one document's chunk count, and chromem's own tie order is
		// not stable.
		hits, err := c.coll.QueryEmbedding(context.Background(), q, c.coll.Count(), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
		for _, h := range hits {
			chunk, ok := c.chunks[h.ID]
			if !ok {
				continue
			}
			results = append(results, models.ScoredChunk{Chunk: chunk, Score: float64(h.Similarity)})
		}
	} else if isZero(q) {
		// Zero-magnitude query scores 0 everywhere, including against the
		// stored documents.
		for _, chunk := range c.chunks {
			if !containsChunk(c.zeroes, chunk.ID) {
				results = append(results, models.ScoredChunk{Chunk: chunk, Score: 0})
			}
		}
	}
	for _, chunk := range c.zeroes {
		results = append(results, models.ScoredChunk{Chunk: chunk, Score: 0})
	}
	return rank(results, k), nil
}

func (c *Chromem) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// rejectEmbeddingFunc guards against chromem ever trying to embed on its
// own: every document arrives with a precomputed vector.
func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("index stores precomputed embeddings only")
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func containsChunk(chunks []models.Chunk, id int) bool {
	for _, c := range chunks {
		if c.ID == id {
			return true
		}
	}
	return false
}
