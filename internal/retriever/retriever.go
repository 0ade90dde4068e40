package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docchat/internal/embedding"
	"docchat/internal/index"
	"docchat/internal/models"
)

// Retriever embeds a query and returns the top-k chunks above the
// configured score floor. An empty result means "no relevant context", which
// callers must treat differently from a retrieval failure.
type Retriever struct {
	embedder embedding.Embedder
	index    index.Index
	minScore float64
}

// New wires an embedder and an index together. minScore 0 disables the
// floor entirely, so even negative-similarity matches pass through.
func New(embedder embedding.Embedder, idx index.Index, minScore float64) *Retriever {
	return &Retriever{embedder: embedder, index: idx, minScore: minScore}
}

// Search returns up to k chunks ranked by descending similarity.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", models.ErrInvalidArgument)
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.index.Query(vec, k)
	if err != nil {
		return nil, err
	}

	if r.minScore > 0 {
		kept := results[:0]
		for _, res := range results {
			if res.Score >= r.minScore {
				kept = append(kept, res)
			}
		}
		results = kept
	}

	log.Debug().Int("k", k).Int("hits", len(results)).Msg("retrieved context")
	return results, nil
}
