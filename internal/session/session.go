package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docchat/internal/chat"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/index"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/retriever"
)

// session binds one document's index and conversation together. It exists
// only between a successful StartSession and the matching reset.
type session struct {
	id        string
	index     index.Index
	manager   *chat.Manager
	createdAt time.Time
}

// Controller owns session lifecycles. Everything is keyed by session id;
// resetting a session discards its index, its history, and the document
// identity in one step.
type Controller struct {
	mu        sync.Mutex
	sessions  map[string]*session
	cfg       *config.Config
	embedder  embedding.Embedder
	generator llmservice.Generator
	newIndex  func() index.Index
}

// NewController validates configuration up front: bad chunking parameters
// or an unknown index backend are startup failures, not per-request ones.
func NewController(cfg *config.Config, embedder embedding.Embedder, generator llmservice.Generator) (*Controller, error) {
	if _, err := chunker.New(cfg.Chunker.TargetSize, cfg.Chunker.OverlapRunes()); err != nil {
		return nil, err
	}

	var newIndex func() index.Index
	switch cfg.Retrieval.Backend {
	case "memory":
		newIndex = func() index.Index { return index.NewMemory() }
	case "chromem":
		newIndex = func() index.Index { return index.NewChromem() }
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", models.ErrConfig, cfg.Retrieval.Backend)
	}

	return &Controller{
		sessions:  make(map[string]*session),
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		newIndex:  newIndex,
	}, nil
}

// StartSession chunks and embeds the extracted document text, builds the
// index, and publishes the session only once everything succeeded: a
// failure anywhere leaves no partial session reachable. Empty text is a
// valid session with an empty index, answered as "no context available".
func (c *Controller) StartSession(ctx context.Context, documentText string) (string, error) {
	ck, err := chunker.New(c.cfg.Chunker.TargetSize, c.cfg.Chunker.OverlapRunes())
	if err != nil {
		return "", err
	}
	chunks := ck.Chunk(documentText)

	entries := make([]models.IndexEntry, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := c.embedder.EmbedQuery(ctx, chunk.Text)
		if err != nil {
			return "", fmt.Errorf("embedding chunk %d: %w", chunk.ID, err)
		}
		entries = append(entries, models.IndexEntry{Chunk: chunk, Embedding: vec})
	}

	idx := c.newIndex()
	if err := idx.Build(entries); err != nil {
		return "", fmt.Errorf("building index: %w", err)
	}

	ret := retriever.New(c.embedder, idx, c.cfg.Retrieval.MinScore)
	mgr := chat.NewManager(ret, c.generator, c.cfg.Retrieval.TopK, c.cfg.Chat.HistoryWindow)
	mgr.Ready()

	s := &session{
		id:        uuid.NewString(),
		index:     idx,
		manager:   mgr,
		createdAt: time.Now(),
	}
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	log.Info().Str("session", s.id).Int("chunks", idx.Size()).Msg("session started")
	return s.id, nil
}

// ResetSession discards the session outright. Later calls against the same
// id fail with ErrSessionNotFound.
func (c *Controller) ResetSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return models.ErrSessionNotFound
	}
	delete(c.sessions, id)
	log.Info().Str("session", id).Msg("session reset")
	return nil
}

// SubmitQuery routes a question to the session's conversation manager. A
// dimension mismatch means the embedding adapter changed shape mid-session;
// the session is force-reset so no further queries run against a
// now-inconsistent index.
func (c *Controller) SubmitQuery(ctx context.Context, id, query string) (chat.Answer, error) {
	s, err := c.lookup(id)
	if err != nil {
		return chat.Answer{}, err
	}

	answer, err := s.manager.SubmitQuery(ctx, query)
	if err != nil {
		var mismatch *models.DimensionMismatchError
		if errors.As(err, &mismatch) {
			log.Error().Str("session", id).Err(err).Msg("embedding dimension changed, resetting session")
			c.mu.Lock()
			delete(c.sessions, id)
			c.mu.Unlock()
		}
		return chat.Answer{}, err
	}
	return answer, nil
}

// History exposes a read-only copy of the session transcript.
func (c *Controller) History(id string) ([]models.Turn, error) {
	s, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.manager.History(), nil
}

// IndexSize reports how many chunks the session has indexed.
func (c *Controller) IndexSize(id string) (int, error) {
	s, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	return s.index.Size(), nil
}

func (c *Controller) lookup(id string) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}
