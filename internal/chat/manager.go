package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docchat/internal/llmservice"
	"docchat/internal/models"
)

// State is the conversation manager's lifecycle position.
type State int

const (
	// StateIdle: no document indexed yet; queries are rejected.
	StateIdle State = iota
	// StateReady: index built, no query in flight.
	StateReady
	// StateAwaitingAnswer: exactly one query is in flight.
	StateAwaitingAnswer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	}
	return "unknown"
}

// ContextRetriever is the slice of the retriever the manager needs.
type ContextRetriever interface {
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Answer is a successful reply plus the chunks that grounded it.
type Answer struct {
	Text    string
	Sources []models.ScoredChunk
}

// Manager owns one session's conversation: turn history, the
// Idle/Ready/AwaitingAnswer state machine, and prompt assembly. The mutex
// guards state and history; it is not held across the embedding or
// generation calls, so the AwaitingAnswer state is what enforces one
// in-flight query per session.
type Manager struct {
	mu        sync.Mutex
	state     State
	retriever ContextRetriever
	generator llmservice.Generator
	history   []models.Turn
	window    int
	topK      int
}

// NewManager starts in Idle; call Ready once the session's index is built.
func NewManager(retriever ContextRetriever, generator llmservice.Generator, topK, historyWindow int) *Manager {
	return &Manager{
		retriever: retriever,
		generator: generator,
		window:    historyWindow,
		topK:      topK,
	}
}

// Ready marks the session able to accept queries.
func (m *Manager) Ready() {
	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()
}

// State reports the current lifecycle position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns a copy of the transcript, error turns included.
func (m *Manager) History() []models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Turn, len(m.history))
	copy(out, m.history)
	return out
}

// SubmitQuery runs one retrieval-augmented exchange. On success the user and
// assistant turns are appended to history; on failure the user turn plus an
// error-marker turn are appended instead, and the state machine returns to
// Ready either way.
func (m *Manager) SubmitQuery(ctx context.Context, text string) (Answer, error) {
	if strings.TrimSpace(text) == "" {
		return Answer{}, fmt.Errorf("%w: query is empty", models.ErrInvalidArgument)
	}

	m.mu.Lock()
	switch m.state {
	case StateIdle:
		m.mu.Unlock()
		return Answer{}, models.ErrSessionNotReady
	case StateAwaitingAnswer:
		m.mu.Unlock()
		return Answer{}, models.ErrRequestInProgress
	}
	m.state = StateAwaitingAnswer
	recent := m.recentTurnsLocked()
	m.mu.Unlock()

	answer, err := m.answer(ctx, text, recent)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateReady
	now := time.Now()
	m.history = append(m.history, models.Turn{Role: models.RoleUser, Text: text, Timestamp: now})
	if err != nil {
		log.Warn().Err(err).Msg("query failed")
		m.history = append(m.history, models.Turn{
			Role:      models.RoleError,
			Text:      err.Error(),
			Timestamp: now,
		})
		return Answer{}, err
	}
	m.history = append(m.history, models.Turn{Role: models.RoleAssistant, Text: answer.Text, Timestamp: now})
	return answer, nil
}

func (m *Manager) answer(ctx context.Context, text string, recent []models.Turn) (Answer, error) {
	sources, err := m.retriever.Search(ctx, text, m.topK)
	if err != nil {
		return Answer{}, err
	}

	prompt := buildPrompt(sources, recent, text)
	reply, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: reply, Sources: sources}, nil
}

// recentTurnsLocked snapshots the last window user/assistant turns for
// prompt assembly. Error markers stay in the transcript but out of the
// prompt. Caller holds the lock.
func (m *Manager) recentTurnsLocked() []models.Turn {
	var turns []models.Turn
	for _, t := range m.history {
		if t.Role == models.RoleError {
			continue
		}
		turns = append(turns, t)
	}
	if len(turns) > m.window {
		turns = turns[len(turns)-m.window:]
	}
	return turns
}

// buildPrompt concatenates the instruction preamble, the ranked retrieved
// passages (section-labelled when known), the bounded conversation window,
// and the question. Retrieval order is preserved.
func buildPrompt(sources []models.ScoredChunk, recent []models.Turn, question string) string {
	var b strings.Builder
	b.WriteString(models.ChatPreamble)
	b.WriteString("\n\nDocument passages:\n")
	if len(sources) == 0 {
		b.WriteString(models.NoContextNotice)
		b.WriteString("\n")
	} else {
		for i, s := range sources {
			if i > 0 {
				b.WriteString(models.ContextSeparator)
			}
			if s.Chunk.Section != "" {
				fmt.Fprintf(&b, "[%s]\n", s.Chunk.Section)
			}
			b.WriteString(s.Chunk.Text)
		}
		b.WriteString("\n")
	}
	if len(recent) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
