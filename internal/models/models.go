package models

import "time"

// Chunk is a bounded span of the source document, the unit of retrieval.
// Offsets are rune offsets into the normalized document text. Chunks are
// immutable once created; IDs are monotonic within a session and never
// reused.
type Chunk struct {
	ID          int
	Text        string
	StartOffset int
	EndOffset   int
	Section     string
}

// IndexEntry pairs a chunk with its embedding vector.
type IndexEntry struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a retrieval result: a chunk and its cosine similarity to
// the query, in [-1, 1].
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleError marks a synthetic turn recording a failed query, so the
	// transcript always reflects what happened.
	RoleError Role = "error"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}
