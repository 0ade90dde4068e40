package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports invalid chunking or retrieval parameters. Fatal at
	// startup, never produced per-request.
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidArgument reports a bad per-call argument (k <= 0, blank
	// query). The call is rejected with no state change.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSessionNotReady reports a query submitted before any document was
	// indexed.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrSessionNotFound reports an operation against a session id that was
	// reset or never existed.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRequestInProgress reports a second query submitted while one is
	// already in flight. At most one query per session runs at a time.
	ErrRequestInProgress = errors.New("request already in progress")

	// ErrEmbeddingUnavailable wraps embedding adapter failures (quota,
	// network).
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable wraps generation adapter failures.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationTimeout reports that the generation call exceeded its
	// configured deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// DimensionMismatchError reports vectors of inconsistent length reaching the
// index, which means the embedding adapter changed shape mid-session. The
// session controller force-resets the session when it sees one.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index dimension %d, vector dimension %d", e.Want, e.Got)
}
