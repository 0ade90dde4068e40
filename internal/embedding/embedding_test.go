package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/config"
	"docchat/internal/models"
)

type fakeQueryEmbedder struct {
	vec      []float32
	err      error
	deadline time.Time
	hadLimit bool
}

func (f *fakeQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.deadline, f.hadLimit = ctx.Deadline()
	return f.vec, f.err
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(&config.LLMConfig{Provider: "bert"})
	assert.ErrorIs(t, err, models.ErrConfig)
}

func TestRemoteAppliesTimeout(t *testing.T) {
	fake := &fakeQueryEmbedder{vec: []float32{1, 0}}
	r := &remote{impl: fake, timeout: 30 * time.Second}

	vec, err := r.EmbedQuery(context.Background(), "glucose levels")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.True(t, fake.hadLimit, "call should carry a deadline")
	assert.WithinDuration(t, time.Now().Add(30*time.Second), fake.deadline, time.Second)
}

func TestRemoteKeepsCallerDeadlineWhenUnconfigured(t *testing.T) {
	fake := &fakeQueryEmbedder{vec: []float32{1}}
	r := &remote{impl: fake}

	_, err := r.EmbedQuery(context.Background(), "text")
	require.NoError(t, err)
	assert.False(t, fake.hadLimit, "no timeout configured, none should be added")
}

func TestRemoteWrapsFailures(t *testing.T) {
	fake := &fakeQueryEmbedder{err: errors.New("connection refused")}
	r := &remote{impl: fake, timeout: time.Second}

	_, err := r.EmbedQuery(context.Background(), "text")
	assert.ErrorIs(t, err, models.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
