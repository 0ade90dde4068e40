package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/models"
)

func TestNewRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name       string
		targetSize int
		overlap    int
	}{
		{"zero target", 0, 0},
		{"negative target", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals target", 100, 100},
		{"overlap exceeds target", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.targetSize, tc.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrConfig)
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n\t  \n"))
}

func TestChunkShortInputSingleChunk(t *testing.T) {
	c, err := New(200, 40)
	require.NoError(t, err)

	chunks := c.Chunk("Patient has elevated glucose.")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ID)
	assert.Equal(t, "Patient has elevated glucose.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 29, chunks[0].EndOffset)
}

func TestChunkAdjacentOverlapIsExact(t *testing.T) {
	const overlap = 15
	c, err := New(80, overlap)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	chunks := c.Chunk(b.String())
	require.Greater(t, len(chunks), 2)

	for i := 0; i < len(chunks)-1; i++ {
		prev := []rune(chunks[i].Text)
		next := []rune(chunks[i+1].Text)
		require.GreaterOrEqual(t, len(prev), overlap)
		require.GreaterOrEqual(t, len(next), overlap)
		tail := string(prev[len(prev)-overlap:])
		head := string(next[:overlap])
		assert.Equal(t, tail, head, "chunks %d and %d", i, i+1)
		assert.Equal(t, chunks[i].EndOffset-overlap, chunks[i+1].StartOffset)
	}
}

func TestChunkPrefersSentenceBoundaries(t *testing.T) {
	c, err := New(60, 10)
	require.NoError(t, err)

	text := strings.Repeat("One two three. ", 12)
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// Every non-final chunk should end right after a sentence terminator.
	for _, ch := range chunks[:len(chunks)-1] {
		trimmed := strings.TrimRight(ch.Text, " \n")
		last := trimmed[len(trimmed)-1]
		assert.Contains(t, ".!?", string(last), "chunk %d ends mid-sentence: %q", ch.ID, ch.Text)
	}
}

func TestChunkFixedWidthFallback(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	// One unbroken run far longer than the target: no boundary to cut on.
	text := strings.Repeat("x", 200)
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks[:len(chunks)-1] {
		assert.Len(t, ch.Text, 50)
	}
}

func TestChunkMaxSizeNeverExceeded(t *testing.T) {
	c, err := New(70, 20)
	require.NoError(t, err)

	text := strings.Repeat("Some words of varying length appear here. ", 30)
	for _, ch := range c.Chunk(text) {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 70)
	}
}

func TestChunkIDsMonotonicAcrossCalls(t *testing.T) {
	c, err := New(40, 5)
	require.NoError(t, err)

	first := c.Chunk(strings.Repeat("Alpha beta gamma delta. ", 10))
	second := c.Chunk(strings.Repeat("Epsilon zeta eta theta. ", 10))
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	seen := map[int]bool{}
	prev := -1
	for _, ch := range append(first, second...) {
		assert.False(t, seen[ch.ID], "id %d reused", ch.ID)
		assert.Greater(t, ch.ID, prev)
		seen[ch.ID] = true
		prev = ch.ID
	}
	assert.Equal(t, 0, first[0].ID)
}

func TestChunkSectionLabels(t *testing.T) {
	c, err := New(500, 50)
	require.NoError(t, err)

	text := "# Blood Panel\n\nHemoglobin within range.\n\n## Lipids\n\nCholesterol normal."
	chunks := c.Chunk(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Blood Panel", chunks[0].Section)

	c2, err := New(30, 3)
	require.NoError(t, err)
	chunks = c2.Chunk(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "Blood Panel", chunks[0].Section)
	assert.Equal(t, "Lipids", chunks[len(chunks)-1].Section)
}
