package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	assert.Equal(t, "memory", cfg.Retrieval.Backend)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 800, cfg.Chunker.TargetSize)
	assert.Equal(t, 100, cfg.Chunker.OverlapRunes())
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, 60, cfg.ChatLLM.TimeoutSecs)
}

func TestLoadConfigOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embed_llm:
  provider: openai
  base_url: https://example.test/v1
  model: text-embedding-3-small
  key_env: TEST_EMBED_KEY
chunker:
  target_size: 400
  overlap: 50
retrieval:
  top_k: 3
  min_score: 0.25
  backend: chromem
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.EmbedLLM.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedLLM.Model)
	assert.Equal(t, 400, cfg.Chunker.TargetSize)
	assert.Equal(t, 50, cfg.Chunker.OverlapRunes())
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.25, cfg.Retrieval.MinScore)
	assert.Equal(t, "chromem", cfg.Retrieval.Backend)
	// Untouched sections still get defaults.
	assert.Equal(t, "openai", cfg.ChatLLM.Provider)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)

	t.Setenv("TEST_EMBED_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.EmbedLLM.Key())
}

func TestLoadConfigExplicitZeroOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chunker:
  target_size: 400
  overlap: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// An explicit zero is kept, not replaced with the target_size/8 default.
	assert.Equal(t, 0, cfg.Chunker.OverlapRunes())
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
