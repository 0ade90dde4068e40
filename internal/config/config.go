package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at one model endpoint. API keys are looked up from the
// environment via KeyEnv so they never live in the YAML file.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "ollama" or "openai"
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	KeyEnv      string `yaml:"key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Key resolves the API key from the configured environment variable.
func (c *LLMConfig) Key() string {
	if c.KeyEnv == "" {
		return ""
	}
	return os.Getenv(c.KeyEnv)
}

type ChunkerConfig struct {
	TargetSize int `yaml:"target_size"` // runes per chunk
	// Overlap is a pointer so an explicit "overlap: 0" survives loading; an
	// absent key falls back to target_size/8.
	Overlap *int `yaml:"overlap"`
}

// OverlapRunes resolves the overlap shared between adjacent chunks,
// defaulting to target_size/8 when the key is absent.
func (c *ChunkerConfig) OverlapRunes() int {
	if c.Overlap == nil {
		return c.TargetSize / 8
	}
	return *c.Overlap
}

type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"` // 0 means no floor
	Backend  string  `yaml:"backend"`   // "memory" or "chromem"
}

type ChatConfig struct {
	HistoryWindow int `yaml:"history_window"` // turns included in the prompt
}

type Config struct {
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	ChatLLM   LLMConfig       `yaml:"chat_llm"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
}

// LoadConfig reads the YAML config at path. A missing file yields the
// defaults rather than an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" && cfg.EmbedLLM.Provider == "ollama" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.EmbedLLM.TimeoutSecs <= 0 {
		cfg.EmbedLLM.TimeoutSecs = 30
	}

	if cfg.ChatLLM.Provider == "" {
		cfg.ChatLLM.Provider = "openai"
	}
	if cfg.ChatLLM.BaseURL == "" && cfg.ChatLLM.Provider == "openai" {
		cfg.ChatLLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.ChatLLM.Model == "" {
		cfg.ChatLLM.Model = "meta-llama/llama-3.1-8b-instruct"
	}
	if cfg.ChatLLM.KeyEnv == "" {
		cfg.ChatLLM.KeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.ChatLLM.TimeoutSecs <= 0 {
		cfg.ChatLLM.TimeoutSecs = 60
	}

	if cfg.Chunker.TargetSize <= 0 {
		cfg.Chunker.TargetSize = 800
	}

	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = "memory"
	}

	if cfg.Chat.HistoryWindow <= 0 {
		cfg.Chat.HistoryWindow = 10
	}
}
