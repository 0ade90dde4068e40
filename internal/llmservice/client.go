package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"docchat/internal/config"
	"docchat/internal/models"
)

// Generator produces an answer for a fully assembled prompt. Calls are
// bounded by the configured timeout; a deadline hit surfaces as
// models.ErrGenerationTimeout, anything else transient as
// models.ErrGenerationUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the generator named by the config.
func New(cfg *config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "ollama":
		return NewOllamaGenerator(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown chat provider %q", models.ErrConfig, cfg.Provider)
	}
}

// OpenAIGenerator talks to any openai-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(cfg *config.LLMConfig) (*OpenAIGenerator, error) {
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("initializing openai generator")

	clientCfg := goopenai.DefaultConfig(strings.TrimPrefix(cfg.Key(), "Bearer "))
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", mapGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", models.ErrGenerationUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// OllamaGenerator talks to a local ollama server through langchaingo.
type OllamaGenerator struct {
	llm     *ollama.LLM
	timeout time.Duration
}

func NewOllamaGenerator(cfg *config.LLMConfig) (*OllamaGenerator, error) {
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("initializing ollama generator")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	return &OllamaGenerator{
		llm:     llm,
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", mapGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", models.ErrGenerationUnavailable)
	}
	return resp.Choices[0].Content, nil
}

func mapGenerationError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrGenerationUnavailable, err)
}
