package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/session"
	"docchat/internal/tui"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to the document to chat about")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	query := flag.String("query", "", "Answer a single question and exit instead of starting the chat UI")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	text, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Error reading document")
	}

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}
	generator, err := llmservice.New(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating chat client")
	}

	controller, err := session.NewController(cfg, embedder, generator)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating session controller")
	}

	ctx := context.Background()
	start := time.Now()
	sessionID, err := controller.StartSession(ctx, string(text))
	if err != nil {
		log.Fatal().Err(err).Msg("Error starting session")
	}
	size, _ := controller.IndexSize(sessionID)
	log.Info().Str("file", *filePath).Int("chunks", size).Dur("took", time.Since(start)).Msg("Document indexed")

	if *query != "" {
		answerOnce(ctx, controller, sessionID, *query)
		return
	}

	model := tui.New(controller, sessionID, filepath.Base(*filePath), string(text))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running chat UI")
	}
}

func answerOnce(ctx context.Context, controller *session.Controller, sessionID, query string) {
	answer, err := controller.SubmitQuery(ctx, sessionID, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}
	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println()
		for _, src := range answer.Sources {
			fmt.Println(sourceLine(src))
		}
	}
}

// sourceLine formats one retrieved chunk for the one-shot output, labelled
// by its section when known and by chunk id otherwise.
func sourceLine(src models.ScoredChunk) string {
	label := src.Chunk.Section
	if label == "" {
		label = fmt.Sprintf("chunk %d", src.Chunk.ID)
	}
	return fmt.Sprintf("  [%s] score %.3f", label, src.Score)
}
