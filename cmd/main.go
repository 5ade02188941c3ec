package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/api"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/embedding"
	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/parser"
	"pdf-quiz/internal/quiz"
	"pdf-quiz/internal/render"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Generate a quiz from this PDF and exit")
	prompt := flag.String("prompt", "Generate 5 multiple choice questions", "Quiz instructions used with -file")
	sessionID := flag.String("session", "", "Conversation session used with -file")
	dryRun := flag.Bool("dry-run", false, "Only extract and chunk the -file document, no model calls")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Msg("Error loading .env file")
	}

	cfg, err := config.LoadConfig(resolveConfigPath(*configPath), os.LookupEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	configureLogging(cfg.Log)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	if *dryRun {
		if *filePath == "" {
			log.Fatal().Msg("Please provide a document file using the -file flag with -dry-run")
		}
		previewChunks(*filePath, cfg)
		return
	}

	gen := newGenerator(cfg)

	if *filePath != "" {
		res := gen.GenerateFile(context.Background(), *filePath, *prompt, *sessionID)
		fmt.Printf("%s\n\n", res.Quiz)
		if res.Failure != nil {
			os.Exit(1)
		}
		for format, path := range res.Exports {
			log.Info().Str("format", format).Str("path", path).Msg("Wrote quiz")
		}
		return
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.NewServer(cfg, gen).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// resolveConfigPath skips the default config file when it does not exist.
// An explicitly named file must exist.
func resolveConfigPath(path string) string {
	if path != configFilePath {
		return path
	}
	if _, err := os.Stat(path); err != nil {
		log.Info().Str("path", path).Msg("No config file, using defaults")
		return ""
	}
	return path
}

func configureLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}
}

func newGenerator(cfg *config.Config) *quiz.Generator {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	llm, err := llmservice.NewChatModel(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	renderers, err := render.NewRenderers(&cfg.Output)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing renderers")
	}
	return quiz.NewGenerator(cfg, embedder, llm, renderers)
}

func previewChunks(filePath string, cfg *config.Config) {
	text, err := parser.LoadPDFFile(filePath, cfg.RAG.MaxPages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}

	chunks, err := parser.SplitText(text, cfg.RAG)
	if err != nil {
		log.Fatal().Err(err).Msg("Error splitting document")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Parsed content")
	helper.PrettyPrint(os.Stdout, chunks)
}
