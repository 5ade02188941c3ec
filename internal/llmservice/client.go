package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-quiz/internal/config"
)

var ErrEmptyResponse = errors.New("chat model returned no choices")

// NewChatModel builds the chat-completion client for the configured provider.
// Groq is reached through its OpenAI-compatible endpoint.
func NewChatModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().Interface("config", map[string]string{
		"provider": llmConfig.Provider,
		"base_url": llmConfig.BaseURL,
		"model":    llmConfig.Model,
	}).Msg("Creating chat model")

	switch llmConfig.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return llm, nil
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", llmConfig.Provider)
	}
}

// Options tune a single generation call.
type Options struct {
	Temperature float64
	Timeout     time.Duration
}

// GenerateText calls the model once and returns the first choice. Generation
// is not idempotent, so failures are returned to the caller, never retried.
func GenerateText(ctx context.Context, llm llms.Model, messages []llms.MessageContent, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := llm.GenerateContent(ctx, messages, llms.WithTemperature(opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if res == nil || len(res.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("messages", len(messages)).Msg("Generated content")
	return res.Choices[0].Content, nil
}
