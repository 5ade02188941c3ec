package llmservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/fakes"
)

type emptyModel struct{ fakes.LLM }

func (e *emptyModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

type slowModel struct{ fakes.LLM }

func (s *slowModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGenerateText(t *testing.T) {
	llm := &fakes.LLM{Default: "1. What is photosynthesis?"}
	msgs := []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, "quiz me")}

	out, err := GenerateText(context.Background(), llm, msgs, Options{Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "1. What is photosynthesis?", out)
	require.Len(t, llm.Calls(), 1)
}

func TestGenerateTextEmptyResponse(t *testing.T) {
	_, err := GenerateText(context.Background(), &emptyModel{}, nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTextTimeout(t *testing.T) {
	_, err := GenerateText(context.Background(), &slowModel{}, nil, Options{Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateTextDoesNotRetry(t *testing.T) {
	calls := 0
	llm := &fakes.LLM{Reply: func([]llms.MessageContent) (string, error) {
		calls++
		return "", assert.AnError
	}}

	_, err := GenerateText(context.Background(), llm, nil, Options{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestNewChatModel(t *testing.T) {
	for _, provider := range []string{config.ProviderGroq, config.ProviderOpenAI, config.ProviderOllama} {
		t.Run(provider, func(t *testing.T) {
			llm, err := NewChatModel(&config.LLMConfig{
				Provider: provider,
				BaseURL:  "http://127.0.0.1:1",
				Model:    "llama3-8b-8192",
				Key:      "test-key",
			})
			require.NoError(t, err)
			assert.NotNil(t, llm)
		})
	}

	_, err := NewChatModel(&config.LLMConfig{Provider: "unknown", Model: "x"})
	assert.Error(t, err)
}
