package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/memory"
	"pdf-quiz/internal/models"
)

// Chain is a conversational retrieval chain: retrieve chunks for the
// instruction, ask the chat model once, remember the turn.
type Chain struct {
	llm       llms.Model
	retriever schema.Retriever
	memory    *memory.SummaryBuffer
	opts      llmservice.Options
}

func NewChain(llm llms.Model, retriever schema.Retriever, mem *memory.SummaryBuffer, opts llmservice.Options) *Chain {
	return &Chain{llm: llm, retriever: retriever, memory: mem, opts: opts}
}

// Run returns the model's raw response to instruction. The response is not
// validated.
func (c *Chain) Run(ctx context.Context, instruction string) (string, error) {
	docs, err := c.retriever.GetRelevantDocuments(ctx, instruction)
	if err != nil {
		return "", fmt.Errorf("retrieve chunks: %w", err)
	}
	log.Debug().Int("chunks", len(docs)).Msg("Retrieved chunks")

	messages := c.buildMessages(instruction, docs)
	response, err := llmservice.GenerateText(ctx, c.llm, messages, c.opts)
	if err != nil {
		return "", err
	}

	if c.memory != nil {
		if err := c.memory.Save(ctx, instruction, response); err != nil {
			log.Warn().Err(err).Msg("Failed to update conversation memory")
		}
	}
	return response, nil
}

func (c *Chain) buildMessages(instruction string, docs []schema.Document) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, models.SystemPrompt),
	}
	if c.memory != nil {
		messages = append(messages, c.memory.Messages()...)
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman,
		fmt.Sprintf(models.QuestionPromptTemplate, joinDocuments(docs), instruction)))
	return messages
}

func joinDocuments(docs []schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.PageContent)
	}
	return strings.Join(parts, models.ContextSeparator)
}
