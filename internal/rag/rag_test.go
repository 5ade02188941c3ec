package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz/internal/fakes"
	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/memory"
	"pdf-quiz/internal/models"
)

type staticRetriever struct {
	docs    []schema.Document
	err     error
	queries []string
}

func (r *staticRetriever) GetRelevantDocuments(_ context.Context, query string) ([]schema.Document, error) {
	r.queries = append(r.queries, query)
	return r.docs, r.err
}

func newRetriever() *staticRetriever {
	return &staticRetriever{docs: []schema.Document{
		{PageContent: "Photosynthesis converts light into chemical energy."},
		{PageContent: "Chlorophyll absorbs light."},
	}}
}

func TestRunAssemblesPromptAndCallsModelOnce(t *testing.T) {
	llm := &fakes.LLM{Default: "1. What does photosynthesis convert light into?"}
	retriever := newRetriever()
	mem := memory.NewSummaryBuffer(llm, 2000, llmservice.Options{})
	chain := NewChain(llm, retriever, mem, llmservice.Options{Temperature: 0.5})

	out, err := chain.Run(context.Background(), "Generate 3 MCQs")
	require.NoError(t, err)
	assert.Equal(t, "1. What does photosynthesis convert light into?", out)

	assert.Equal(t, []string{"Generate 3 MCQs"}, retriever.queries)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	msgs := calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, msgs[0].Role)
	assert.Contains(t, fakes.Text(msgs[:1]), "never include answers")

	human := fakes.Text(msgs[1:])
	assert.Contains(t, human, "Photosynthesis converts light into chemical energy."+models.ContextSeparator+"Chlorophyll absorbs light.")
	assert.Contains(t, human, "Generate 3 MCQs")

	turns := mem.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "Generate 3 MCQs", turns[0].Human)
	assert.Equal(t, out, turns[0].AI)
}

func TestRunIncludesPriorTurns(t *testing.T) {
	llm := &fakes.LLM{Default: "1. Question?"}
	mem := memory.NewSummaryBuffer(llm, 2000, llmservice.Options{})
	chain := NewChain(llm, newRetriever(), mem, llmservice.Options{})

	_, err := chain.Run(context.Background(), "first quiz")
	require.NoError(t, err)
	_, err = chain.Run(context.Background(), "harder quiz")
	require.NoError(t, err)

	calls := llm.Calls()
	require.Len(t, calls, 2)
	second := calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.ChatMessageTypeHuman, second[1].Role)
	assert.Contains(t, fakes.Text(second[1:2]), "first quiz")
	assert.Equal(t, schema.ChatMessageTypeAI, second[2].Role)
}

func TestRunPassesThroughAnswers(t *testing.T) {
	llm := &fakes.LLM{Default: "1. Question? Answer: B"}
	chain := NewChain(llm, newRetriever(), nil, llmservice.Options{})

	out, err := chain.Run(context.Background(), "quiz")
	require.NoError(t, err)
	assert.Equal(t, "1. Question? Answer: B", out)
}

func TestRunRetrieverError(t *testing.T) {
	llm := &fakes.LLM{Default: "unused"}
	retriever := &staticRetriever{err: errors.New("embedding host down")}
	chain := NewChain(llm, retriever, nil, llmservice.Options{})

	_, err := chain.Run(context.Background(), "quiz")
	assert.Error(t, err)
	assert.Empty(t, llm.Calls())
}

func TestRunModelErrorIsNotRemembered(t *testing.T) {
	llm := &fakes.LLM{}
	mem := memory.NewSummaryBuffer(llm, 2000, llmservice.Options{})
	chain := NewChain(llm, newRetriever(), mem, llmservice.Options{})

	_, err := chain.Run(context.Background(), "quiz")
	assert.ErrorIs(t, err, fakes.ErrNoReply)
	assert.Empty(t, mem.Turns())
}
