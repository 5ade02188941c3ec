package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/models"
)

// SummaryBuffer keeps recent turns verbatim and folds older turns into a
// running summary written by the chat model once the verbatim turns exceed
// the token budget.
type SummaryBuffer struct {
	mu        sync.Mutex
	llm       llms.Model
	maxTokens int
	opts      llmservice.Options
	summary   string
	turns     []models.Turn
}

func NewSummaryBuffer(llm llms.Model, maxTokens int, opts llmservice.Options) *SummaryBuffer {
	return &SummaryBuffer{llm: llm, maxTokens: maxTokens, opts: opts}
}

// Messages returns the memory as chat messages: the summary, if any, as a
// system message followed by the verbatim turns.
func (b *SummaryBuffer) Messages() []llms.MessageContent {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := make([]llms.MessageContent, 0, 2*len(b.turns)+1)
	if b.summary != "" {
		msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeSystem, models.SessionSummaryPrefix+b.summary))
	}
	for _, t := range b.turns {
		msgs = append(msgs,
			llms.TextParts(schema.ChatMessageTypeHuman, t.Human),
			llms.TextParts(schema.ChatMessageTypeAI, t.AI),
		)
	}
	return msgs
}

// Summary returns the current running summary.
func (b *SummaryBuffer) Summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary
}

// Turns returns a copy of the verbatim turns.
func (b *SummaryBuffer) Turns() []models.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Turn(nil), b.turns...)
}

// Save appends a turn and prunes the oldest turns into the summary while the
// buffer is over budget. If summarizing fails the pruned turns are dropped
// and the error is returned; the buffer stays within budget either way.
func (b *SummaryBuffer) Save(ctx context.Context, human, ai string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.turns = append(b.turns, models.Turn{Human: human, AI: ai})

	var pruned []models.Turn
	for len(b.turns) > 0 && turnTokens(b.turns) > b.maxTokens {
		pruned = append(pruned, b.turns[0])
		b.turns = b.turns[1:]
	}
	if len(pruned) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(models.SummaryPromptTemplate, b.summary, bufferString(pruned))
	summary, err := llmservice.GenerateText(ctx, b.llm,
		[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)}, b.opts)
	if err != nil {
		return fmt.Errorf("summarize %d turns: %w", len(pruned), err)
	}
	b.summary = strings.TrimSpace(summary)
	return nil
}

// Clear drops the summary and every turn.
func (b *SummaryBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = ""
	b.turns = nil
}

func bufferString(turns []models.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "%s: %s\n%s: %s\n", models.SummaryHumanPrefix, t.Human, models.SummaryAIPrefix, t.AI)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func turnTokens(turns []models.Turn) int {
	n := 0
	for _, t := range turns {
		n += EstimateTokens(t.Human) + EstimateTokens(t.AI)
	}
	return n
}

// EstimateTokens approximates the token count of s at four characters per token.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}
