// Package fakes provides in-process stand-ins for the hosted embedding and
// chat-completion models so the pipeline can be tested offline.
package fakes

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Embedder returns a letter-frequency vector for each text, so identical
// text always maps to the identical vector and texts sharing vocabulary are
// close. Failures, when set, are returned by the next calls in order.
type Embedder struct {
	mu       sync.Mutex
	Failures []error
	Calls    int
}

const dims = 27

func (e *Embedder) next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls++
	if len(e.Failures) == 0 {
		return nil
	}
	err := e.Failures[0]
	e.Failures = e.Failures[1:]
	return err
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.next(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vector(t)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.next(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Vector(text), nil
}

// Vector is the embedding Embedder produces for text.
func Vector(text string) []float32 {
	v := make([]float32, dims)
	v[dims-1] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

// LLM is a scripted chat model. Reply computes the response for each call;
// when nil the model answers with Default.
type LLM struct {
	mu      sync.Mutex
	Reply   func(messages []llms.MessageContent) (string, error)
	Default string
	calls   [][]llms.MessageContent
}

var ErrNoReply = errors.New("fake llm: no reply configured")

func (m *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	reply := m.Reply
	def := m.Default
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		text string
		err  error
	)
	switch {
	case reply != nil:
		text, err = reply(messages)
	case def != "":
		text = def
	default:
		err = ErrNoReply
	}
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (m *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Calls returns the messages of every call made so far.
func (m *LLM) Calls() [][]llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]llms.MessageContent(nil), m.calls...)
}

// Text flattens the text parts of messages into one string.
func Text(messages []llms.MessageContent) string {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				b.WriteString(tc.Text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// IsSummaryRequest reports whether messages ask the model to summarize conversation.
func IsSummaryRequest(messages []llms.MessageContent) bool {
	return strings.Contains(Text(messages), "Progressively summarize")
}

// ContainsAnswerKey is a crude check for leaked answers in generated quiz text.
func ContainsAnswerKey(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "answer") || strings.Contains(lower, "correct option")
}
