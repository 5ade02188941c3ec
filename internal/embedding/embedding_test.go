package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/fakes"
	"pdf-quiz/internal/models"
)

var errUnavailable = errors.New("503 service unavailable")

type blockingEmbedder struct{ calls int }

func (b *blockingEmbedder) EmbedDocuments(ctx context.Context, _ []string) ([][]float32, error) {
	b.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingEmbedder) EmbedQuery(ctx context.Context, _ string) ([]float32, error) {
	b.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

type shortEmbedder struct{ fakes.Embedder }

func (s *shortEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	return vectors[1:], nil
}

func testChunks() []models.Chunk {
	return []models.Chunk{
		{Content: "light energy", ChunkID: 1},
		{Content: "chemical energy", ChunkID: 2},
	}
}

func TestEmbedChunks(t *testing.T) {
	out, err := EmbedChunks(context.Background(), &fakes.Embedder{}, "notes.pdf", testChunks())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "light energy", out[0].Content)
	assert.Equal(t, fakes.Vector("light energy"), out[0].Embedding)
	assert.Equal(t, "notes.pdf", out[1].SourceFilename)
	assert.Equal(t, 2, out[1].ChunkID)
}

func TestEmbedChunksEmpty(t *testing.T) {
	out, err := EmbedChunks(context.Background(), &fakes.Embedder{}, "notes.pdf", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEmbedChunksVectorCountMismatch(t *testing.T) {
	_, err := EmbedChunks(context.Background(), &shortEmbedder{}, "notes.pdf", testChunks())
	assert.Error(t, err)
}

func TestWithRetryRecoversFromOneFailure(t *testing.T) {
	inner := &fakes.Embedder{Failures: []error{errUnavailable}}
	embedder := WithRetry(inner, time.Second, time.Millisecond)

	out, err := EmbedChunks(context.Background(), embedder, "notes.pdf", testChunks())
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 2, inner.Calls)
}

func TestWithRetryGivesUpAfterSecondFailure(t *testing.T) {
	inner := &fakes.Embedder{Failures: []error{errUnavailable, errUnavailable, errUnavailable}}
	embedder := WithRetry(inner, time.Second, time.Millisecond)

	_, err := embedder.EmbedQuery(context.Background(), "light")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, 2, inner.Calls)
}

func TestWithRetryAppliesTimeout(t *testing.T) {
	inner := &blockingEmbedder{}
	embedder := WithRetry(inner, 10*time.Millisecond, time.Millisecond)

	_, err := embedder.EmbedDocuments(context.Background(), []string{"light"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetryStopsWhenCallerCancels(t *testing.T) {
	inner := &blockingEmbedder{}
	embedder := WithRetry(inner, time.Minute, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := embedder.EmbedQuery(ctx, "light")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "carrier-pigeon", Model: "x"})
	assert.Error(t, err)
}

func TestNewEmbedderOllama(t *testing.T) {
	embedder, err := NewEmbedder(&config.LLMConfig{
		Provider: config.ProviderOllama,
		BaseURL:  "http://127.0.0.1:11434",
		Model:    "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}
