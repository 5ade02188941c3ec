package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	hfembeddings "github.com/tmc/langchaingo/embeddings/huggingface"
	"github.com/tmc/langchaingo/llms/huggingface"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"
)

// NewEmbedder builds the embedder for the configured provider. Every call
// it makes is bounded by LLMConfig.Timeout and retried once after
// LLMConfig.RetryBackoff.
func NewEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Creating embedder")

	var (
		embedder embeddings.Embedder
		err      error
	)
	switch llmConfig.Provider {
	case config.ProviderHuggingFace:
		embedder, err = newHuggingFaceEmbedder(llmConfig)
	case config.ProviderOpenAI:
		embedder, err = newOpenAIEmbedder(llmConfig)
	case config.ProviderOllama:
		embedder, err = newOllamaEmbedder(llmConfig)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(embedder, llmConfig.Timeout, llmConfig.RetryBackoff), nil
}

func newHuggingFaceEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	client, err := huggingface.New(
		huggingface.WithToken(llmConfig.Key),
		huggingface.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create huggingface client: %w", err)
	}
	embedder, err := hfembeddings.NewHuggingface(
		hfembeddings.WithClient(*client),
		hfembeddings.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create huggingface embedder: %w", err)
	}
	return embedder, nil
}

func newOpenAIEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithEmbeddingModel(llmConfig.Model),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return embedder, nil
}

func newOllamaEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}
	return embedder, nil
}

// EmbedChunks embeds all chunks in one batch. Either every chunk gets a
// vector or an error is returned.
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, filename string, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding host returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	chunkEmbeddings := make([]models.ChunkEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("embedding host returned an empty vector for chunk %d", chunk.ChunkID)
		}
		chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{
			Content:        chunk.Content,
			Embedding:      vectors[i],
			SourceFilename: filename,
			ChunkID:        chunk.ChunkID,
		})
	}
	return chunkEmbeddings, nil
}
