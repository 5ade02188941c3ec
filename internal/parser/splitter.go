package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"
)

const (
	defaultChunkSize    = 300 // characters
	defaultChunkOverlap = 30  // characters
)

// SplitText cuts text into overlapping windows of at most cfg.ChunkSize
// characters and keeps the first cfg.MaxChunks of them in document order.
// MaxChunks == 0 keeps every window. A unit between separators that is
// longer than the chunk size is returned whole.
func SplitText(text string, cfg config.RAGConfig) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	// if config is empty, use default values
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = []string{"\n", " "}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(cfg.Separators),
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	if cfg.MaxChunks > 0 && len(parts) > cfg.MaxChunks {
		parts = parts[:cfg.MaxChunks]
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			Content: part,
			ChunkID: i + 1,
		})
	}
	return chunks, nil
}
