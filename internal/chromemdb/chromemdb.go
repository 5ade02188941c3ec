package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz/internal/models"
)

// meta data will have source filename, chunk id
const (
	metaSource  = "source"
	metaChunkID = "chunk_id"
)

// Index is an in-memory chromem collection that lives for one request.
// It is never persisted and never shared between requests.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates a fresh in-memory collection named name and adds every
// chunk with its precomputed vector. Queries are embedded with embedder.
func NewIndex(ctx context.Context, name string, embedder embeddings.Embedder, items []models.ChunkEmbedding) (*Index, error) {
	if len(items) == 0 {
		return nil, errors.New("cannot build an index without chunks")
	}

	db := chromem.NewDB()
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	c, err := db.CreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("chunk-%03d", item.ChunkID),
			Content: item.Content,
			Metadata: map[string]string{
				metaSource:  item.SourceFilename,
				metaChunkID: strconv.Itoa(item.ChunkID),
			},
			Embedding: item.Embedding,
		})
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	log.Debug().Str("collection", name).Int("documents", c.Count()).Msg("Built vector index")
	return &Index{db: db, collection: c}, nil
}

// Count returns the number of indexed chunks.
func (i *Index) Count() int {
	return i.collection.Count()
}

// Search returns up to k chunks most similar to query, best first.
func (i *Index) Search(ctx context.Context, query string, k int) ([]chromem.Result, error) {
	if query == "" {
		return nil, errors.New("query must be provided")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	k = min(k, i.collection.Count())

	results, err := i.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// Retriever exposes the index through the langchaingo retriever contract.
func (i *Index) Retriever(k int) *Retriever {
	return &Retriever{index: i, k: k}
}

// Retriever returns the top k chunks for a query.
type Retriever struct {
	index *Index
	k     int
}

func (r *Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	results, err := r.index.Search(ctx, query, r.k)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, 0, len(results))
	for _, res := range results {
		meta := make(map[string]any, len(res.Metadata))
		for k, v := range res.Metadata {
			meta[k] = v
		}
		meta["id"] = res.ID
		docs = append(docs, schema.Document{
			PageContent: res.Content,
			Metadata:    meta,
			Score:       res.Similarity,
		})
	}
	return docs, nil
}

var _ schema.Retriever = (*Retriever)(nil)
