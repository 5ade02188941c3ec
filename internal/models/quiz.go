package models

// Chunk is a bounded window of the extracted document text.
type Chunk struct {
	Content string
	ChunkID int
}

// ChunkEmbedding pairs a chunk with the vector the embedding host returned for it.
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	ChunkID        int
}

// Turn is one prompt/response exchange held in conversation memory.
type Turn struct {
	Human string
	AI    string
}
