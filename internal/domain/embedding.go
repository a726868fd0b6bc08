package domain

import "context"

// Embedding is a stored document vector, owned by the ingestion pipeline
// and read-only here.
type Embedding struct {
	DocumentID string
	Vector     []float32
}

// EmbeddingResult holds a generated vector plus provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
