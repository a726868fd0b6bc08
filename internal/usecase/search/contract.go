package search

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DocumentSource supplies the filtered candidate set. Visibility, approval,
// category, tag and language gates are applied before anything is scored.
type DocumentSource interface {
	Candidates(ctx context.Context, f domain.Filters) ([]domain.Document, error)
	RecentSample(ctx context.Context, f domain.Filters, n int) ([]domain.Document, error)
}

// VectorSource is the embedding store boundary: the native similarity
// operator plus bulk vector fetch for the in-process fallback.
type VectorSource interface {
	SupportsVectorSearch(ctx context.Context) bool
	NativeKNN(ctx context.Context, vector []float32, ids []string, limit int, threshold float64) ([]domain.VectorResult, error)
	Vectors(ctx context.Context, ids []string) ([]domain.Embedding, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// HistorySink records past queries, best-effort.
type HistorySink interface {
	Record(ctx context.Context, e domain.HistoryEntry) error
}
