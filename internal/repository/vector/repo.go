// Package vector is the boundary to the embedding store: the native
// similarity operator when the backend carries one, and bulk vector fetch
// for the in-process fallback.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/db"
	"github.com/kailas-cloud/docdex/internal/domain"
)

// store is the consumer interface for embedding reads (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SupportsVectorSearch(ctx context.Context) bool
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements the embedding store boundary.
type Repo struct {
	store  store
	prefix string
}

// New creates a vector repository.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = "docdex:"
	}
	return &Repo{store: s, prefix: prefix}
}

// SupportsVectorSearch reports whether the native similarity operator is
// available. Callers branch on this explicitly instead of interpreting
// backend errors.
func (r *Repo) SupportsVectorSearch(ctx context.Context) bool {
	return r.store.SupportsVectorSearch(ctx)
}

// NativeKNN runs the backend similarity operator restricted to the candidate
// id set. Results are validated at this boundary: scores clamped into [0, 1],
// threshold and limit applied, sorted descending.
func (r *Repo) NativeKNN(
	ctx context.Context, vector []float32, ids []string, limit int, threshold float64,
) ([]domain.VectorResult, error) {
	if !r.store.SupportsVectorSearch(ctx) {
		return nil, domain.ErrVectorSearchUnsupported
	}
	if limit <= 0 || len(ids) == 0 {
		return nil, nil
	}

	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            limit,
		IDs:          ids,
		ReturnFields: []string{"__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("native knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	results := make([]domain.VectorResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		score := entry.Score
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if score < threshold {
			continue
		}
		results = append(results, domain.VectorResult{
			DocumentID: strings.TrimPrefix(entry.Key, r.embKey("")),
			Similarity: min(1, max(0, score)),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Vectors bulk-fetches raw embeddings for the candidate set. Documents
// without an embedding are skipped, not errors: ingestion may lag the
// corpus.
func (r *Repo) Vectors(ctx context.Context, ids []string) ([]domain.Embedding, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.embKey(id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}

	embeddings := make([]domain.Embedding, 0, len(rows))
	for i, fields := range rows {
		raw, ok := fields["vector"]
		if !ok || raw == "" {
			continue
		}
		vec, err := bytesToVector([]byte(raw))
		if err != nil {
			continue
		}
		embeddings = append(embeddings, domain.Embedding{DocumentID: ids[i], Vector: vec})
	}
	return embeddings, nil
}

func (r *Repo) indexName() string {
	return r.prefix + "emb:idx"
}

func (r *Repo) embKey(id string) string {
	return r.prefix + "emb:" + id
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
