package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/querynorm"
)

// vectorLeg embeds the query and ranks the filtered candidate set by
// similarity. The native operator is tried first; when the backend lacks it,
// similarity is recomputed in process over bulk-fetched vectors. Both paths
// agree within floating-point tolerance.
func (s *Service) vectorLeg(
	ctx context.Context, variants querynorm.Variants, f domain.Filters,
	limit int, threshold float64,
) ([]domain.VectorResult, []float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	emb, err := s.embedder.Embed(embedCtx, variants.Preferred())
	if err != nil {
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := s.docs.Candidates(ctx, f)
	if err != nil {
		return nil, emb.Embedding, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(docs) == 0 {
		return nil, emb.Embedding, nil
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	if s.vectors.SupportsVectorSearch(ctx) {
		results, err := s.vectors.NativeKNN(ctx, emb.Embedding, ids, limit, threshold)
		if err == nil {
			return results, emb.Embedding, nil
		}
		if !errors.Is(err, domain.ErrVectorSearchUnsupported) {
			return nil, emb.Embedding, fmt.Errorf("native knn: %w", err)
		}
		// Probe raced the backend; fall through to the in-process path.
	}

	metrics.SearchFallbackTotal.Inc()
	results, err := s.fallbackKNN(ctx, emb.Embedding, ids, limit, threshold)
	return results, emb.Embedding, err
}

// fallbackKNN recomputes cosine similarity per candidate in process.
// Zero-length vectors and non-finite results are discarded.
func (s *Service) fallbackKNN(
	ctx context.Context, query []float32, ids []string,
	limit int, threshold float64,
) ([]domain.VectorResult, error) {
	embeddings, err := s.vectors.Vectors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch vectors: %w", err)
	}

	results := make([]domain.VectorResult, 0, len(embeddings))
	for _, e := range embeddings {
		if len(e.Vector) == 0 {
			continue
		}
		sim := cosineSimilarity(query, e.Vector)
		if math.IsNaN(sim) || math.IsInf(sim, 0) {
			continue
		}
		sim = min(1, max(0, sim))
		if sim < threshold {
			continue
		}
		results = append(results, domain.VectorResult{DocumentID: e.DocumentID, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity computes the angular closeness of two vectors. Returns
// NaN on dimension mismatch or a zero-length input so the caller discards
// the row.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
