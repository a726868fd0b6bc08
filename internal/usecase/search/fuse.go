package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/querynorm"
)

// hybridSearch fans out the two retrieval legs, each requesting twice the
// caller's limit for a richer union, and fuses them. A failing leg degrades
// to empty; the call only fails when both legs do.
func (s *Service) hybridSearch(
	ctx context.Context, variants querynorm.Variants, f domain.Filters,
	limit int, threshold float64,
) ([]domain.HybridResult, []float32, error) {
	legLimit := limit * 2

	var (
		vres      []domain.VectorResult
		kres      []domain.KeywordResult
		embedding []float32
		vErr      error
		kErr      error
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		vres, embedding, vErr = s.vectorLeg(ctx, variants, f, legLimit, threshold)
		s.recorder.RecordInternal(metrics.KindVector)
		if vErr != nil {
			s.logger.Warn("vector leg failed, degrading to keyword-only", zap.Error(vErr))
			vres = nil
		}
		return nil
	})
	g.Go(func() error {
		kres, kErr = s.keywordLeg(ctx, variants, f, legLimit)
		s.recorder.RecordInternal(metrics.KindKeyword)
		if kErr != nil {
			s.logger.Warn("keyword leg failed, degrading to vector-only", zap.Error(kErr))
			kres = nil
		}
		return nil
	})
	_ = g.Wait()

	if vErr != nil && kErr != nil {
		return nil, nil, fmt.Errorf("both retrieval legs failed: vector: %w; keyword: %w", vErr, kErr)
	}

	return s.fuse(vres, kres, limit), embedding, nil
}

// fuse merges the two legs per document. With both signals present the
// combined score is vector*w*boost + text*(1-w); single-signal documents
// keep their weighted share. When the vector leg returned nothing at all
// (no embeddings yet, provider outage) the keyword ranking is passed
// through undiluted instead of returning an empty list.
func (s *Service) fuse(vres []domain.VectorResult, kres []domain.KeywordResult, limit int) []domain.HybridResult {
	if len(vres) == 0 {
		results := keywordOnly(kres)
		if len(results) > limit {
			results = results[:limit]
		}
		return results
	}

	w := s.cfg.VectorWeight
	merged := make(map[string]*domain.HybridResult, len(vres)+len(kres))

	for _, r := range vres {
		merged[r.DocumentID] = &domain.HybridResult{
			DocumentID:  r.DocumentID,
			VectorScore: r.Similarity,
			HasVector:   true,
		}
	}
	for _, r := range kres {
		if m, ok := merged[r.DocumentID]; ok {
			m.TextScore = r.TextScore
			m.HasText = true
			continue
		}
		merged[r.DocumentID] = &domain.HybridResult{
			DocumentID: r.DocumentID,
			TextScore:  r.TextScore,
			HasText:    true,
		}
	}

	results := make([]domain.HybridResult, 0, len(merged))
	for _, m := range merged {
		var combined float64
		switch {
		case m.HasVector && m.HasText:
			combined = m.VectorScore*w*s.boost(m.VectorScore) + m.TextScore*(1-w)
		case m.HasVector:
			combined = m.VectorScore * w * s.boost(m.VectorScore)
		default:
			combined = m.TextScore * (1 - w)
		}
		m.Combined = min(1, max(0, combined))
		results = append(results, *m)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// boost returns the step multiplier for a vector score: near-exact semantic
// matches are rewarded so the linear weight does not dilute them.
func (s *Service) boost(score float64) float64 {
	for _, step := range s.cfg.BoostSteps {
		if score >= step.Min {
			return step.Multiplier
		}
	}
	return 1
}

// vectorOnly lifts vector rows into the hybrid result shape.
func vectorOnly(vres []domain.VectorResult) []domain.HybridResult {
	results := make([]domain.HybridResult, len(vres))
	for i, r := range vres {
		results[i] = domain.HybridResult{
			DocumentID:  r.DocumentID,
			VectorScore: r.Similarity,
			HasVector:   true,
			Combined:    r.Similarity,
		}
	}
	return results
}

// keywordOnly lifts keyword rows into the hybrid result shape.
func keywordOnly(kres []domain.KeywordResult) []domain.HybridResult {
	results := make([]domain.HybridResult, len(kres))
	for i, r := range kres {
		results[i] = domain.HybridResult{
			DocumentID: r.DocumentID,
			TextScore:  r.TextScore,
			HasText:    true,
			Combined:   r.TextScore,
		}
	}
	return results
}
