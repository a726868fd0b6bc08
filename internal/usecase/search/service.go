// Package search is the hybrid retrieval core: it normalizes the query,
// runs the vector and keyword legs, fuses them with quality-based boosting,
// memoizes results and records metrics and history.
package search

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/cache"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/querynorm"
)

// Type selects the search flavor.
type Type string

// Search types.
const (
	TypeHybrid  Type = "hybrid"
	TypeVector  Type = "vector"
	TypeKeyword Type = "keyword"
)

// Request is one search invocation. A zero Limit uses the configured
// default; a non-positive Threshold uses the per-type default. UserID is
// optional and only feeds the best-effort history sink.
type Request struct {
	Query     string
	Filters   domain.Filters
	Limit     int
	Threshold float64
	Type      Type
	UserID    string
}

// Service coordinates the retrieval legs. The cache and recorder it owns
// live for the process lifetime; everything else is per-request.
type Service struct {
	docs     DocumentSource
	vectors  VectorSource
	embedder Embedder
	history  HistorySink
	cache    *cache.Cache[[]domain.HybridResult]
	recorder *metrics.Recorder
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. Zero config fields fall back to defaults.
func New(docs DocumentSource, vectors VectorSource, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		cache:    cache.New[[]domain.HybridResult](cfg.CacheTTL, cfg.CacheSize),
		recorder: metrics.NewRecorder(),
		cfg:      cfg,
		logger:   logger,
	}
}

// WithHistory attaches a best-effort history sink.
func (s *Service) WithHistory(sink HistorySink) *Service {
	s.history = sink
	return s
}

// Metrics returns a snapshot of the process-wide search counters.
func (s *Service) Metrics() metrics.Snapshot {
	return s.recorder.Snapshot()
}

// Search runs one retrieval request and returns a ranked, de-duplicated,
// truncated result list. An empty query yields an empty list, not an error.
func (s *Service) Search(ctx context.Context, req Request) ([]domain.HybridResult, error) {
	typ := req.Type
	if typ == "" {
		typ = TypeHybrid
	}
	limit := s.clampLimit(req.Limit)
	threshold := s.defaultThreshold(typ, req.Threshold)

	variants := querynorm.Normalize(req.Query)
	if variants.Empty() {
		return nil, nil
	}

	// Cache lookup precedes any I/O.
	key := cacheKey(typ, variants.Lower, req.Filters, limit, threshold)
	if cached, ok := s.cache.Get(key); ok {
		s.recorder.RecordCacheHit()
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return slices.Clone(cached), nil
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	start := time.Now()

	var (
		results   []domain.HybridResult
		embedding []float32
		err       error
	)
	switch typ {
	case TypeHybrid:
		results, embedding, err = s.hybridSearch(ctx, variants, req.Filters, limit, threshold)
	case TypeVector:
		var vres []domain.VectorResult
		vres, embedding, err = s.vectorLeg(ctx, variants, req.Filters, limit, threshold)
		results = vectorOnly(vres)
	case TypeKeyword:
		var kres []domain.KeywordResult
		kres, err = s.keywordLeg(ctx, variants, req.Filters, limit)
		results = keywordOnly(kres)
	default:
		return nil, fmt.Errorf("unsupported search type: %s", typ)
	}

	latency := time.Since(start)

	if err != nil {
		s.logger.Error("search failed",
			zap.String("type", string(typ)),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		metrics.SearchRequestsTotal.WithLabelValues(string(typ), "error").Inc()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSearchFailed, typ, err)
	}

	s.recorder.RecordSearch(metrics.Kind(typ), latency)
	metrics.SearchRequestsTotal.WithLabelValues(string(typ), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(typ)).Observe(latency.Seconds())

	// Clone so later caller mutations cannot reach the cached payload.
	s.cache.Put(key, slices.Clone(results))
	s.recordHistory(ctx, req, typ, variants, embedding, results)

	return results, nil
}

// recordHistory fires a detached, best-effort history write after the
// ranking is computed. It never blocks or fails the caller.
func (s *Service) recordHistory(
	ctx context.Context, req Request, typ Type,
	variants querynorm.Variants, embedding []float32, results []domain.HybridResult,
) {
	if s.history == nil || req.UserID == "" {
		return
	}

	var top float64
	if len(results) > 0 {
		top = results[0].Combined
	}
	entry := domain.HistoryEntry{
		UserID:      req.UserID,
		Query:       variants.Collapsed,
		Embedding:   embedding,
		Method:      string(typ),
		Score:       top,
		ResultCount: len(results),
		Filters:     req.Filters,
		At:          time.Now().UTC(),
	}

	go func() {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HistoryMaxWait)
		defer cancel()
		if err := s.history.Record(hctx, entry); err != nil {
			s.logger.Warn("history record failed", zap.Error(err))
		}
	}()
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

func (s *Service) defaultThreshold(typ Type, threshold float64) float64 {
	if threshold > 0 {
		return threshold
	}
	switch typ {
	case TypeVector:
		return s.cfg.VectorThreshold
	case TypeKeyword:
		return 0
	default:
		return s.cfg.HybridThreshold
	}
}

// cacheKey serializes the normalized request. Logically equal requests map
// to the same key.
func cacheKey(typ Type, normalizedQuery string, f domain.Filters, limit int, threshold float64) string {
	var b strings.Builder
	b.WriteString(string(typ))
	b.WriteByte('|')
	b.WriteString(normalizedQuery)
	b.WriteByte('|')
	b.WriteString(f.Key())
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(limit))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(threshold, 'f', 4, 64))
	return b.String()
}
