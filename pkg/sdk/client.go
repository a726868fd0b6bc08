package docdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/db"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	documentrepo "github.com/kailas-cloud/docdex/internal/repository/document"
	historyrepo "github.com/kailas-cloud/docdex/internal/repository/history"
	vectorrepo "github.com/kailas-cloud/docdex/internal/repository/vector"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "docdex:"
)

// Internal interfaces for test substitution.
type searchUseCase interface {
	Search(ctx context.Context, req searchuc.Request) ([]domain.HybridResult, error)
	Metrics() metrics.Snapshot
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// SearchType selects the retrieval flavor for one request.
type SearchType string

// Search types. Empty means hybrid.
const (
	SearchHybrid  SearchType = "hybrid"
	SearchVector  SearchType = "vector"
	SearchKeyword SearchType = "keyword"
)

// SearchRequest is one search invocation. A zero Limit uses the server
// default; a non-positive Threshold uses the per-type default.
type SearchRequest struct {
	Query     string
	Type      SearchType
	Limit     int
	Threshold float64
	UserID    string

	// Candidate filters, applied before scoring.
	CategoryID    string
	Tags          []string
	Language      string
	IncludeHidden bool
}

// SearchResult is one fused result row.
type SearchResult struct {
	DocumentID  string
	Score       float64
	VectorScore float64
	TextScore   float64
}

// Stats is a snapshot of process-lifetime search counters.
type Stats struct {
	TotalSearches   int64
	VectorSearches  int64
	KeywordSearches int64
	HybridSearches  int64
	CacheHits       int64
	AvgLatency      time.Duration
}

// Client is the docdex embedded client entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a docdex Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("docdex: database address required (use WithValkey or WithRedis)")
	}
	if cfg.driver != "valkey" && cfg.driver != "redis" {
		return nil, fmt.Errorf("docdex: unknown driver %q", cfg.driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("docdex: create %s store: %w", cfg.driver, err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docdex: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	docRepo := documentrepo.New(store, cfg.keyPrefix)
	vecRepo := vectorrepo.New(store, cfg.keyPrefix)

	var emb searchuc.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}

	searchCfg := searchuc.Config{VectorWeight: cfg.vectorWeight}
	searchSvc := searchuc.New(docRepo, vecRepo, emb, searchCfg, zap.NewNop())
	if cfg.historyStream != "" {
		sink := historyrepo.New(store, cfg.historyStream, cfg.historyMaxLen, zap.NewNop())
		searchSvc = searchSvc.WithHistory(sink)
	}

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(store, nil),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs one retrieval request through the full pipeline.
func (c *Client) Search(ctx context.Context, req SearchRequest) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	rows, err := c.searchSvc.Search(ctx, searchuc.Request{
		Query:     req.Query,
		Type:      searchuc.Type(req.Type),
		Limit:     req.Limit,
		Threshold: req.Threshold,
		UserID:    req.UserID,
		Filters: domain.Filters{
			CategoryID:    req.CategoryID,
			Tags:          req.Tags,
			Language:      req.Language,
			IncludeHidden: req.IncludeHidden,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchResult, len(rows))
	for i, r := range rows {
		out[i] = SearchResult{
			DocumentID:  r.DocumentID,
			Score:       r.Combined,
			VectorScore: r.VectorScore,
			TextScore:   r.TextScore,
		}
	}
	return out, nil
}

// Stats returns the process-lifetime search counters.
func (c *Client) Stats() Stats {
	s := c.searchSvc.Metrics()
	return Stats{
		TotalSearches:   s.TotalSearches,
		VectorSearches:  s.VectorSearches,
		KeywordSearches: s.KeywordSearches,
		HybridSearches:  s.HybridSearches,
		CacheHits:       s.CacheHits,
		AvgLatency:      s.AvgLatency,
	}
}

// embedderAdapter wraps the public Embedder to satisfy the internal one.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"%w: embedder not configured (use WithEmbedder)", domain.ErrEmbeddingProviderError,
	)
}
