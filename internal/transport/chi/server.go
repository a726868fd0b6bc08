package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
)

// errorCode is a machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeSearchFailed           errorCode = "search_failed"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the retrieval engine over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrSearchFailed, http.StatusInternalServerError, codeSearchFailed),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.SearchDocuments)
	r.Get("/v1/search/stats", s.SearchStats)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchRequest is the POST /v1/search body.
type searchRequest struct {
	Query     string   `json:"query"`
	Type      string   `json:"type,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Language  string   `json:"language,omitempty"`
}

type searchResultItem struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	VectorScore float64 `json:"vector_score,omitempty"`
	TextScore   float64 `json:"text_score,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

// SearchDocuments handles POST /v1/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	typ := searchuc.Type(req.Type)
	switch typ {
	case "", searchuc.TypeHybrid, searchuc.TypeVector, searchuc.TypeKeyword:
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"type must be one of hybrid, vector, keyword")
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must not be negative")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "threshold must be within [0,1]")
		return
	}

	results, err := s.search.Search(r.Context(), searchuc.Request{
		Query: req.Query,
		Filters: domain.Filters{
			CategoryID: req.Category,
			Tags:       req.Tags,
			Language:   req.Language,
		},
		Limit:     req.Limit,
		Threshold: req.Threshold,
		Type:      typ,
		UserID:    req.UserID,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i, res := range results {
		items[i] = searchResultItem{
			ID:          res.DocumentID,
			Score:       res.Combined,
			VectorScore: res.VectorScore,
			TextScore:   res.TextScore,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

type statsResponse struct {
	TotalSearches   int64  `json:"total_searches"`
	VectorSearches  int64  `json:"vector_searches"`
	KeywordSearches int64  `json:"keyword_searches"`
	HybridSearches  int64  `json:"hybrid_searches"`
	CacheHits       int64  `json:"cache_hits"`
	AvgLatencyMs    int64  `json:"avg_latency_ms"`
	AvgLatency      string `json:"avg_latency"`
}

// SearchStats handles GET /v1/search/stats.
func (s *Server) SearchStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.search.Metrics()
	writeJSON(w, http.StatusOK, statsResponse{
		TotalSearches:   snap.TotalSearches,
		VectorSearches:  snap.VectorSearches,
		KeywordSearches: snap.KeywordSearches,
		HybridSearches:  snap.HybridSearches,
		CacheHits:       snap.CacheHits,
		AvgLatencyMs:    snap.AvgLatency.Milliseconds(),
		AvgLatency:      snap.AvgLatency.Round(time.Microsecond).String(),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorSearchUnsupported,
		domain.ErrSearchFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
