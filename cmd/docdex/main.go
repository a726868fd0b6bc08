package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	documentrepo "github.com/kailas-cloud/docdex/internal/repository/document"
	historyrepo "github.com/kailas-cloud/docdex/internal/repository/history"
	vectorrepo "github.com/kailas-cloud/docdex/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/docdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/docdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	"github.com/kailas-cloud/docdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	docRepo := documentrepo.New(store, cfg.Storage.KeyPrefix)
	vecRepo := vectorrepo.New(store, cfg.Storage.KeyPrefix)
	historySink := historyrepo.New(store, cfg.History.Stream, cfg.History.MaxLen, logger)

	// Search service
	searchSvc := searchuc.New(docRepo, vecRepo, embedder, searchConfig(cfg.Search, cfg.History), logger).
		WithHistory(historySink)

	// Health service
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searchConfig maps the YAML sections onto the engine tunables. Zero values
// fall back to the engine defaults.
func searchConfig(s config.SearchConfig, h config.HistoryConfig) searchuc.Config {
	steps := make([]searchuc.BoostStep, len(s.BoostSteps))
	for i, b := range s.BoostSteps {
		steps[i] = searchuc.BoostStep{Min: b.Min, Multiplier: b.Multiplier}
	}
	return searchuc.Config{
		VectorWeight: s.VectorWeight,
		BoostSteps:   steps,
		FieldWeights: searchuc.FieldWeights{
			Title:         s.FieldWeights.Title,
			Description:   s.FieldWeights.Description,
			Summary:       s.FieldWeights.Summary,
			KeyPoints:     s.FieldWeights.KeyPoints,
			Tags:          s.FieldWeights.Tags,
			SuggestedTags: s.FieldWeights.SuggestedTags,
		},
		DefaultLimit:     s.DefaultLimit,
		MaxLimit:         s.MaxLimit,
		HybridThreshold:  s.HybridThreshold,
		VectorThreshold:  s.VectorThreshold,
		CacheTTL:         time.Duration(s.CacheTTLSec) * time.Second,
		CacheSize:        s.CacheSize,
		EmbedTimeout:     time.Duration(s.EmbedTimeoutSec) * time.Second,
		RecentSampleSize: s.RecentSampleSize,
		HistoryMaxWait:   time.Duration(h.MaxWaitSec) * time.Second,
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
