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

	"github.com/mebooks-ai/mebooks/internal/cache"
	"github.com/mebooks-ai/mebooks/internal/catalog"
	"github.com/mebooks-ai/mebooks/internal/config"
	"github.com/mebooks-ai/mebooks/internal/db"
	dbRedis "github.com/mebooks-ai/mebooks/internal/db/redis"
	logpkg "github.com/mebooks-ai/mebooks/internal/logger"
	"github.com/mebooks-ai/mebooks/internal/metrics"
	chiTransport "github.com/mebooks-ai/mebooks/internal/transport/chi"
	openaiTransport "github.com/mebooks-ai/mebooks/internal/transport/openai"
	healthuc "github.com/mebooks-ai/mebooks/internal/usecase/health"
	insightuc "github.com/mebooks-ai/mebooks/internal/usecase/insight"
	searchuc "github.com/mebooks-ai/mebooks/internal/usecase/search"
	"github.com/mebooks-ai/mebooks/internal/vector"
	"github.com/mebooks-ai/mebooks/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mebooks API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_addr", cfg.Cache.Addr),
		zap.String("vector_search_url", cfg.VectorSearch.URL),
	)

	// The cache is an optimization: an unreachable Redis degrades every
	// lookup to a miss but never prevents startup.
	ctx := context.Background()
	var cacheStore db.Store
	if rs, err := dbRedis.NewStore(dbRedis.Config{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	}); err != nil {
		logger.Warn("Cache backend unavailable, running without cache", zap.Error(err))
	} else if err := rs.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Warn("Cache backend not ready, running without cache", zap.Error(err))
		rs.Close()
	} else {
		logger.Info("Connected to cache backend")
		cacheStore = rs
		defer rs.Close()
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	resultCache := cache.New(cacheStore, cfg.Cache.KeyPrefix, metrics.CacheTotal, logger)

	vectorClient := vector.NewClient(cfg.VectorSearch.URL, logger,
		vector.WithHealthTimeout(time.Duration(cfg.VectorSearch.HealthTimeoutSec)*time.Second),
		vector.WithHealthTTL(time.Duration(cfg.VectorSearch.HealthTTLSec)*time.Second),
		vector.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.VectorSearch.RequestTimeoutSec) * time.Second,
		}),
	)

	ebooks := catalog.New()

	searchSvc := searchuc.NewService(resultCache, vectorClient, ebooks, logger)

	// Query analysis falls back to the built-in heuristic when no provider
	// is configured.
	var analyzer insightuc.Analyzer
	if cfg.Insight.APIKey != "" {
		analyzer = openaiTransport.NewAnalyzer(&openaiTransport.Config{
			APIKey:  cfg.Insight.APIKey,
			BaseURL: cfg.Insight.BaseURL,
			Model:   cfg.Insight.Model,
			Logger:  logger,
		})
		logger.Info("Query analyzer enabled", zap.String("model", cfg.Insight.Model))
	}
	insightSvc := insightuc.NewService(analyzer, logger)

	// Pass nil interface (not typed nil pointer!) when the cache backend is
	// down, so the health check reports it as absent rather than panicking.
	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(cachePinger, vectorClient)

	server := chiTransport.NewServer(searchSvc, insightSvc, healthSvc, ebooks, resultCache, vectorClient, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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
