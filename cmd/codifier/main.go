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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/config"
	dbRedis "github.com/osool-guide/codifier/internal/db/redis"
	"github.com/osool-guide/codifier/internal/domain"
	logpkg "github.com/osool-guide/codifier/internal/logger"
	"github.com/osool-guide/codifier/internal/metrics"
	catalogrepo "github.com/osool-guide/codifier/internal/repository/catalog"
	"github.com/osool-guide/codifier/internal/repository/embcache"
	"github.com/osool-guide/codifier/internal/repository/qcache"
	chiTransport "github.com/osool-guide/codifier/internal/transport/chi"
	openaiTransport "github.com/osool-guide/codifier/internal/transport/openai"
	classifyuc "github.com/osool-guide/codifier/internal/usecase/classify"
	healthuc "github.com/osool-guide/codifier/internal/usecase/health"
	retrieveuc "github.com/osool-guide/codifier/internal/usecase/retrieve"
	selectionuc "github.com/osool-guide/codifier/internal/usecase/selection"
	understanduc "github.com/osool-guide/codifier/internal/usecase/understand"
	"github.com/osool-guide/codifier/internal/version"
)

func main() {
	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

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

	logger.Info("Starting codifier API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Catalog is mandatory: the service cannot classify without it.
	catalog, err := catalogrepo.Load(cfg.Catalog.VectorsPath, cfg.Catalog.MetadataPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	if catalog.Dimension() != cfg.Embedding.Dimensions {
		logger.Fatal("Catalog dimension does not match embedding config",
			zap.Int("catalog", catalog.Dimension()),
			zap.Int("config", cfg.Embedding.Dimensions),
		)
	}
	logger.Info("Catalog loaded",
		zap.Int("items", catalog.Len()),
		zap.Int("dimension", catalog.Dimension()),
	)

	// Cache store is optional: without it every query hits the providers.
	var store *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	} else {
		logger.Info("Cache store not configured, caching disabled")
	}

	cacheTTL := time.Duration(cfg.Cache.TTLSec) * time.Second

	// Embedder chain: OpenAI-compatible provider, cached when a store exists.
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if store != nil {
		embedder = embcache.New(embedder, store, cacheTTL, metrics.EmbeddingCacheTotal, logger)
	}

	llm := openaiTransport.NewCompletion(&openaiTransport.CompletionConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxRetries:  cfg.LLM.MaxRetries,
		Logger:      logger,
	})

	// Pipeline stages
	understandSvc := understanduc.New(llm, logger)
	if store != nil {
		understandSvc = understandSvc.WithCache(
			qcache.New(store, cacheTTL, metrics.UnderstandingCacheTotal, logger),
		)
	}
	retrieveSvc := retrieveuc.New(
		embedder, catalog, cfg.Pipeline.TopK, cfg.Pipeline.SimilarityThreshold, logger,
	)
	selectionSvc := selectionuc.New(
		llm, cfg.Pipeline.FallbackConfidenceCeiling, cfg.Pipeline.SingleCandidateBoost, logger,
	)

	classifier := classifyuc.New(understandSvc, retrieveSvc, selectionSvc, catalog, classifyuc.Config{
		RequestTimeout:  time.Duration(cfg.Pipeline.RequestTimeoutSec) * time.Second,
		DegradedPenalty: cfg.Pipeline.DegradedConfidencePenalty,
		LLMModel:        cfg.LLM.Model,
		EmbeddingModel:  cfg.Embedding.Model,
	}, logger)

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(catalog, llm, cachePinger)

	server := chiTransport.NewServer(classifier, healthSvc, logger)

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

			// Canonical log line, one line per request
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
