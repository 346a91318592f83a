package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/app"
	"github.com/kailas-cloud/lookbook/internal/config"
	logpkg "github.com/kailas-cloud/lookbook/internal/logger"
	"github.com/kailas-cloud/lookbook/internal/metrics"
	"github.com/kailas-cloud/lookbook/internal/repository/mediastore"
	chiTransport "github.com/kailas-cloud/lookbook/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/lookbook/internal/transport/openai"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
	intentuc "github.com/kailas-cloud/lookbook/internal/usecase/intent"
	mediauc "github.com/kailas-cloud/lookbook/internal/usecase/media"
	recommenduc "github.com/kailas-cloud/lookbook/internal/usecase/recommend"
	"github.com/kailas-cloud/lookbook/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(logpkg.Options{Env: env, Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lookbook API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_model", cfg.Generation.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	router, err := app.NewRouter(store, cfg.Catalog)
	if err != nil {
		logger.Fatal("Failed to configure catalog", zap.Error(err))
	}

	// Embedder chain, composition root
	base, err := app.BaseEmbedder(cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	queryEmbedder := app.Embedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, store, logger)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		JSONMode:    cfg.Generation.JSONMode,
		Logger:      logger,
	})

	media := mediastore.New(store, cfg.Media.PublicBaseURL, time.Duration(cfg.Media.TTLMinutes)*time.Minute)
	delivery := mediauc.NewDelivery(generator, cfg.Generation.Timeout(), logger)
	extractor := intentuc.NewExtractor(delivery, logger)

	aggregator, err := recommenduc.NewAggregator(queryEmbedder, router, recommenduc.Options{
		CandidatePool: cfg.Pipeline.CandidatePool,
		Limit:         cfg.Pipeline.Limit,
		TermTimeout:   cfg.Pipeline.TermTimeout(),
	}, logger)
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", zap.Error(err))
	}
	recommendSvc := recommenduc.NewService(media, extractor, aggregator, logger)

	healthSvc := healthuc.New(store, base, delivery)

	server := chiTransport.NewServer(recommendSvc, media, healthSvc, chiTransport.Options{
		MaxImageBytes: cfg.Media.MaxImageBytes,
	}, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:        cfg.Auth.APIKeys,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
