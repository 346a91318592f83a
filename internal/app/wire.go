// Package app assembles the components shared by the server and the ingest CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/config"
	dbRedis "github.com/kailas-cloud/lookbook/internal/db/redis"
	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
	"github.com/kailas-cloud/lookbook/internal/metrics"
	"github.com/kailas-cloud/lookbook/internal/repository/catalog"
	"github.com/kailas-cloud/lookbook/internal/repository/embcache"
	"github.com/kailas-cloud/lookbook/internal/transport/embedsvc"
	openaiTransport "github.com/kailas-cloud/lookbook/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/lookbook/internal/usecase/embedding"
)

// OpenStore connects to the database and waits until it answers.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Driver:   dbRedis.Driver(cfg.Driver),
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// Collections converts the configured category names into a router mapping.
func Collections(cfg config.CatalogConfig) (map[intent.Category]domcat.Collection, error) {
	out := make(map[intent.Category]domcat.Collection, len(cfg.Collections))
	for name, collection := range cfg.Collections {
		c, err := intent.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("catalog.collections: %w", err)
		}
		out[c] = domcat.Collection{Name: collection}
	}
	return out, nil
}

// NewRouter builds the catalog router over the store.
func NewRouter(store *dbRedis.Store, cfg config.CatalogConfig) (*catalog.Router, error) {
	cols, err := Collections(cfg)
	if err != nil {
		return nil, err
	}
	r, err := catalog.NewRouter(store, cols, catalog.HNSWConfig{
		M:              cfg.HNSWM,
		EFConstruction: cfg.HNSWEFConstruct,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog router: %w", err)
	}
	return r, nil
}

// ProbedEmbedder is a transport embedder that also answers health probes.
type ProbedEmbedder interface {
	domain.Embedder
	domain.HealthChecker
}

// BaseEmbedder creates the transport embedder selected by embedding.provider.
func BaseEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (ProbedEmbedder, error) {
	switch cfg.Provider {
	case "embedsvc":
		c, err := embedsvc.New(&embedsvc.Config{
			URL:      cfg.URL,
			Protocol: embedsvc.Protocol(cfg.Protocol),
			Function: cfg.Function,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding service client: %w", err)
		}
		return c, nil
	case "openai":
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Embedder assembles the decorator chain: transport -> cache -> instrumented -> instruction.
// The instruction is outermost so the cache key includes it.
func Embedder(
	base domain.Embedder,
	cfg config.EmbeddingConfig,
	instruction string,
	kv *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base

	if ttl, ok := cfg.CacheTTL(); ok && kv != nil {
		namespace := cfg.Model
		if namespace == "" {
			namespace = cfg.Provider
		}
		embedder = embcache.New(embedder, kv, namespace, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.Dimensions, logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
