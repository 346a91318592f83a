// Package chi exposes the recommendation pipeline over HTTP.
package chi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain/recommendation"
	"github.com/kailas-cloud/lookbook/internal/repository/mediastore"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/lookbook/internal/usecase/recommend"
)

// defaultMaxImageBytes caps one uploaded image when no limit is configured.
const defaultMaxImageBytes = 10 << 20

// Recommender runs the recommendation pipeline.
type Recommender interface {
	RecommendText(ctx context.Context, query string) (recommendation.Result, error)
	RecommendImages(ctx context.Context, query string, uploads []recommenduc.Upload) (recommendation.Result, error)
}

// MediaReader serves hosted images.
type MediaReader interface {
	Get(ctx context.Context, id string) (mediastore.Object, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Options configures request limits.
type Options struct {
	MaxImageBytes int64
}

// Server holds the HTTP handlers.
type Server struct {
	recommend     Recommender
	media         MediaReader
	health        HealthService
	logger        *zap.Logger
	maxImageBytes int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend Recommender,
	media MediaReader,
	health HealthService,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}
	return &Server{
		recommend:     recommend,
		media:         media,
		health:        health,
		logger:        logger,
		maxImageBytes: opts.MaxImageBytes,
		errorHandlers: defaultErrorHandlers(),
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}
