package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	"github.com/kailas-cloud/lookbook/internal/domain/recommendation"
	"github.com/kailas-cloud/lookbook/internal/logger"
)

// Upload is one image received from the caller.
type Upload struct {
	Data        []byte
	ContentType string
}

// Failure is returned when the pipeline fails after the model replied.
// It keeps the reply so the caller can show what the model said.
type Failure struct {
	RawText string
	Err     error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// Service runs the full pipeline: host images, extract intent, aggregate.
type Service struct {
	uploader   Uploader
	extractor  Extractor
	aggregator *Aggregator
	logger     *zap.Logger
}

// NewService creates the pipeline service.
func NewService(uploader Uploader, extractor Extractor, aggregator *Aggregator, logger *zap.Logger) *Service {
	return &Service{uploader: uploader, extractor: extractor, aggregator: aggregator, logger: logger}
}

// RecommendText handles a free-text request.
func (s *Service) RecommendText(ctx context.Context, query string) (recommendation.Result, error) {
	return s.run(ctx, query, nil)
}

// RecommendImages hosts the images, then handles them together with the optional query.
func (s *Service) RecommendImages(
	ctx context.Context, query string, uploads []Upload,
) (recommendation.Result, error) {
	if len(uploads) == 0 || len(uploads) > dommedia.MaxImages {
		return recommendation.Result{}, fmt.Errorf("%w: expected 1 to %d images, got %d",
			domain.ErrInvalidImages, dommedia.MaxImages, len(uploads))
	}

	images := make([]dommedia.Image, 0, len(uploads))
	urls := make([]string, 0, len(uploads))
	for i, u := range uploads {
		if len(u.Data) == 0 {
			return recommendation.Result{}, fmt.Errorf("%w: image %d is empty", domain.ErrInvalidImages, i)
		}
		hosted, err := s.uploader.Upload(ctx, u.Data, u.ContentType)
		if err != nil {
			return recommendation.Result{}, fmt.Errorf("upload image %d: %w", i, err)
		}
		images = append(images, dommedia.NewBufferedImage(hosted, u.Data))
		urls = append(urls, hosted.URL)
	}

	res, err := s.run(ctx, query, images)
	if err != nil {
		return recommendation.Result{}, err
	}
	return res.WithImages(urls), nil
}

func (s *Service) run(ctx context.Context, query string, images []dommedia.Image) (recommendation.Result, error) {
	log := logger.FromContext(ctx, s.logger)

	ext, err := s.extractor.Extract(ctx, query, images)
	if err != nil {
		if ext.RawText != "" {
			return recommendation.Result{}, &Failure{RawText: ext.RawText, Err: err}
		}
		return recommendation.Result{}, err //nolint:wrapcheck // already wrapped by extractor
	}

	res, err := s.aggregator.Aggregate(ctx, ext.Intent)
	if err != nil {
		return recommendation.Result{}, &Failure{RawText: ext.RawText, Err: fmt.Errorf("aggregate: %w", err)}
	}

	if n := res.FailedTerms(); n > 0 {
		log.Info("Recommendations returned with failed terms",
			zap.Int("failed_terms", n),
			zap.Int("terms", len(res.Terms())),
		)
	}

	return res.WithRawText(ext.RawText), nil
}
