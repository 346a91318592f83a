// Package ingest backfills catalog collections: it embeds item descriptions and stores
// each item with its vector.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
)

// Report summarizes one ingest run.
type Report struct {
	Succeeded int
	Failed    int
	Skipped   int
	Created   []domintent.Category // categories whose index was created by this run
	Errors    []error
}

// Options tunes an ingest run.
type Options struct {
	// Dimensions is the vector size of the collections' HNSW index.
	Dimensions int
	// RatePerSecond caps embedding calls; <= 0 disables the limit.
	RatePerSecond float64
	// DryRun validates and embeds without writing.
	DryRun bool
	// SkipExisting leaves items already in the store untouched, so an
	// interrupted run can resume without paying for embeddings twice.
	SkipExisting bool
	// Recreate drops each category's index before the first write. Stored
	// items survive and are re-indexed under the new definition.
	Recreate bool
}

// Service runs catalog ingests.
type Service struct {
	embed   Embedder
	catalog Catalog
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates an ingest service.
func New(embed Embedder, catalog Catalog, opts Options, logger *zap.Logger) (*Service, error) {
	if opts.Dimensions <= 0 {
		return nil, errors.New("ingest: dimensions must be positive")
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &Service{embed: embed, catalog: catalog, opts: opts, limiter: limiter, logger: logger}, nil
}

// Run ingests every record. Per-item failures are counted and the run continues;
// only context cancellation aborts it.
func (s *Service) Run(ctx context.Context, records []Record) (Report, error) {
	var rep Report
	ensured := make(map[domintent.Category]bool, len(domintent.Categories()))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("ingest interrupted at record %d: %w", i, err)
		}

		category, item, err := validate(rec)
		if err != nil {
			rep.fail(fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if strings.TrimSpace(item.Description) == "" {
			rep.Skipped++
			s.logger.Debug("Skipping item without description", zap.String("id", item.ID))
			continue
		}

		if s.opts.SkipExisting {
			exists, err := s.catalog.Exists(ctx, category, item.ID)
			if err != nil {
				rep.fail(fmt.Errorf("check %s: %w", item.ID, err))
				continue
			}
			if exists {
				rep.Skipped++
				continue
			}
		}

		if !ensured[category] && !s.opts.DryRun {
			if s.opts.Recreate {
				if err := s.catalog.DropIndex(ctx, category); err != nil {
					return rep, fmt.Errorf("drop index for %s: %w", category, err)
				}
			}
			created, err := s.catalog.EnsureIndex(ctx, category, s.opts.Dimensions)
			if err != nil {
				return rep, fmt.Errorf("ensure index for %s: %w", category, err)
			}
			if created {
				rep.Created = append(rep.Created, category)
				s.logger.Info("Created catalog index", zap.String("category", string(category)))
			}
			ensured[category] = true
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return rep, fmt.Errorf("rate limiter: %w", err)
		}

		emb, err := s.embed.Embed(ctx, item.Description)
		if err != nil {
			rep.fail(fmt.Errorf("embed %s: %w", item.ID, err))
			s.logger.Warn("Embedding failed", zap.String("id", item.ID), zap.Error(err))
			continue
		}

		if !s.opts.DryRun {
			if err := s.catalog.Upsert(ctx, category, item, emb.Embedding); err != nil {
				rep.fail(fmt.Errorf("upsert %s: %w", item.ID, err))
				s.logger.Warn("Upsert failed", zap.String("id", item.ID), zap.Error(err))
				continue
			}
		}
		rep.Succeeded++
	}

	s.logger.Info("Ingest finished",
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

func (r *Report) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

func validate(rec Record) (domintent.Category, domcat.Item, error) {
	category, err := domintent.ParseCategory(rec.Category)
	if err != nil {
		return "", domcat.Item{}, err //nolint:wrapcheck // already carries the value
	}
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return "", domcat.Item{}, errors.New("id is required")
	}
	return category, domcat.Item{
		ID:          id,
		Name:        strings.TrimSpace(rec.Name),
		Price:       strings.TrimSpace(rec.Price),
		ImageURL:    strings.TrimSpace(rec.ImageURL),
		Description: strings.TrimSpace(rec.Description),
	}, nil
}
