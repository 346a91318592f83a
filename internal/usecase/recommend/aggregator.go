// Package recommend fans an intent out into per-term catalog searches and merges the results.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
	"github.com/kailas-cloud/lookbook/internal/domain/recommendation"
	"github.com/kailas-cloud/lookbook/internal/logger"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// maxParallelTerms bounds the per-request fan-out.
const maxParallelTerms = domintent.MaxSearchTerms

// Options tunes one aggregation.
type Options struct {
	CandidatePool int
	Limit         int
	TermTimeout   time.Duration
}

// task is one search term bound to its slot in the result.
type task struct {
	index    int
	term     string
	category domintent.Category
}

// Aggregator runs the per-term embed + search fan-out.
type Aggregator struct {
	embed  Embedder
	search Searcher
	opts   Options
	logger *zap.Logger
}

// NewAggregator validates the options and creates an aggregator.
func NewAggregator(embed Embedder, search Searcher, opts Options, logger *zap.Logger) (*Aggregator, error) {
	if opts.Limit <= 0 || opts.CandidatePool < opts.Limit {
		return nil, fmt.Errorf("%w: pool=%d limit=%d", domain.ErrInvalidSearchParams, opts.CandidatePool, opts.Limit)
	}
	return &Aggregator{embed: embed, search: search, opts: opts, logger: logger}, nil
}

// Aggregate searches every term of the intent in parallel and merges the lists in term order.
// A failed term contributes nothing. When every term fails the result is empty and carries
// recommendation.SearchUnavailableMessage; per-term errors stay in Result.Terms.
func (a *Aggregator) Aggregate(ctx context.Context, in domintent.Intent) (recommendation.Result, error) {
	if in.Empty() {
		return recommendation.New(nil, in, "", recommendation.NoRecommendationsMessage, nil), nil
	}
	if !in.Category().IsValid() {
		return recommendation.Result{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, in.Category())
	}

	terms := in.SearchTerms()
	lists := make([][]domcat.Item, len(terms))
	outcomes := make([]recommendation.TermOutcome, len(terms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTerms)
	for i, term := range terms {
		t := task{index: i, term: term, category: in.Category()}
		g.Go(func() error {
			items, err := a.runTask(gctx, t)
			lists[t.index] = items
			outcomes[t.index] = recommendation.TermOutcome{Term: t.term, Items: len(items), Err: err}
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed == len(terms) {
		metrics.RecommendedItems.WithLabelValues(string(in.Category())).Observe(0)
		logger.FromContext(ctx, a.logger).Error("Every search term failed",
			zap.String("category", string(in.Category())),
			zap.Int("terms", failed),
			zap.Error(errors.Join(termErrors(outcomes)...)),
		)
		return recommendation.New(nil, in, "", recommendation.SearchUnavailableMessage, outcomes), nil
	}

	items := recommendation.Merge(lists)
	metrics.RecommendedItems.WithLabelValues(string(in.Category())).Observe(float64(len(items)))

	return recommendation.New(items, in, "", "", outcomes), nil
}

// runTask embeds and searches one term. Failures are logged and counted here.
func (a *Aggregator) runTask(ctx context.Context, t task) ([]domcat.Item, error) {
	if a.opts.TermTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.TermTimeout)
		defer cancel()
	}
	log := logger.FromContext(ctx, a.logger)
	category := string(t.category)

	emb, err := a.embed.Embed(ctx, t.term)
	if err != nil {
		metrics.TermSearchTotal.WithLabelValues(category, "embed_error").Inc()
		log.Warn("Term embedding failed",
			zap.Int("term_index", t.index),
			zap.String("term", t.term),
			zap.Error(err),
		)
		return nil, fmt.Errorf("term %q: %w", t.term, err)
	}

	items, err := a.search.Search(ctx, t.category, emb.Embedding, a.opts.CandidatePool, a.opts.Limit)
	if err != nil {
		metrics.TermSearchTotal.WithLabelValues(category, "search_error").Inc()
		log.Warn("Term search failed",
			zap.Int("term_index", t.index),
			zap.String("term", t.term),
			zap.Error(err),
		)
		return nil, fmt.Errorf("term %q: %w", t.term, err)
	}

	metrics.TermSearchTotal.WithLabelValues(category, "ok").Inc()
	return items, nil
}

func termErrors(outcomes []recommendation.TermOutcome) []error {
	errs := make([]error, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
