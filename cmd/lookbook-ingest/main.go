package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/app"
	"github.com/kailas-cloud/lookbook/internal/config"
	dbRedis "github.com/kailas-cloud/lookbook/internal/db/redis"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
	logpkg "github.com/kailas-cloud/lookbook/internal/logger"
	"github.com/kailas-cloud/lookbook/internal/metrics"
	"github.com/kailas-cloud/lookbook/internal/repository/catalog"
	"github.com/kailas-cloud/lookbook/internal/usecase/ingest"
	"github.com/kailas-cloud/lookbook/internal/version"
)

type flags struct {
	env          string
	file         string
	format       string
	dryRun       bool
	skipExisting bool
	recreate     bool
	rate         float64
}

type itemFlags struct {
	category string
	id       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:          "lookbook-ingest",
		Short:        "Embed catalog items and load them into the lookbook collections",
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIngest(ctx, cmd, f)
		},
	}

	root.PersistentFlags().StringVar(&f.env, "env", "", "config environment (default: $ENV or local)")
	root.Flags().StringVarP(&f.file, "file", "f", "", "catalog file (.yaml, .yml or .jsonl)")
	root.Flags().StringVar(&f.format, "format", "", `input format, "yaml" or "jsonl" (default: from file extension)`)
	root.Flags().BoolVar(&f.dryRun, "dry-run", false, "validate and embed without writing to the store")
	root.Flags().BoolVar(&f.skipExisting, "skip-existing", false, "leave items already in the store untouched")
	root.Flags().BoolVar(&f.recreate, "recreate", false, "drop and rebuild each category index before writing")
	root.Flags().Float64Var(&f.rate, "rate", 0, "max embedding calls per second, 0 = unlimited (default: ingest.rate_per_second)")
	_ = root.MarkFlagRequired("file")
	root.MarkFlagsMutuallyExclusive("dry-run", "recreate")

	root.AddCommand(newGetCmd(&f), newDeleteCmd(&f))
	return root
}

func newGetCmd(root *flags) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print one stored catalog item as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := intent.ParseCategory(f.category)
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), root.env, func(_ *zap.Logger, router *catalog.Router) error {
				item, err := router.Get(cmd.Context(), c, f.id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ingest.Record{
					Category:    string(c),
					ID:          item.ID,
					Name:        item.Name,
					Price:       item.Price,
					ImageURL:    item.ImageURL,
					Description: item.Description,
				})
			})
		},
	}
	addItemFlags(cmd, &f)
	return cmd
}

func newDeleteCmd(root *flags) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove one catalog item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := intent.ParseCategory(f.category)
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), root.env, func(logger *zap.Logger, router *catalog.Router) error {
				if err := router.Delete(cmd.Context(), c, f.id); err != nil {
					return err
				}
				logger.Info("Deleted catalog item", zap.String("category", string(c)), zap.String("id", f.id))
				return nil
			})
		},
	}
	addItemFlags(cmd, &f)
	return cmd
}

func addItemFlags(cmd *cobra.Command, f *itemFlags) {
	cmd.Flags().StringVar(&f.category, "category", "", "item category (clothing or decor)")
	cmd.Flags().StringVar(&f.id, "id", "", "item id")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("id")
}

// session holds what every subcommand needs from config and the store.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	store  *dbRedis.Store
	router *catalog.Router
}

func openSession(ctx context.Context, env string) (*session, func(), error) {
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(logpkg.Options{Env: env, Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	logger = logger.Named("ingest")

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() {
		store.Close()
		_ = logger.Sync()
	}

	router, err := app.NewRouter(store, cfg.Catalog)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("configure catalog: %w", err)
	}
	return &session{cfg: cfg, logger: logger, store: store, router: router}, cleanup, nil
}

func withCatalog(ctx context.Context, env string, fn func(*zap.Logger, *catalog.Router) error) error {
	s, cleanup, err := openSession(ctx, env)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(s.logger, s.router)
}

func runIngest(ctx context.Context, cmd *cobra.Command, f flags) error {
	format, err := resolveFormat(f)
	if err != nil {
		return err
	}
	records, err := readFile(f.file, format)
	if err != nil {
		return err
	}

	s, cleanup, err := openSession(ctx, f.env)
	if err != nil {
		return err
	}
	defer cleanup()

	rate := s.cfg.Ingest.RatePerSecond
	if cmd.Flags().Changed("rate") {
		rate = f.rate
	}

	s.logger.Info("Starting ingest",
		zap.String("version", version.Version),
		zap.String("file", f.file),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
		zap.Float64("rate_per_second", rate),
		zap.Bool("dry_run", f.dryRun),
		zap.Bool("skip_existing", f.skipExisting),
		zap.Bool("recreate", f.recreate),
	)

	metrics.RegisterEmbeddingMetrics()

	base, err := app.BaseEmbedder(s.cfg.Embedding, s.logger)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	embedder := app.Embedder(base, s.cfg.Embedding, s.cfg.Embedding.DocumentInstruction, s.store, s.logger)

	svc, err := ingest.New(embedder, s.router, ingest.Options{
		Dimensions:    s.cfg.Embedding.Dimensions,
		RatePerSecond: rate,
		DryRun:        f.dryRun,
		SkipExisting:  f.skipExisting,
		Recreate:      f.recreate,
	}, s.logger)
	if err != nil {
		return err
	}

	rep, runErr := svc.Run(ctx, records)
	printReport(cmd, rep)
	if runErr != nil {
		return runErr
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", rep.Failed, len(records))
	}
	return nil
}

func resolveFormat(f flags) (ingest.Format, error) {
	switch f.format {
	case "":
		return ingest.FormatFromPath(f.file)
	case string(ingest.FormatYAML), "yml":
		return ingest.FormatYAML, nil
	case string(ingest.FormatJSONL):
		return ingest.FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown format %q", f.format)
	}
}

func readFile(path string, format ingest.Format) ([]ingest.Record, error) {
	fh, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer fh.Close()

	records, err := ingest.ReadRecords(fh, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func printReport(cmd *cobra.Command, rep ingest.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "succeeded: %d\nfailed:    %d\nskipped:   %d\n", rep.Succeeded, rep.Failed, rep.Skipped)
	for _, c := range rep.Created {
		fmt.Fprintf(out, "created index for %s\n", c)
	}
	for _, err := range rep.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
	}
}
