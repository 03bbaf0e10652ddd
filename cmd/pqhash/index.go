package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pqhash"
	"github.com/hupe1980/pqhash/store"
)

var (
	// index command flags
	indexModel        string
	indexDescriptions string
	indexResume       bool
	indexWorkers      int
)

func init() {
	indexCmd.Flags().StringVar(&indexModel, "model", "", "Model name (default: model.name or the latest model)")
	indexCmd.Flags().StringVar(&indexDescriptions, "descriptions", pqhash.DefaultDescriptions, "Name of the description mapping")
	indexCmd.Flags().BoolVar(&indexResume, "resume", false, "Keep an existing index and skip published items")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "Concurrent items (default: search.workers)")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Hash every feature vector and publish it to the search index",
	Long: `Hash every stored feature vector with a model and upsert it, together with
its description, into the search index named after the model.

Failing items are reported and skipped. The command only fails when no model
can be found or the search index is unreachable.

Examples:
  # Index with the latest model
  pqhash index

  # Resume an interrupted run of a specific model
  pqhash index --model lsh-2024-03-01T12:30:00 --resume --workers 16`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	collector, shutdown, err := startMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	models, err := newRegistry(ctx, cfg, blobs)
	if err != nil {
		return err
	}

	index, err := newSearchIndex(cfg.Search)
	if err != nil {
		return err
	}

	model := indexModel
	if model == "" {
		model = cfg.Model.Name
	}
	workers := indexWorkers
	if workers == 0 {
		workers = cfg.Search.Workers
	}

	builder := pqhash.NewIndexBuilder(models, store.NewFeatureStore(blobs), store.NewMetadataStore(blobs, nil), index,
		pqhash.WithModelName(model),
		pqhash.WithDescriptions(indexDescriptions),
		pqhash.WithResume(indexResume),
		pqhash.WithWorkers(workers),
		pqhash.WithRateLimit(cfg.Search.RateLimit),
		pqhash.WithLogger(logger),
		pqhash.WithMetricsCollector(collector),
	)

	report, err := builder.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed=%d skipped=%d failed=%d\n", report.Processed, report.Skipped, report.Failed)
	return nil
}
