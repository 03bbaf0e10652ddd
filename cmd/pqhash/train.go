package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pqhash"
	"github.com/hupe1980/pqhash/store"
)

var (
	// train command flags
	trainVectors  int
	trainGroups   int
	trainClusters int
	trainSeed     uint64
	trainWorkers  int
)

func init() {
	trainCmd.Flags().IntVar(&trainVectors, "n-training-vectors", 10000, "Number of feature vectors sampled for training")
	trainCmd.Flags().IntVar(&trainGroups, "n-groups", 256, "Number of partition groups (must divide the embedding dimension)")
	trainCmd.Flags().IntVar(&trainClusters, "n-clusters", 256, "Number of clusters per group")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "Seed for sampling and clustering (0 = random)")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 8, "Concurrent feature vector loads")
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a quantization model and save it to the registry",
	Long: `Sample feature vectors without replacement, fit one k-means clusterer per
partition group and save the model under a timestamped name.

Examples:
  # Train with defaults
  pqhash train

  # Small model
  pqhash train --n-training-vectors 2000 --n-groups 64 --n-clusters 32 --seed 1`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, _ []string) error {
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

	mopts, err := modelOptions(cfg)
	if err != nil {
		return err
	}

	trainer := pqhash.NewTrainer(store.NewFeatureStore(blobs), models,
		pqhash.WithWorkers(trainWorkers),
		pqhash.WithLogger(logger),
		pqhash.WithMetricsCollector(collector),
	)

	name, err := trainer.Train(ctx, pqhash.TrainConfig{
		NumTrainingVectors: trainVectors,
		NumGroups:          trainGroups,
		NumClusters:        trainClusters,
		Seed:               trainSeed,
		ModelOptions:       mopts,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
