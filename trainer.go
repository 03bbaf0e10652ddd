package pqhash

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pqhash/quantization"
)

// ModelSink persists fitted models. *registry.Registry implements it.
type ModelSink interface {
	// NextName returns a free name derived from the current time.
	NextName(ctx context.Context) (string, error)
	// Save stores m under name.
	Save(ctx context.Context, name string, m *quantization.Model) error
}

// TrainConfig configures a training run.
type TrainConfig struct {
	// NumTrainingVectors is the number of feature vectors sampled for the fit.
	NumTrainingVectors int
	// NumGroups is the number of partition groups; it must divide the dimensionality.
	NumGroups int
	// NumClusters is the number of centroids per group.
	NumClusters int
	// Seed makes sampling and the fit deterministic. Zero picks a random seed.
	Seed uint64
	// ModelOptions are passed to quantization.NewUntrained.
	ModelOptions []quantization.Option
}

// Trainer samples feature vectors, fits a quantization model and saves it.
type Trainer struct {
	features FeatureSource
	models   ModelSink
	opts     options
}

// NewTrainer creates a Trainer. WithWorkers bounds concurrent vector loads.
func NewTrainer(features FeatureSource, models ModelSink, optFns ...Option) *Trainer {
	return &Trainer{
		features: features,
		models:   models,
		opts:     applyOptions(optFns),
	}
}

// Train runs one training job and returns the name of the saved model.
//
// Vectors are sampled without replacement from the full corpus. The run fails
// with ErrNotEnoughVectors when the corpus holds fewer vectors than requested.
func (t *Trainer) Train(ctx context.Context, cfg TrainConfig) (string, error) {
	if cfg.NumTrainingVectors <= 0 {
		return "", fmt.Errorf("train: %w: n_training_vectors must be positive, got %d",
			quantization.ErrConfiguration, cfg.NumTrainingVectors)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	mopts := append([]quantization.Option{quantization.WithSeed(seed)}, cfg.ModelOptions...)

	model, err := quantization.NewUntrained(cfg.NumGroups, cfg.NumClusters, mopts...)
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	logger := t.opts.logger.WithPipeline(PipelineTrain)

	// Model names have one-second resolution; fail before the fit on a collision.
	name, err := t.models.NextName(ctx)
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	keys, err := t.sample(ctx, cfg.NumTrainingVectors, seed)
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	vectors, err := t.load(ctx, keys)
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	start := time.Now()
	err = model.Fit(ctx, vectors)
	elapsed := time.Since(start)

	logger.LogFit(ctx, len(vectors), cfg.NumGroups, cfg.NumClusters, elapsed, err)
	t.opts.metricsCollector.RecordFit(len(vectors), elapsed, err)

	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	if err := t.models.Save(ctx, name, model); err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	logger.WithModel(name).InfoContext(ctx, "model saved")

	return name, nil
}

// sample draws n keys uniformly without replacement in one pass (reservoir sampling).
func (t *Trainer) sample(ctx context.Context, n int, seed uint64) ([]string, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	reservoir := make([]string, 0, n)
	seen := 0

	for key, err := range t.features.Keys(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list features: %w", err)
		}

		if seen < n {
			reservoir = append(reservoir, key)
		} else if j := rng.IntN(seen + 1); j < n {
			reservoir[j] = key
		}
		seen++
	}

	if seen < n {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrNotEnoughVectors, n, seen)
	}

	return reservoir, nil
}

// load reads the sampled vectors concurrently. Any load failure fails training.
func (t *Trainer) load(ctx context.Context, keys []string) ([][]float32, error) {
	vectors := make([][]float32, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.workers)

	for i, key := range keys {
		g.Go(func() error {
			vec, err := t.features.Get(gctx, key)
			if err != nil {
				return &ItemError{Key: key, Stage: StageLoad, Err: err}
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load training vector: %w", err)
	}

	return vectors, nil
}
