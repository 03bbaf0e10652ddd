package pqhash

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"golang.org/x/time/rate"

	"github.com/hupe1980/pqhash/quantization"
	"github.com/hupe1980/pqhash/searchindex"
)

// ModelSource resolves and loads model artifacts. *registry.Registry implements it.
type ModelSource interface {
	// Resolve returns name when it is non-empty and the latest model name otherwise.
	Resolve(ctx context.Context, name string) (string, error)
	// Load decodes the artifact stored under name.
	Load(ctx context.Context, name string) (*quantization.Model, error)
}

// FeatureSource reads feature vectors. *store.FeatureStore implements it.
type FeatureSource interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Keys(ctx context.Context) iter.Seq2[string, error]
}

// DescriptionSource loads item_id -> description mappings. *store.MetadataStore implements it.
type DescriptionSource interface {
	Load(ctx context.Context, name string) (map[string]string, error)
}

// IndexBuilder hashes every feature vector with a fitted model and publishes
// the hash tokens together with the item description to a search index.
//
// Per-item failures are recorded in the Report and never abort the run. Only
// a missing model or an unavailable destination index is fatal.
type IndexBuilder struct {
	models   ModelSource
	features FeatureSource
	metadata DescriptionSource
	index    searchindex.Index
	opts     options
}

// NewIndexBuilder creates an IndexBuilder.
func NewIndexBuilder(models ModelSource, features FeatureSource, metadata DescriptionSource, index searchindex.Index, optFns ...Option) *IndexBuilder {
	return &IndexBuilder{
		models:   models,
		features: features,
		metadata: metadata,
		index:    index,
		opts:     applyOptions(optFns),
	}
}

// Run executes one indexing run and returns its report.
//
// The model is resolved before the index is touched, so an empty registry
// leaves the search index unchanged. A non-nil report is returned with every
// error that occurs after item processing started.
func (b *IndexBuilder) Run(ctx context.Context) (*Report, error) {
	name, err := b.models.Resolve(ctx, b.opts.modelName)
	if err != nil {
		if errors.Is(err, ErrNoModel) {
			return nil, fmt.Errorf("index: %w", err)
		}
		return nil, fmt.Errorf("index: resolve model: %w", err)
	}

	model, err := b.models.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("index: load model %s: %w", name, err)
	}

	descriptions, err := b.metadata.Load(ctx, b.opts.descriptions)
	if err != nil {
		return nil, fmt.Errorf("index: load %s: %w", b.opts.descriptions, err)
	}

	indexName := searchindex.NormalizeName(name)
	logger := b.opts.logger.WithPipeline(PipelineIndex).WithModel(name).WithIndex(indexName)

	if err := b.prepareIndex(ctx, indexName); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "indexing started",
		"descriptions", len(descriptions),
		"resume", b.opts.resume,
		"workers", b.opts.workers,
	)

	limiter := rate.NewLimiter(b.opts.rateLimit, 1)

	item := func(ctx context.Context, key string) Outcome {
		if b.opts.resume {
			exists, err := b.index.DocumentExists(ctx, indexName, key)
			if err != nil {
				return failed(key, StageCheck, err)
			}
			if exists {
				return skipped(key)
			}
		}

		vec, err := b.features.Get(ctx, key)
		if err != nil {
			return failed(key, StageLoad, err)
		}

		hash, err := model.Predict(vec)
		if err != nil {
			return failed(key, StagePredict, err)
		}

		desc, ok := descriptions[key]
		if !ok {
			return failed(key, StageDescribe, ErrMissingDescription)
		}

		if err := limiter.Wait(ctx); err != nil {
			return failed(key, StagePublish, err)
		}

		doc := searchindex.Document{
			Hash:        hash.Tokens(),
			Description: desc,
		}
		if err := b.index.Upsert(ctx, indexName, key, doc); err != nil {
			return failed(key, StagePublish, err)
		}

		return processed(key)
	}

	opts := b.opts
	opts.logger = logger

	report, err := runItems(ctx, PipelineIndex, b.features.Keys(ctx), &opts, item)
	finishRun(ctx, PipelineIndex, &opts, report, err)
	if err != nil {
		return report, fmt.Errorf("index: %w", err)
	}

	return report, nil
}

// prepareIndex recreates the destination index, or keeps it in resume mode.
func (b *IndexBuilder) prepareIndex(ctx context.Context, name string) error {
	exists, err := b.index.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, name, err)
	}

	if exists && b.opts.resume {
		return nil
	}

	if exists {
		if err := b.index.DeleteIndex(ctx, name); err != nil {
			return fmt.Errorf("%w: delete %s: %w", ErrIndexUnavailable, name, err)
		}
	}

	if err := b.index.CreateIndex(ctx, name); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIndexUnavailable, name, err)
	}

	return nil
}
