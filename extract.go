package pqhash

import (
	"context"
	"fmt"
	"iter"

	"golang.org/x/time/rate"
)

// Embedder turns an encoded image into a feature vector.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, image []byte) ([]float32, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// ImageSource reads encoded images. *store.ImageStore implements it.
type ImageSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Keys(ctx context.Context) iter.Seq2[string, error]
}

// FeatureSink writes feature vectors. *store.FeatureStore implements it.
type FeatureSink interface {
	Put(ctx context.Context, key string, vec []float32) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FeatureExtractor embeds every stored image and writes its feature vector.
//
// Images whose features already exist are skipped, so an interrupted
// extraction resumes where it stopped.
type FeatureExtractor struct {
	images   ImageSource
	features FeatureSink
	embedder Embedder
	opts     options
}

// NewFeatureExtractor creates a FeatureExtractor.
// WithRateLimit caps embeddings per second.
func NewFeatureExtractor(images ImageSource, features FeatureSink, embedder Embedder, optFns ...Option) *FeatureExtractor {
	return &FeatureExtractor{
		images:   images,
		features: features,
		embedder: embedder,
		opts:     applyOptions(optFns),
	}
}

// Run extracts features for all images and returns the run report.
func (e *FeatureExtractor) Run(ctx context.Context) (*Report, error) {
	limiter := rate.NewLimiter(e.opts.rateLimit, 1)

	item := func(ctx context.Context, key string) Outcome {
		exists, err := e.features.Exists(ctx, key)
		if err != nil {
			return failed(key, StageCheck, err)
		}
		if exists {
			return skipped(key)
		}

		img, err := e.images.Get(ctx, key)
		if err != nil {
			return failed(key, StageLoad, err)
		}

		if err := limiter.Wait(ctx); err != nil {
			return failed(key, StageEmbed, err)
		}

		vec, err := e.embedder.Embed(ctx, img)
		if err != nil {
			return failed(key, StageEmbed, err)
		}

		if err := e.features.Put(ctx, key, vec); err != nil {
			return failed(key, StagePublish, err)
		}

		return processed(key)
	}

	opts := e.opts
	opts.logger = e.opts.logger.WithPipeline(PipelineExtract)

	report, err := runItems(ctx, PipelineExtract, e.images.Keys(ctx), &opts, item)
	finishRun(ctx, PipelineExtract, &opts, report, err)
	if err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}

	return report, nil
}
