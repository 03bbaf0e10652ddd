package pqhash

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/pqhash/quantization"
	"github.com/hupe1980/pqhash/searchindex"
)

// Searcher answers similarity queries against the index of one model.
//
// A query vector is hashed with the model; documents sharing more hash tokens
// score higher. Optional text is matched against descriptions.
type Searcher struct {
	model     *quantization.Model
	modelName string
	indexName string
	index     searchindex.Index
	opts      options
}

// NewSearcher loads the model selected by WithModelName (or the latest one).
func NewSearcher(ctx context.Context, models ModelSource, index searchindex.Index, optFns ...Option) (*Searcher, error) {
	opts := applyOptions(optFns)

	name, err := models.Resolve(ctx, opts.modelName)
	if err != nil {
		return nil, fmt.Errorf("search: resolve model: %w", err)
	}

	model, err := models.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search: load model %s: %w", name, err)
	}

	return &Searcher{
		model:     model,
		modelName: name,
		indexName: searchindex.NormalizeName(name),
		index:     index,
		opts:      opts,
	}, nil
}

// ModelName returns the name of the model queries are hashed with.
func (s *Searcher) ModelName() string { return s.modelName }

// IndexName returns the name of the queried index.
func (s *Searcher) IndexName() string { return s.indexName }

// Search returns up to size hits for vector and text. A nil vector searches
// by text only. size <= 0 selects searchindex.DefaultSize.
func (s *Searcher) Search(ctx context.Context, vector []float32, text string, size int) (hits []searchindex.Hit, err error) {
	start := time.Now()
	defer func() {
		s.opts.logger.LogSearch(ctx, size, len(hits), err)
		s.opts.metricsCollector.RecordSearch(size, time.Since(start), err)
	}()

	q := searchindex.Query{
		Text: text,
		Size: size,
	}

	if vector != nil {
		hash, err := s.model.Predict(vector)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		q.Hash = hash.Tokens()
	}

	hits, err = s.index.Search(ctx, s.indexName, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return hits, nil
}
