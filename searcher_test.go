package pqhash

import (
	"context"
	"testing"

	"github.com/hupe1980/pqhash/quantization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearcher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	_, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)

	metrics := &BasicMetricsCollector{}
	s, err := NewSearcher(ctx, f.models, f.index, WithMetricsCollector(metrics))
	require.NoError(t, err)
	assert.Equal(t, testModel, s.ModelName())
	assert.Equal(t, f.indexName(), s.IndexName())

	t.Run("by vector", func(t *testing.T) {
		hits, err := s.Search(ctx, []float32{0.05, 0, 9, 9}, "", 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "a1", hits[0].ID)
		assert.Equal(t, "a2", hits[1].ID)
		assert.Equal(t, 2.0, hits[0].Score)
	})

	t.Run("by text", func(t *testing.T) {
		hits, err := s.Search(ctx, nil, "forest", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "b1", hits[0].ID)
	})

	t.Run("vector and text", func(t *testing.T) {
		hits, err := s.Search(ctx, corpus["b2"], "lake", 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "b2", hits[0].ID)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := s.Search(ctx, []float32{1, 2, 3}, "", 10)
		assert.ErrorIs(t, err, quantization.ErrShape)
	})

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchErrors)
}

func TestSearcherNoModel(t *testing.T) {
	f := newFixture(t)

	_, err := NewSearcher(context.Background(), f.models, f.index)
	assert.ErrorIs(t, err, ErrNoModel)
}
