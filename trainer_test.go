package pqhash

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/pqhash/quantization"
	"github.com/hupe1980/pqhash/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainerTrain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	metrics := &BasicMetricsCollector{}

	name, err := NewTrainer(f.features, f.models, WithWorkers(2), WithMetricsCollector(metrics)).
		Train(ctx, TrainConfig{
			NumTrainingVectors: 4,
			NumGroups:          2,
			NumClusters:        2,
			Seed:               7,
		})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, registry.NamePrefix))

	m, err := f.models.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumGroups())
	assert.Equal(t, 2, m.NumClusters())
	assert.Equal(t, 4, m.Dimension())

	ha, err := m.Predict(corpus["a1"])
	require.NoError(t, err)
	hb, err := m.Predict(corpus["b1"])
	require.NoError(t, err)
	assert.False(t, ha.Equal(hb))

	latest, err := f.models.LatestName(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, latest)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.FitCount)
	assert.Equal(t, int64(4), stats.FitVectors)
}

func TestTrainerNotEnoughVectors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := NewTrainer(f.features, f.models).Train(ctx, TrainConfig{
		NumTrainingVectors: 5,
		NumGroups:          2,
		NumClusters:        2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnoughVectors)

	names, err := f.models.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTrainerNameCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	models := registry.New(f.blobs, func(o *registry.Options) {
		o.Now = func() time.Time { return now }
	})
	metrics := &BasicMetricsCollector{}
	tr := NewTrainer(f.features, models, WithMetricsCollector(metrics))
	cfg := TrainConfig{NumTrainingVectors: 4, NumGroups: 2, NumClusters: 2, Seed: 1}

	name, err := tr.Train(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "lsh-2024-03-01T12:30:00", name)

	_, err = tr.Train(ctx, cfg)
	require.ErrorIs(t, err, registry.ErrModelExists)
	assert.Equal(t, int64(1), metrics.GetStats().FitCount, "a taken name fails before fitting")
}

func TestTrainerConfigErrors(t *testing.T) {
	f := newFixture(t)
	tr := NewTrainer(f.features, f.models)

	tests := []struct {
		name string
		cfg  TrainConfig
	}{
		{"no vectors", TrainConfig{NumTrainingVectors: 0, NumGroups: 2, NumClusters: 2}},
		{"no groups", TrainConfig{NumTrainingVectors: 2, NumGroups: 0, NumClusters: 2}},
		{"no clusters", TrainConfig{NumTrainingVectors: 2, NumGroups: 2, NumClusters: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Train(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, quantization.ErrConfiguration)
		})
	}
}

func TestTrainerShapeError(t *testing.T) {
	f := newFixture(t)

	_, err := NewTrainer(f.features, f.models).Train(context.Background(), TrainConfig{
		NumTrainingVectors: 4,
		NumGroups:          3,
		NumClusters:        2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, quantization.ErrShape)
}

func TestTrainerLoadFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.blobs.Put(ctx, "features/broken.npy", []byte("garbage")))

	_, err := NewTrainer(f.features, f.models).Train(ctx, TrainConfig{
		NumTrainingVectors: 5,
		NumGroups:          2,
		NumClusters:        2,
	})
	require.Error(t, err)

	var ie *ItemError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "broken", ie.Key)
}

func TestTrainerSample(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := range 100 {
		require.NoError(t, f.features.Put(ctx, fmt.Sprintf("item-%03d", i), []float32{1, 2, 3, 4}))
	}

	tr := NewTrainer(f.features, f.models)

	t.Run("without replacement", func(t *testing.T) {
		keys, err := tr.sample(ctx, 50, 1)
		require.NoError(t, err)
		require.Len(t, keys, 50)

		seen := make(map[string]bool)
		for _, k := range keys {
			assert.False(t, seen[k], "duplicate key %s", k)
			seen[k] = true
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		k1, err := tr.sample(ctx, 10, 99)
		require.NoError(t, err)
		k2, err := tr.sample(ctx, 10, 99)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
	})

	t.Run("whole corpus", func(t *testing.T) {
		keys, err := tr.sample(ctx, 104, 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, keys, collectKeys(t, f))
	})
}

func collectKeys(t *testing.T, f *fixture) []string {
	t.Helper()
	var keys []string
	for k, err := range f.features.Keys(context.Background()) {
		require.NoError(t, err)
		keys = append(keys, k)
	}
	return keys
}
