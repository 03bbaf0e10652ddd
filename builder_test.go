package pqhash

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/pqhash/searchindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexBuilderRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.saveModel(t)

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Processed)
	assert.Zero(t, report.Failed)
	assert.True(t, report.OK())

	for key, vec := range corpus {
		doc, ok := f.index.Get(ctx, f.indexName(), key)
		require.True(t, ok, key)

		want, err := m.Predict(vec)
		require.NoError(t, err)
		assert.Equal(t, want.Tokens(), doc.Hash)
		assert.Equal(t, descriptions[key], doc.Description)
	}
}

func TestIndexBuilderMissingDescription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	require.NoError(t, f.features.Put(ctx, "orphan", []float32{0, 0, 9, 9}))

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], ErrMissingDescription)

	var ie *ItemError
	require.ErrorAs(t, report.Errors[0], &ie)
	assert.Equal(t, "orphan", ie.Key)
	assert.Equal(t, StageDescribe, ie.Stage)

	_, ok := f.index.Get(ctx, f.indexName(), "orphan")
	assert.False(t, ok)

	n, err := f.index.Count(ctx, f.indexName())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestIndexBuilderEmptyRegistry(t *testing.T) {
	f := newFixture(t)
	spy := &countingIndex{Index: f.index}

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, spy).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoModel)
	assert.Nil(t, report)
	assert.Zero(t, spy.calls.Load())
}

func TestIndexBuilderUnknownModel(t *testing.T) {
	f := newFixture(t)
	f.saveModel(t)
	spy := &countingIndex{Index: f.index}

	_, err := NewIndexBuilder(f.models, f.features, f.metadata, spy, WithModelName("lsh-1999-01-01T00:00:00")).
		Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, spy.calls.Load())
}

func TestIndexBuilderIndexUnavailable(t *testing.T) {
	f := newFixture(t)
	f.saveModel(t)

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, unavailableIndex{}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.ErrorIs(t, err, errConnRefused)
	assert.Nil(t, report)
}

func TestIndexBuilderRecreatesIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	require.NoError(t, f.index.CreateIndex(ctx, f.indexName()))
	require.NoError(t, f.index.Upsert(ctx, f.indexName(), "stale", searchindex.Document{Description: "old"}))

	_, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)

	_, ok := f.index.Get(ctx, f.indexName(), "stale")
	assert.False(t, ok)
}

func TestIndexBuilderResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	b := NewIndexBuilder(f.models, f.features, f.metadata, f.index, WithResume(true))

	first, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Processed)

	before := make(map[string]searchindex.Document)
	for key := range corpus {
		doc, ok := f.index.Get(ctx, f.indexName(), key)
		require.True(t, ok)
		before[key] = doc
	}

	second, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Equal(t, 4, second.Skipped)
	assert.Zero(t, second.Failed)

	for key, want := range before {
		doc, ok := f.index.Get(ctx, f.indexName(), key)
		require.True(t, ok)
		assert.Equal(t, want, doc)
	}
}

func TestIndexBuilderResumeKeepsPartialIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	require.NoError(t, f.index.CreateIndex(ctx, f.indexName()))
	require.NoError(t, f.index.Upsert(ctx, f.indexName(), "a1", searchindex.Document{Description: "done"}))

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index, WithResume(true)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Skipped)

	doc, ok := f.index.Get(ctx, f.indexName(), "a1")
	require.True(t, ok)
	assert.Equal(t, "done", doc.Description)
}

func TestIndexBuilderLoadFailureContinues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	require.NoError(t, f.blobs.Put(ctx, "features/broken.npy", []byte("not a numpy file")))

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Failed)

	var ie *ItemError
	require.ErrorAs(t, report.Errors[0], &ie)
	assert.Equal(t, "broken", ie.Key)
	assert.Equal(t, StageLoad, ie.Stage)
}

func TestIndexBuilderPredictFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	require.NoError(t, f.features.Put(ctx, "short", []float32{1, 2}))

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	var ie *ItemError
	require.ErrorAs(t, report.Errors[0], &ie)
	assert.Equal(t, StagePredict, ie.Stage)
}

func TestIndexBuilderPublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	idx := rejectingIndex{Index: f.index, reject: "b1"}

	report, err := NewIndexBuilder(f.models, f.features, f.metadata, idx).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.ErrorIs(t, report.Errors[0], errConnRefused)

	_, ok := f.index.Get(ctx, f.indexName(), "b2")
	assert.True(t, ok)
}

func TestIndexBuilderWorkers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.saveModel(t)

	for i := range 50 {
		key := "extra-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		require.NoError(t, f.features.Put(ctx, key, []float32{0, 0, 9, 9}))
	}

	metrics := &BasicMetricsCollector{}
	report, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index,
		WithWorkers(4),
		WithRateLimit(0),
		WithMetricsCollector(metrics),
	).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 54, report.Total)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 50, report.Failed)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.ItemsProcessed)
	assert.Equal(t, int64(50), stats.ItemsFailed)
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Zero(t, stats.RunErrors)
}

func TestIndexBuilderCancelled(t *testing.T) {
	f := newFixture(t)
	f.saveModel(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIndexBuilder(f.models, f.features, f.metadata, f.index).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
