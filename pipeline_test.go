package pqhash

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/pqhash/blobstore"
	"github.com/hupe1980/pqhash/quantization"
	"github.com/hupe1980/pqhash/registry"
	"github.com/hupe1980/pqhash/searchindex"
	"github.com/hupe1980/pqhash/searchindex/memory"
	"github.com/hupe1980/pqhash/store"
	"github.com/stretchr/testify/require"
)

const testModel = "lsh-2024-03-01T12:30:00"

var (
	corpus = map[string][]float32{
		"a1": {0, 0, 9, 9},
		"a2": {0.1, 0, 9, 9.1},
		"b1": {5, 5, 0, 0},
		"b2": {5.1, 5, 0, 0.1},
	}
	descriptions = map[string]string{
		"a1": "red sports car",
		"a2": "red vintage car",
		"b1": "green forest path",
		"b2": "green mountain lake",
	}
)

type fixture struct {
	blobs    *blobstore.MemoryStore
	features *store.FeatureStore
	metadata *store.MetadataStore
	models   *registry.Registry
	index    *memory.Index
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	blobs := blobstore.NewMemoryStore()
	f := &fixture{
		blobs:    blobs,
		features: store.NewFeatureStore(blobs),
		metadata: store.NewMetadataStore(blobs, nil),
		models:   registry.New(blobs),
		index:    memory.New(),
	}

	for key, vec := range corpus {
		require.NoError(t, f.features.Put(ctx, key, vec))
	}
	require.NoError(t, f.metadata.Save(ctx, descriptions, DefaultDescriptions))

	return f
}

func (f *fixture) saveModel(t *testing.T) *quantization.Model {
	t.Helper()

	m, err := quantization.NewUntrained(2, 2, quantization.WithSeed(42))
	require.NoError(t, err)

	keys := slices.Sorted(maps.Keys(corpus))
	vectors := make([][]float32, 0, len(keys))
	for _, k := range keys {
		vectors = append(vectors, corpus[k])
	}
	require.NoError(t, m.Fit(context.Background(), vectors))
	require.NoError(t, f.models.Save(context.Background(), testModel, m))

	return m
}

func (f *fixture) indexName() string { return searchindex.NormalizeName(testModel) }

// countingIndex counts every call that reaches the wrapped index.
type countingIndex struct {
	searchindex.Index
	calls atomic.Int32
}

func (c *countingIndex) IndexExists(ctx context.Context, index string) (bool, error) {
	c.calls.Add(1)
	return c.Index.IndexExists(ctx, index)
}

func (c *countingIndex) DeleteIndex(ctx context.Context, index string) error {
	c.calls.Add(1)
	return c.Index.DeleteIndex(ctx, index)
}

func (c *countingIndex) CreateIndex(ctx context.Context, index string) error {
	c.calls.Add(1)
	return c.Index.CreateIndex(ctx, index)
}

func (c *countingIndex) Upsert(ctx context.Context, index, id string, doc searchindex.Document) error {
	c.calls.Add(1)
	return c.Index.Upsert(ctx, index, id, doc)
}

func (c *countingIndex) DocumentExists(ctx context.Context, index, id string) (bool, error) {
	c.calls.Add(1)
	return c.Index.DocumentExists(ctx, index, id)
}

func (c *countingIndex) Search(ctx context.Context, index string, q searchindex.Query) ([]searchindex.Hit, error) {
	c.calls.Add(1)
	return c.Index.Search(ctx, index, q)
}

// unavailableIndex fails every index-level call.
type unavailableIndex struct {
	searchindex.Index
}

var errConnRefused = errors.New("connection refused")

func (unavailableIndex) IndexExists(context.Context, string) (bool, error) {
	return false, errConnRefused
}

// rejectingIndex fails upserts of one document id.
type rejectingIndex struct {
	searchindex.Index
	reject string
}

func (r rejectingIndex) Upsert(ctx context.Context, index, id string, doc searchindex.Document) error {
	if id == r.reject {
		return errConnRefused
	}
	return r.Index.Upsert(ctx, index, id, doc)
}
