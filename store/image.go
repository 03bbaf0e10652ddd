package store

import (
	"context"
	"iter"

	"github.com/hupe1980/pqhash/blobstore"
)

// ImageStore keeps the raw image bytes the feature extraction stage reads.
type ImageStore struct {
	ks keyspace
}

// NewImageStore returns an ImageStore on blobs under "images/".
func NewImageStore(blobs blobstore.BlobStore) *ImageStore {
	return &ImageStore{ks: keyspace{blobs: blobs, prefix: "images/", ext: ".jpg"}}
}

func (s *ImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.ks.get(ctx, key)
}

func (s *ImageStore) Put(ctx context.Context, key string, data []byte) error {
	return s.ks.blobs.Put(ctx, s.ks.name(key), data)
}

func (s *ImageStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.ks.exists(ctx, key)
}

func (s *ImageStore) Keys(ctx context.Context) iter.Seq2[string, error] {
	return s.ks.keys(ctx)
}

func (s *ImageStore) Count(ctx context.Context) (int, error) {
	return s.ks.count(ctx)
}
