package blobstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingStore wraps a BlobStore and keeps recently read blobs in an LRU.
//
// It suits read-mostly keys such as model artifacts and metadata documents.
// Writes and deletes through the wrapper invalidate the entry; writes that
// bypass it are not observed.
type CachingStore struct {
	inner BlobStore
	cache *lru.Cache[string, []byte]
}

// NewCachingStore creates a new CachingStore holding up to size blobs.
// size defaults to 64 if <= 0.
func NewCachingStore(inner BlobStore, size int) (*CachingStore, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cache: c}, nil
}

// Get serves a blob from the cache, falling back to the inner store.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.cache.Get(name); ok {
		return clone(data), nil
	}
	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, clone(data))
	return data, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) Exists(ctx context.Context, name string) (bool, error) {
	if s.cache.Contains(name) {
		return true, nil
	}
	return s.inner.Exists(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
