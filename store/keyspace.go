package store

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/hupe1980/pqhash/blobstore"
)

// ErrNotFound is returned when a key does not exist.
// It is the same value as blobstore.ErrNotFound.
var ErrNotFound = blobstore.ErrNotFound

// keyspace maps item keys to blob names of the form prefix + key + ext.
type keyspace struct {
	blobs  blobstore.BlobStore
	prefix string
	ext    string
}

func (k keyspace) name(key string) string {
	return k.prefix + key + k.ext
}

func (k keyspace) key(name string) (string, bool) {
	if !strings.HasPrefix(name, k.prefix) || !strings.HasSuffix(name, k.ext) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, k.prefix), k.ext)
	// Nested paths are not item keys.
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func (k keyspace) get(ctx context.Context, key string) ([]byte, error) {
	data, err := k.blobs.Get(ctx, k.name(key))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (k keyspace) exists(ctx context.Context, key string) (bool, error) {
	return k.blobs.Exists(ctx, k.name(key))
}

// keys yields every key once. The listing is taken when iteration starts.
func (k keyspace) keys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		names, err := k.blobs.List(ctx, k.prefix)
		if err != nil {
			yield("", err)
			return
		}
		for _, name := range names {
			key, ok := k.key(name)
			if !ok {
				continue
			}
			if !yield(key, nil) {
				return
			}
		}
	}
}

func (k keyspace) count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range k.keys(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
