package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/pqhash/blobstore"
	"github.com/sbinet/npyio"
)

// ErrInvalidFeature is returned when a stored array is not a single vector
// of float32 or float64 values.
var ErrInvalidFeature = errors.New("store: invalid feature array")

// FeatureStore keeps one feature vector per item key as a NumPy array.
//
// Safe for concurrent use when the underlying BlobStore is.
type FeatureStore struct {
	ks keyspace
}

// NewFeatureStore returns a FeatureStore on blobs under "features/".
func NewFeatureStore(blobs blobstore.BlobStore) *FeatureStore {
	return &FeatureStore{ks: keyspace{blobs: blobs, prefix: "features/", ext: ".npy"}}
}

// Get loads the feature vector of key.
func (s *FeatureStore) Get(ctx context.Context, key string) ([]float32, error) {
	data, err := s.ks.get(ctx, key)
	if err != nil {
		return nil, err
	}
	vec, err := DecodeVector(data)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", key, err)
	}
	return vec, nil
}

// Put stores vec as a 1-D float32 array.
func (s *FeatureStore) Put(ctx context.Context, key string, vec []float32) error {
	data, err := EncodeVector(vec)
	if err != nil {
		return err
	}
	return s.ks.blobs.Put(ctx, s.ks.name(key), data)
}

// Exists reports whether key has a stored vector.
func (s *FeatureStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.ks.exists(ctx, key)
}

// Keys yields every item key once, in lexical order. A listing failure is
// yielded as the final element.
func (s *FeatureStore) Keys(ctx context.Context) iter.Seq2[string, error] {
	return s.ks.keys(ctx)
}

// Count returns the number of stored vectors.
func (s *FeatureStore) Count(ctx context.Context) (int, error) {
	return s.ks.count(ctx)
}

// EncodeVector serializes vec as a NumPy .npy float32 array.
func EncodeVector(vec []float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := npyio.Write(&buf, vec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeVector parses a NumPy array holding one vector. Shapes (D) and
// (1, D) are accepted; float64 data is narrowed to float32.
func DecodeVector(data []byte) ([]float32, error) {
	r, err := npyio.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeature, err)
	}

	shape := r.Header.Descr.Shape
	switch {
	case len(shape) == 1:
	case len(shape) == 2 && shape[0] == 1:
	default:
		return nil, fmt.Errorf("%w: shape %v is not a single vector", ErrInvalidFeature, shape)
	}

	switch r.Header.Descr.Type {
	case "<f4":
		var vec []float32
		if err := r.Read(&vec); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFeature, err)
		}
		return vec, nil
	case "<f8":
		var raw []float64
		if err := r.Read(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFeature, err)
		}
		vec := make([]float32, len(raw))
		for i, v := range raw {
			vec[i] = float32(v)
		}
		return vec, nil
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrInvalidFeature, r.Header.Descr.Type)
	}
}
