package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/pqhash/blobstore"
	"github.com/hupe1980/pqhash/codec"
)

// MetadataStore loads and saves string mappings such as item descriptions.
type MetadataStore struct {
	blobs blobstore.BlobStore
	codec codec.Codec
}

// NewMetadataStore returns a MetadataStore. A nil codec selects codec.Default.
func NewMetadataStore(blobs blobstore.BlobStore, c codec.Codec) *MetadataStore {
	if c == nil {
		c = codec.Default
	}
	return &MetadataStore{blobs: blobs, codec: c}
}

// Load reads the mapping stored as {name}.json.
func (s *MetadataStore) Load(ctx context.Context, name string) (map[string]string, error) {
	data, err := s.blobs.Get(ctx, name+".json")
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("metadata %s: %w", name, ErrNotFound)
		}
		return nil, err
	}

	var m map[string]string
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", name, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Save writes mapping as {name}.json, replacing previous content.
func (s *MetadataStore) Save(ctx context.Context, mapping map[string]string, name string) error {
	data, err := s.codec.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("metadata %s: %w", name, err)
	}
	return s.blobs.Put(ctx, name+".json", data)
}
