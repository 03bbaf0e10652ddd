// Package blobstore provides the storage abstraction for features, images,
// metadata documents and model artifacts.
//
// BlobStore is a flat keyspace of immutable-by-convention byte blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic temp-file writes
//   - MemoryStore: In-process map, for tests
//   - CachingStore: LRU read cache in front of another store
//   - s3.Store: Amazon S3 (optionally through an assumed role)
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    Exists(ctx, name) (bool, error)
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs must be reported with an error satisfying
// errors.Is(err, ErrNotFound).
package blobstore
