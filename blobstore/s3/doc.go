// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", func(o *s3.Options) {
//	    o.Prefix = "products/"
//	    o.Region = "eu-west-1"
//	    o.RoleARN = "arn:aws:iam::123456789012:role/pipeline"
//	})
//
// When RoleARN is set the store assumes the role through STS and caches the
// temporary credentials, refreshing them before expiry. Long-running
// pipelines therefore never hit expired tokens.
//
// # Features
//
//   - Single-request puts with CRC32C checksums for small blobs
//   - Multipart uploads for large blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
