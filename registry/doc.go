// Package registry stores named, immutable quantization model artifacts.
//
// Artifacts live at models/{name}.pqh in a blobstore.BlobStore. Names created
// with NewModelName sort lexicographically by creation time, so the latest
// model is the greatest name unless a Catalog says otherwise.
package registry
