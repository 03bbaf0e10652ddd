// Package store provides the typed keyspaces the pipeline reads and writes on
// top of a blobstore.BlobStore.
//
// Layout:
//
//	features/{key}.npy   feature vectors (NumPy float32 or float64)
//	images/{key}.jpg     raw image bytes
//	{name}.json          description mappings (item id -> text)
package store
