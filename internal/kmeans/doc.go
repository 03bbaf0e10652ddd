// Package kmeans implements k-means clustering for quantization training.
//
// Used by the quantization model to learn one centroid set per partition group.
// Training is deterministic for a given random source.
package kmeans
