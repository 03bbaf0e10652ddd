// Package pqhash turns image embeddings into compact hash codes that can be
// retrieved through a conventional keyword search index.
//
// A quantization model splits every D-dimensional feature vector into
// n_groups contiguous slices and clusters each slice independently. The
// nearest centroid of every slice yields one token "{group}-{cluster}"; the
// ordered tokens form the item's hash code. Vectors that are close in the
// original space share most tokens, so counting shared tokens in a keyword
// index approximates nearest-neighbor search.
//
// # Pipeline
//
//	extract  images  -> FeatureExtractor -> feature vectors (.npy)
//	train    vectors -> Trainer          -> model artifact (registry)
//	index    vectors -> IndexBuilder     -> search index documents
//	search   vector  -> Searcher         -> scored hits
//
// # Quick Start
//
//	blobs := blobstore.NewLocalStore("./data")
//	features := store.NewFeatureStore(blobs)
//	models := registry.New(blobs)
//
//	name, _ := pqhash.NewTrainer(features, models).Train(ctx, pqhash.TrainConfig{
//	    NumTrainingVectors: 10000,
//	    NumGroups:          256,
//	    NumClusters:        256,
//	})
//
//	b := pqhash.NewIndexBuilder(models, features, store.NewMetadataStore(blobs, nil), memory.New(),
//	    pqhash.WithModelName(name),
//	    pqhash.WithWorkers(8),
//	)
//	report, err := b.Run(ctx)
//
// # Failure Semantics
//
// Pipelines process items independently. A failing item becomes an
// *ItemError in the run Report and the run continues. Only preconditions are
// fatal: no model (ErrNoModel), an unreachable index (ErrIndexUnavailable),
// or a corpus too small to train on (ErrNotEnoughVectors).
//
// # Resumability
//
// WithResume makes the index builder keep an existing index and skip items
// already published. FeatureExtractor always skips items whose features exist.
package pqhash
