// Package quantization implements the partitioned vector-quantization hashing
// model.
//
// A Model splits every D-dimensional vector into nGroups contiguous slices of
// width D/nGroups and learns an independent k-means centroid set for each
// slice. Predict assigns every slice to its nearest centroid and encodes the
// ordered (group, cluster) pairs as a HashCode:
//
//	["0-12", "1-3", "2-250", ...]
//
// Vectors that are close in the original space are expected to share most
// group tokens, so the tokens can be indexed as keywords and searched with an
// ordinary term query.
//
// # Training
//
//	m, err := quantization.NewUntrained(256, 256, quantization.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	if err := m.Fit(ctx, vectors); err != nil {
//	    return err
//	}
//
// # Persistence
//
// A fitted model serializes to a single self-describing artifact. Loading the
// artifact reproduces Predict exactly:
//
//	data, _ := m.MarshalBinary()
//	loaded, _ := quantization.FromArtifact(data)
//
// The artifact layout (little-endian):
//
//	[magic "PQHM"][version u16][compression u8][reserved u8]
//	[payload length u32][payload crc32c u32][compressed payload]
//
//	payload: [metric u8][nGroups u32]
//	         nGroups x [index u32][k u32][dim u32][k*dim float32]
package quantization
