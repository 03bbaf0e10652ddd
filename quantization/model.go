package quantization

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/hupe1980/pqhash/distance"
	"github.com/hupe1980/pqhash/internal/kmeans"
	"golang.org/x/sync/errgroup"
)

// Model is the partitioned quantization hashing model.
//
// A fitted or loaded Model is safe for concurrent Predict calls. Fit must
// not run concurrently with any other method.
type Model struct {
	numGroups   int
	numClusters int
	dimension   int
	opts        options
	groups      []*GroupQuantizer
}

// NewUntrained creates a model in training mode.
func NewUntrained(numGroups, numClusters int, optFns ...Option) (*Model, error) {
	if numGroups <= 0 || numClusters <= 0 {
		return nil, fmt.Errorf("%w: numGroups (%d) and numClusters (%d) must be positive", ErrConfiguration, numGroups, numClusters)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := distance.Provider(opts.metric); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if opts.maxIter <= 0 || opts.restarts <= 0 || opts.tolerance < 0 {
		return nil, fmt.Errorf("%w: maxIterations and restarts must be positive, tolerance non-negative", ErrConfiguration)
	}
	if opts.parallelism <= 0 {
		opts.parallelism = 1
	}
	if !opts.seeded {
		opts.seed = rand.Uint64()
	}

	return &Model{
		numGroups:   numGroups,
		numClusters: numClusters,
		opts:        opts,
	}, nil
}

// FromArtifact creates a model in loaded mode from serialized bytes.
func FromArtifact(data []byte, optFns ...Option) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	m := &Model{opts: opts}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

// FromReader reads a full artifact from r.
func FromReader(r io.Reader, optFns ...Option) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromArtifact(data, optFns...)
}

// FromFile loads an artifact from the local filesystem.
func FromFile(path string, optFns ...Option) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromArtifact(data, optFns...)
}

// NumGroups returns the number of partition groups.
func (m *Model) NumGroups() int { return m.numGroups }

// NumClusters returns the number of centroids per group.
func (m *Model) NumClusters() int { return m.numClusters }

// Dimension returns the vector dimensionality, or 0 before fitting.
func (m *Model) Dimension() int { return m.dimension }

// Metric returns the assignment distance.
func (m *Model) Metric() distance.Metric { return m.opts.metric }

// IsFitted reports whether the model holds trained or loaded groups.
func (m *Model) IsFitted() bool { return len(m.groups) > 0 }

// Groups returns the group quantizers in order.
func (m *Model) Groups() []*GroupQuantizer {
	out := make([]*GroupQuantizer, len(m.groups))
	copy(out, m.groups)
	return out
}

// Fit trains one k-means clusterer per group.
//
// Every vector must have the same dimensionality D and D must be divisible by
// the number of groups. Groups are fitted concurrently; if any group fails the
// model keeps its previous state.
func (m *Model) Fit(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return ErrNoTrainingData
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return &ShapeError{Dimension: len(v), Expected: dim, Reason: fmt.Sprintf("training vector %d has %d dimensions, expected %d", i, len(v), dim)}
		}
	}
	if dim == 0 || dim%m.numGroups != 0 {
		return &ShapeError{Dimension: dim, NumGroups: m.numGroups}
	}

	subDim := dim / m.numGroups
	n := len(vectors)
	groups := make([]*GroupQuantizer, m.numGroups)

	cfg := kmeans.Config{
		K:         m.numClusters,
		Metric:    m.opts.metric,
		MaxIter:   m.opts.maxIter,
		Tolerance: m.opts.tolerance,
		Restarts:  m.opts.restarts,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.parallelism)

	for gi := 0; gi < m.numGroups; gi++ {
		g.Go(func() error {
			start := gi * subDim
			flat := make([]float32, n*subDim)
			for i, v := range vectors {
				copy(flat[i*subDim:(i+1)*subDim], v[start:start+subDim])
			}

			rng := rand.New(rand.NewPCG(m.opts.seed, uint64(gi)))
			res, err := kmeans.Train(gctx, flat, subDim, cfg, rng)
			if err != nil {
				return fmt.Errorf("fit group %d: %w", gi, err)
			}

			gq, err := newGroupQuantizer(gi, m.numClusters, subDim, m.opts.metric, res.Centroids)
			if err != nil {
				return fmt.Errorf("fit group %d: %w", gi, err)
			}
			groups[gi] = gq
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.groups = groups
	m.dimension = dim
	return nil
}

// Predict returns the HashCode of vec.
func (m *Model) Predict(vec []float32) (HashCode, error) {
	if !m.IsFitted() {
		return nil, ErrNotFitted
	}
	if len(vec) != m.dimension {
		return nil, &ShapeError{Dimension: len(vec), Expected: m.dimension}
	}

	clusters := make([]int, len(m.groups))
	for i, g := range m.groups {
		start := i * g.dim
		clusters[i] = g.Assign(vec[start : start+g.dim])
	}
	return Encode(clusters), nil
}

// PredictBatch predicts every vector, failing on the first error.
func (m *Model) PredictBatch(vecs [][]float32) ([]HashCode, error) {
	out := make([]HashCode, len(vecs))
	for i, v := range vecs {
		h, err := m.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		out[i] = h
	}
	return out, nil
}

// Save writes the model artifact to w.
func (m *Model) Save(w io.Writer) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
