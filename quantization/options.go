package quantization

import (
	"runtime"

	"github.com/hupe1980/pqhash/distance"
)

type options struct {
	metric      distance.Metric
	maxIter     int
	tolerance   float32
	restarts    int
	seed        uint64
	seeded      bool
	parallelism int
	compression Compression
}

func defaultOptions() options {
	return options{
		metric:      distance.MetricL2,
		maxIter:     300,
		tolerance:   1e-4,
		restarts:    1,
		parallelism: runtime.GOMAXPROCS(0),
		compression: CompressionZstd,
	}
}

// Option configures a Model.
type Option func(*options)

// WithMetric sets the distance used for nearest-centroid assignment.
// The metric is persisted in the artifact.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMaxIterations bounds the k-means iterations per group.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIter = n
	}
}

// WithTolerance stops a group's k-means once no centroid moves more than tol
// (squared L2). Zero iterates until the assignments are stable.
func WithTolerance(tol float32) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithRestarts runs k-means n times per group and keeps the lowest inertia.
func WithRestarts(n int) Option {
	return func(o *options) {
		o.restarts = n
	}
}

// WithSeed makes Fit deterministic. Each group derives its own stream from
// the seed and its index, so the result does not depend on scheduling.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithParallelism bounds the number of groups fitted concurrently.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithCompression selects the artifact compression used by Save.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}
