package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/pqhash/distance"
)

// ErrNoData is returned when training is requested on an empty set.
var ErrNoData = errors.New("kmeans: no training vectors")

// Config controls a training run.
type Config struct {
	// K is the number of centroids.
	K int
	// Metric is the distance used for assignment.
	Metric distance.Metric
	// MaxIter bounds the Lloyd iterations per restart. Defaults to 300.
	MaxIter int
	// Tolerance stops a restart once the largest centroid shift (squared L2)
	// falls below it. Zero means iterate until assignments are stable.
	Tolerance float32
	// Restarts is the number of independent initializations. The run with
	// the lowest inertia wins. Defaults to 1.
	Restarts int
}

// Result is a trained centroid set.
type Result struct {
	// Centroids is flattened (K * dim).
	Centroids []float32
	// Inertia is the sum of distances of every vector to its centroid.
	Inertia float64
	// Iterations is the number of Lloyd iterations of the winning restart.
	Iterations int
}

// Train trains cfg.K centroids from the flattened vectors using k-means++
// seeding followed by Lloyd's algorithm.
//
// When there are fewer vectors than centroids the surplus centroids repeat
// existing points; assignment breaks ties toward the lowest index, so the
// duplicates are never selected.
func Train(ctx context.Context, vectors []float32, dim int, cfg Config, rng *rand.Rand) (*Result, error) {
	if dim <= 0 || cfg.K <= 0 {
		return nil, errors.New("kmeans: dim and k must be positive")
	}
	n := len(vectors) / dim
	if n == 0 {
		return nil, ErrNoData
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 300
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = 1
	}

	distFunc, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, err
	}

	var best *Result
	for r := 0; r < cfg.Restarts; r++ {
		res, err := lloyd(ctx, vectors, n, dim, cfg, distFunc, rng)
		if err != nil {
			return nil, err
		}
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func lloyd(ctx context.Context, vectors []float32, n, dim int, cfg Config, distFunc distance.Func, rng *rand.Rand) (*Result, error) {
	k := cfg.K
	centroids := initPlusPlus(vectors, n, dim, k, distFunc, rng)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	iter := 0
	for ; iter < cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i := 0; i < n; i++ {
			c, _ := Nearest(vectors[i*dim:(i+1)*dim], centroids, dim, distFunc)
			if assignments[i] != c {
				assignments[i] = c
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		clear(sums)
		clear(counts)

		for i := 0; i < n; i++ {
			cluster := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				sums[cluster*dim+d] += vec[d]
			}
			counts[cluster]++
		}

		var maxShift float32
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				// Empty clusters keep their centroid. With duplicated seeds
				// this is the expected state for the surplus centroids.
				continue
			}
			scale := 1.0 / float32(counts[j])
			var shift float32
			for d := 0; d < dim; d++ {
				v := sums[j*dim+d] * scale
				delta := v - centroids[j*dim+d]
				shift += delta * delta
				centroids[j*dim+d] = v
			}
			if shift > maxShift {
				maxShift = shift
			}
		}

		if cfg.Tolerance > 0 && maxShift <= cfg.Tolerance {
			iter++
			break
		}
	}

	var inertia float64
	for i := 0; i < n; i++ {
		_, d := Nearest(vectors[i*dim:(i+1)*dim], centroids, dim, distFunc)
		inertia += float64(d)
	}

	return &Result{Centroids: centroids, Inertia: inertia, Iterations: iter}, nil
}

// initPlusPlus picks k seeds with probability proportional to their
// distance from the seeds chosen so far.
func initPlusPlus(vectors []float32, n, dim, k int, distFunc distance.Func, rng *rand.Rand) []float32 {
	centroids := make([]float32, k*dim)

	if n <= k {
		// Not enough data: every point becomes a seed, the rest repeat.
		for i := 0; i < k; i++ {
			src := i % n
			copy(centroids[i*dim:(i+1)*dim], vectors[src*dim:(src+1)*dim])
		}
		return centroids
	}

	first := rng.IntN(n)
	copy(centroids[0:dim], vectors[first*dim:(first+1)*dim])

	// minDist tracks each vector's distance to its nearest chosen seed.
	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = math.MaxFloat64
	}

	for c := 1; c < k; c++ {
		prev := centroids[(c-1)*dim : c*dim]
		var sum float64
		for i := 0; i < n; i++ {
			d := float64(distFunc(vectors[i*dim:(i+1)*dim], prev))
			if d < minDist[i] {
				minDist[i] = d
			}
			sum += minDist[i]
		}

		idx := 0
		if sum > 0 {
			target := rng.Float64() * sum
			var acc float64
			idx = -1
			for i := 0; i < n; i++ {
				if minDist[i] == 0 {
					continue
				}
				idx = i
				acc += minDist[i]
				if acc >= target {
					break
				}
			}
		} else {
			// All points coincide with the seeds.
			idx = rng.IntN(n)
		}
		copy(centroids[c*dim:(c+1)*dim], vectors[idx*dim:(idx+1)*dim])
	}

	return centroids
}

// Nearest returns the index of the centroid in the flattened set closest to
// vec, and its distance. Ties go to the lowest index.
func Nearest(vec, centroids []float32, dim int, distFunc distance.Func) (int, float32) {
	k := len(centroids) / dim
	best := 0
	minDist := float32(math.MaxFloat32)
	for j := 0; j < k; j++ {
		d := distFunc(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best, minDist
}
