package quantization

import (
	"slices"

	"github.com/hupe1980/pqhash/distance"
	"github.com/hupe1980/pqhash/internal/kmeans"
)

// GroupQuantizer owns the centroids of one partition group.
type GroupQuantizer struct {
	index     int
	k         int
	dim       int
	metric    distance.Metric
	centroids []float32 // k * dim
	distFunc  distance.Func
}

func newGroupQuantizer(index, k, dim int, metric distance.Metric, centroids []float32) (*GroupQuantizer, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}
	return &GroupQuantizer{
		index:     index,
		k:         k,
		dim:       dim,
		metric:    metric,
		centroids: centroids,
		distFunc:  distFunc,
	}, nil
}

// Index returns the group's position in the model.
func (g *GroupQuantizer) Index() int { return g.index }

// NumClusters returns the number of centroids.
func (g *GroupQuantizer) NumClusters() int { return g.k }

// Dimension returns the width of the group's slice.
func (g *GroupQuantizer) Dimension() int { return g.dim }

// Centroid returns a copy of centroid c.
func (g *GroupQuantizer) Centroid(c int) []float32 {
	return slices.Clone(g.centroids[c*g.dim : (c+1)*g.dim])
}

// Centroids returns a copy of the flattened centroid set.
func (g *GroupQuantizer) Centroids() []float32 {
	return slices.Clone(g.centroids)
}

// Assign returns the id of the centroid nearest to sub.
// Ties go to the lowest id.
func (g *GroupQuantizer) Assign(sub []float32) int {
	c, _ := kmeans.Nearest(sub, g.centroids, g.dim, g.distFunc)
	return c
}
