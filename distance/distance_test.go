package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, float32(0), SquaredL2([]float32{1, 2, 3}, []float32{1, 2, 3}))
	assert.Equal(t, float32(27), SquaredL2([]float32{0, 0, 0}, []float32{3, 3, 3}))
}

func TestDot(t *testing.T) {
	assert.Equal(t, float32(32), Dot([]float32{1, 2, 3}, []float32{4, 5, 6}))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 1, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 2, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(1), Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestProvider(t *testing.T) {
	fn, err := Provider(MetricL2)
	require.NoError(t, err)
	assert.Equal(t, float32(2), fn([]float32{0, 0}, []float32{1, 1}))

	fn, err = Provider(MetricCosine)
	require.NoError(t, err)
	assert.InDelta(t, 0, fn([]float32{1, 1}, []float32{2, 2}), 1e-6)

	_, err = Provider(Metric(99))
	assert.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	for _, m := range []Metric{MetricL2, MetricCosine} {
		got, err := ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMetric("hamming")
	assert.Error(t, err)
	assert.Equal(t, "Unknown(42)", Metric(42).String())
}
