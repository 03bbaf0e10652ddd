package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/pqhash"
)

const namespace = "pqhash"

// PrometheusCollector implements pqhash.MetricsCollector with client_golang
// counters and histograms.
type PrometheusCollector struct {
	items         *prometheus.CounterVec
	itemLatency   *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	fits          *prometheus.CounterVec
	fitLatency    prometheus.Histogram
	fitVectors    prometheus.Gauge
	searches      *prometheus.CounterVec
	searchLatency prometheus.Histogram
}

var _ pqhash.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the collector's metrics on reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusCollector{
		items: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items handled by pipeline runs, by outcome.",
		}, []string{"pipeline", "status"}),
		itemLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent on a single item.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished pipeline runs, by result.",
		}, []string{"pipeline", "result"}),
		fits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Model fits, by result.",
		}, []string{"result"}),
		fitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent fitting a model.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		fitVectors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_training_vectors",
			Help:      "Training vectors used by the last fit.",
		}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search requests, by result.",
		}, []string{"result"}),
		searchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordItem implements pqhash.MetricsCollector.
func (c *PrometheusCollector) RecordItem(pipeline string, status pqhash.Status, d time.Duration) {
	c.items.WithLabelValues(pipeline, status.String()).Inc()
	c.itemLatency.WithLabelValues(pipeline).Observe(d.Seconds())
}

// RecordRun implements pqhash.MetricsCollector.
func (c *PrometheusCollector) RecordRun(pipeline string, report *pqhash.Report, err error) {
	c.runs.WithLabelValues(pipeline, runResult(report, err)).Inc()
}

// RecordFit implements pqhash.MetricsCollector.
func (c *PrometheusCollector) RecordFit(vectors int, d time.Duration, err error) {
	c.fits.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	c.fitLatency.Observe(d.Seconds())
	c.fitVectors.Set(float64(vectors))
}

// RecordSearch implements pqhash.MetricsCollector.
func (c *PrometheusCollector) RecordSearch(_ int, d time.Duration, err error) {
	c.searches.WithLabelValues(result(err)).Inc()
	c.searchLatency.Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func runResult(report *pqhash.Report, err error) string {
	switch {
	case err != nil:
		return "aborted"
	case report != nil && report.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}
