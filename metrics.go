package pqhash

import (
	"sync/atomic"
	"time"
)

// Pipeline names reported to metrics collectors and loggers.
const (
	PipelineExtract = "extract"
	PipelineTrain   = "train"
	PipelineIndex   = "index"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the metric package).
type MetricsCollector interface {
	// RecordItem is called after each item of a pipeline run.
	// status is the item outcome, duration is the time spent on the item.
	RecordItem(pipeline string, status Status, duration time.Duration)

	// RecordRun is called once a pipeline run has finished or aborted.
	RecordRun(pipeline string, report *Report, err error)

	// RecordFit is called after each model fit.
	// vectors is the number of training vectors.
	RecordFit(vectors int, duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// size is the number of hits requested.
	RecordSearch(size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordItem(string, Status, time.Duration) {}
func (NoopMetricsCollector) RecordRun(string, *Report, error)         {}
func (NoopMetricsCollector) RecordFit(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	ItemsProcessed   atomic.Int64
	ItemsSkipped     atomic.Int64
	ItemsFailed      atomic.Int64
	ItemTotalNanos   atomic.Int64
	RunCount         atomic.Int64
	RunErrors        atomic.Int64
	FitCount         atomic.Int64
	FitErrors        atomic.Int64
	FitVectors       atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
}

// RecordItem implements MetricsCollector.
func (b *BasicMetricsCollector) RecordItem(_ string, status Status, duration time.Duration) {
	switch status {
	case StatusProcessed:
		b.ItemsProcessed.Add(1)
	case StatusSkipped:
		b.ItemsSkipped.Add(1)
	case StatusFailed:
		b.ItemsFailed.Add(1)
	}
	b.ItemTotalNanos.Add(duration.Nanoseconds())
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ string, _ *Report, err error) {
	b.RunCount.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(vectors int, _ time.Duration, err error) {
	b.FitCount.Add(1)
	b.FitVectors.Add(int64(vectors))
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ItemsProcessed: b.ItemsProcessed.Load(),
		ItemsSkipped:   b.ItemsSkipped.Load(),
		ItemsFailed:    b.ItemsFailed.Load(),
		ItemAvgNanos:   b.getAvgItemNanos(),
		RunCount:       b.RunCount.Load(),
		RunErrors:      b.RunErrors.Load(),
		FitCount:       b.FitCount.Load(),
		FitErrors:      b.FitErrors.Load(),
		FitVectors:     b.FitVectors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgItemNanos() int64 {
	count := b.ItemsProcessed.Load() + b.ItemsSkipped.Load() + b.ItemsFailed.Load()
	if count == 0 {
		return 0
	}
	return b.ItemTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ItemsProcessed int64
	ItemsSkipped   int64
	ItemsFailed    int64
	ItemAvgNanos   int64
	RunCount       int64
	RunErrors      int64
	FitCount       int64
	FitErrors      int64
	FitVectors     int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
}
