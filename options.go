package pqhash

import (
	"log/slog"

	"golang.org/x/time/rate"
)

// DefaultDescriptions is the metadata mapping loaded by the index builder.
const DefaultDescriptions = "descriptions"

type options struct {
	modelName        string
	descriptions     string
	resume           bool
	workers          int
	rateLimit        rate.Limit
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures the pipeline components (IndexBuilder, Trainer,
// FeatureExtractor and Searcher). Components ignore options that do not
// apply to them.
type Option func(*options)

// WithModelName selects the model artifact by name. When unset, the most
// recently created model in the registry is used.
func WithModelName(name string) Option {
	return func(o *options) {
		o.modelName = name
	}
}

// WithDescriptions sets the name of the item_id -> description mapping in
// the metadata store. Default: "descriptions".
func WithDescriptions(name string) Option {
	return func(o *options) {
		o.descriptions = name
	}
}

// WithResume enables skip-if-exists.
//
// The index builder keeps an existing index instead of recreating it and
// skips items whose document is already present, so an interrupted run can
// be restarted without redoing completed work.
func WithResume(resume bool) Option {
	return func(o *options) {
		o.resume = resume
	}
}

// WithWorkers sets the number of items processed concurrently.
// Values <= 1 process items sequentially (the default).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRateLimit caps publishes (or embeddings) per second across all workers.
// Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.rateLimit = rate.Inf
			return
		}
		o.rateLimit = rate.Limit(perSecond)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pqhash.BasicMetricsCollector{}
//	b := pqhash.NewIndexBuilder(models, features, metadata, index, pqhash.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("processed: %d, failed: %d\n", stats.ItemsProcessed, stats.ItemsFailed)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pqhash.NewJSONLogger(slog.LevelInfo)
//	b := pqhash.NewIndexBuilder(models, features, metadata, index, pqhash.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		descriptions:     DefaultDescriptions,
		workers:          1,
		rateLimit:        rate.Inf,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}
