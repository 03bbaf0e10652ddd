package pqhash

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/pqhash/internal/pool"
)

type itemFunc func(ctx context.Context, key string) Outcome

// runItems applies fn to every key and aggregates the outcomes.
//
// Keys are processed inline when one worker is configured and on a bounded
// worker pool otherwise. Item failures never stop the walk; a listing error
// or context cancellation does, and is returned with the partial report.
func runItems(ctx context.Context, pipeline string, keys iter.Seq2[string, error], o *options, fn itemFunc) (*Report, error) {
	start := time.Now()
	report := &Report{}

	var mu sync.Mutex

	run := func(key string) {
		t := time.Now()
		out := fn(ctx, key)
		elapsed := time.Since(t)

		mu.Lock()
		report.Add(out)
		mu.Unlock()

		o.logger.LogItem(ctx, out)
		o.metricsCollector.RecordItem(pipeline, out.Status, elapsed)
	}

	var wp *pool.WorkerPool
	if o.workers > 1 {
		wp = pool.NewWorkerPool(o.workers)
	}

	var runErr error

	for key, err := range keys {
		if err != nil {
			runErr = fmt.Errorf("%s: list keys: %w", pipeline, err)
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if wp == nil {
			run(key)
			continue
		}

		if err := wp.Submit(ctx, func() { run(key) }); err != nil {
			runErr = err
			break
		}
	}

	if wp != nil {
		wp.Close()
	}

	report.Duration = time.Since(start)

	return report, runErr
}

// finishRun logs and records the end of a run.
func finishRun(ctx context.Context, pipeline string, o *options, report *Report, err error) {
	o.logger.LogRun(ctx, report, err)
	o.metricsCollector.RecordRun(pipeline, report, err)
}
