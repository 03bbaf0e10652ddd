// Package pool provides the bounded worker pool used by per-item pipeline stages.
package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("pool: closed")

// WorkerPool runs submitted tasks on a fixed set of goroutines. The queue
// holds one pending task per worker, so Submit blocks once every worker is
// busy and the queue is full.
type WorkerPool struct {
	size  int
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers. size <= 0 selects runtime.GOMAXPROCS(0).
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		size:  size,
		tasks: make(chan func(), size),
	}

	wp.wg.Add(size)
	for range size {
		go func() {
			defer wp.wg.Done()
			for task := range wp.tasks {
				task()
			}
		}()
	}

	return wp
}

// NumWorkers returns the number of worker goroutines.
func (wp *WorkerPool) NumWorkers() int { return wp.size }

// Submit enqueues task. It returns ErrClosed after Close and ctx.Err() when
// ctx ends before a slot frees up.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrClosed
	}

	select {
	case wp.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits until every queued task has run.
// It is safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
}
