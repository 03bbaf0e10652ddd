package pqhash

import (
	"time"
)

// Status is the outcome of processing one item.
type Status int

const (
	StatusProcessed Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one per-item body.
type Outcome struct {
	Key    string
	Status Status
	Err    error // set when Status is StatusFailed
}

func processed(key string) Outcome { return Outcome{Key: key, Status: StatusProcessed} }

func skipped(key string) Outcome { return Outcome{Key: key, Status: StatusSkipped} }

func failed(key string, stage Stage, err error) Outcome {
	return Outcome{Key: key, Status: StatusFailed, Err: itemError(key, stage, err)}
}

// Report aggregates the outcomes of a pipeline run.
type Report struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	// Errors holds one *ItemError per failed item, in completion order.
	Errors   []error
	Duration time.Duration
}

// Add accounts for one outcome.
func (r *Report) Add(o Outcome) {
	r.Total++
	switch o.Status {
	case StatusProcessed:
		r.Processed++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
		r.Errors = append(r.Errors, o.Err)
	}
}

// OK reports whether no item failed.
func (r *Report) OK() bool { return r.Failed == 0 }
