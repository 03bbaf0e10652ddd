package pqhash

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pqhash/registry"
)

var (
	// ErrNoModel is returned when no model is named and the registry is empty.
	// It matches registry.ErrNoModel with errors.Is.
	ErrNoModel = registry.ErrNoModel

	// ErrIndexUnavailable is returned when the destination search index
	// cannot be checked, deleted or created.
	ErrIndexUnavailable = errors.New("pqhash: search index unavailable")

	// ErrMissingDescription is recorded for items that have features but no description.
	ErrMissingDescription = errors.New("pqhash: missing description")

	// ErrNotEnoughVectors is returned when training asks for more vectors
	// than the feature store holds.
	ErrNotEnoughVectors = errors.New("pqhash: not enough feature vectors")
)

// Stage identifies the step of a per-item body that failed.
type Stage string

const (
	StageCheck    Stage = "check"
	StageLoad     Stage = "load"
	StagePredict  Stage = "predict"
	StageDescribe Stage = "describe"
	StageEmbed    Stage = "embed"
	StagePublish  Stage = "publish"
	StageList     Stage = "list"
)

// ItemError is a non-fatal failure of a single item.
//
// The original underlying error can be accessed via errors.Unwrap.
type ItemError struct {
	Key   string
	Stage Stage
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func itemError(key string, stage Stage, err error) *ItemError {
	return &ItemError{Key: key, Stage: stage, Err: err}
}
