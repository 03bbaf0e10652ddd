package quantization

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid constructor arguments.
	ErrConfiguration = errors.New("quantization: invalid configuration")

	// ErrShape is returned when vector dimensionality does not fit the model.
	ErrShape = errors.New("quantization: shape mismatch")

	// ErrNotFitted is returned by Predict and Save on a model without groups.
	ErrNotFitted = errors.New("quantization: model is not fitted")

	// ErrNoTrainingData is returned by Fit when no vectors are supplied.
	ErrNoTrainingData = errors.New("quantization: no training vectors")

	// ErrCorruptArtifact is returned when a serialized model cannot be decoded.
	ErrCorruptArtifact = errors.New("quantization: corrupt artifact")
)

// ShapeError describes a dimensionality problem.
//
// It satisfies errors.Is(err, ErrShape).
type ShapeError struct {
	Dimension int
	Expected  int
	NumGroups int
	Reason    string
}

func (e *ShapeError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("quantization: shape mismatch: %s", e.Reason)
	case e.Expected > 0:
		return fmt.Sprintf("quantization: dimension mismatch: expected %d, got %d", e.Expected, e.Dimension)
	default:
		return fmt.Sprintf("quantization: dimension %d is not divisible by %d groups", e.Dimension, e.NumGroups)
	}
}

func (e *ShapeError) Unwrap() error { return ErrShape }
