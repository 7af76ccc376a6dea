package search

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a search configuration is rejected.
var ErrInvalidConfig = errors.New("search: invalid config")

// ErrDimensionMismatch is returned when the coordinate system, mesh sizes
// or resumed state disagree about the number of dimensions.
var ErrDimensionMismatch = errors.New("search: dimension mismatch")

// InvalidMeshSizeError reports an unusable mesh size.
type InvalidMeshSizeError struct {
	Field string
	Size  []int
}

func (e *InvalidMeshSizeError) Error() string {
	return fmt.Sprintf("search: invalid %s %v: every entry must be >= 1", e.Field, e.Size)
}

// Unwrap returns ErrInvalidConfig.
func (e *InvalidMeshSizeError) Unwrap() error { return ErrInvalidConfig }

// InvalidFeatureSizeError reports a non-positive or non-finite feature size.
type InvalidFeatureSizeError struct {
	FeatureSize float64
}

func (e *InvalidFeatureSizeError) Error() string {
	return fmt.Sprintf("search: invalid feature size %g: must be positive and finite", e.FeatureSize)
}

// Unwrap returns ErrInvalidConfig.
func (e *InvalidFeatureSizeError) Unwrap() error { return ErrInvalidConfig }

// InvalidThresholdError reports a negative or non-finite gap threshold.
type InvalidThresholdError struct {
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("search: invalid gap threshold %g: must be >= 0 and finite", e.Threshold)
}

// Unwrap returns ErrInvalidConfig.
func (e *InvalidThresholdError) Unwrap() error { return ErrInvalidConfig }

// ErrInvalidState is returned when a controller is resumed from an
// incomplete or inconsistent state.
var ErrInvalidState = errors.New("search: invalid state")
