package nodefinder

import (
	"errors"
	"fmt"

	"github.com/hupe1980/nodefinder/identify"
	"github.com/hupe1980/nodefinder/search"
)

var (
	// ErrInvalidConfig is returned when options describe an unusable search.
	ErrInvalidConfig = search.ErrInvalidConfig

	// ErrDimensionMismatch is returned when the coordinate system, mesh sizes
	// and a resumed state disagree about the number of dimensions.
	ErrDimensionMismatch = search.ErrDimensionMismatch

	// ErrNoCheckpointStore is returned by Resume when no store is configured.
	ErrNoCheckpointStore = errors.New("nodefinder: no checkpoint store configured")
)

// ErrInvalidMeshSize indicates an initial or refinement mesh with an entry
// below one.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidMeshSize struct {
	Field string
	Size  []int
	cause error
}

func (e *ErrInvalidMeshSize) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Size)
}

func (e *ErrInvalidMeshSize) Unwrap() error { return e.cause }

// ErrInvalidFeatureSize indicates a feature size that is not positive and
// finite.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidFeatureSize struct {
	FeatureSize float64
	cause       error
}

func (e *ErrInvalidFeatureSize) Error() string {
	return fmt.Sprintf("invalid feature size: %g", e.FeatureSize)
}

func (e *ErrInvalidFeatureSize) Unwrap() error { return e.cause }

// ErrInvalidThreshold indicates a negative or non-finite gap threshold.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidThreshold struct {
	Threshold float64
	cause     error
}

func (e *ErrInvalidThreshold) Error() string {
	return fmt.Sprintf("invalid gap threshold: %g", e.Threshold)
}

func (e *ErrInvalidThreshold) Unwrap() error { return e.cause }

func translateError(err error, featureSize float64) error {
	if err == nil {
		return nil
	}

	var ms *search.InvalidMeshSizeError
	if errors.As(err, &ms) {
		return &ErrInvalidMeshSize{Field: ms.Field, Size: ms.Size, cause: err}
	}
	var fs *search.InvalidFeatureSizeError
	if errors.As(err, &fs) {
		return &ErrInvalidFeatureSize{FeatureSize: fs.FeatureSize, cause: err}
	}
	if errors.Is(err, identify.ErrInvalidFeatureSize) {
		return &ErrInvalidFeatureSize{FeatureSize: featureSize, cause: fmt.Errorf("%w: %w", ErrInvalidConfig, err)}
	}
	var th *search.InvalidThresholdError
	if errors.As(err, &th) {
		return &ErrInvalidThreshold{Threshold: th.Threshold, cause: err}
	}

	return err
}
