package identify

import "errors"

var (
	// ErrNeighbourMappingInconsistency is returned when the clusters built
	// from a neighbour mapping overlap or do not cover every position.
	ErrNeighbourMappingInconsistency = errors.New("identify: inconsistent neighbour mapping")

	// ErrInvalidFeatureSize is returned for a non-positive feature size.
	ErrInvalidFeatureSize = errors.New("identify: feature size must be positive")
)
