package search

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// DistCutoffFactor relates the feature size to the cell size of the
// result container: cutoff = FeatureSize / DistCutoffFactor.
const DistCutoffFactor = 3

const (
	// DefaultGapThreshold is the largest gap value that counts as a node.
	DefaultGapThreshold = 1e-6
	// DefaultFeatureSize is the smallest distance between distinct features.
	DefaultFeatureSize = 2e-3
)

// Config controls a search.
type Config struct {
	// InitialMeshSize is the number of cells per dimension of the
	// initial partition. Defaults to 1 in every dimension.
	InitialMeshSize []int

	// RefinementMeshSize is both the number of starting points per
	// dimension sampled inside a cell and the number of children per
	// dimension a refined cell is split into. Defaults to 2.
	RefinementMeshSize []int

	// GapThreshold is the largest gap value accepted as a node.
	GapThreshold float64

	// FeatureSize is the smallest length scale the search resolves.
	// Cells are not refined below it.
	FeatureSize float64

	// MaxSimplices stops the run after this many processed simplices.
	// 0 means unlimited.
	MaxSimplices int

	// MaxDuration stops the run after this wall-clock time.
	// 0 means unlimited.
	MaxDuration time.Duration

	// NumWorkers bounds the concurrent minimizations inside one simplex.
	// Defaults to 1.
	NumWorkers int

	// RefineMinHits is the number of accepted results that must fall
	// inside a cell (grown by FeatureSize) for it to be refined.
	// Defaults to 1.
	RefineMinHits int

	// CheckpointInterval is the minimum time between two periodic
	// checkpoints. 0 checkpoints after every simplex.
	CheckpointInterval time.Duration
}

// DefaultConfig returns the defaults for a dim-dimensional search.
func DefaultConfig(dim int) Config {
	return Config{
		InitialMeshSize:    uniform(dim, 1),
		RefinementMeshSize: uniform(dim, 2),
		GapThreshold:       DefaultGapThreshold,
		FeatureSize:        DefaultFeatureSize,
		NumWorkers:         1,
		RefineMinHits:      1,
	}
}

// DistCutoff returns the cell size of the result container.
func (c Config) DistCutoff() float64 {
	return c.FeatureSize / DistCutoffFactor
}

// withDefaults fills zero values for a dim-dimensional search.
func (c Config) withDefaults(dim int) Config {
	if len(c.InitialMeshSize) == 0 {
		c.InitialMeshSize = uniform(dim, 1)
	} else {
		c.InitialMeshSize = slices.Clone(c.InitialMeshSize)
	}
	if len(c.RefinementMeshSize) == 0 {
		c.RefinementMeshSize = uniform(dim, 2)
	} else {
		c.RefinementMeshSize = slices.Clone(c.RefinementMeshSize)
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.RefineMinHits <= 0 {
		c.RefineMinHits = 1
	}
	return c
}

// Validate checks c against a dim-dimensional coordinate system.
func (c Config) Validate(dim int) error {
	for _, m := range []struct {
		field string
		size  []int
	}{
		{"InitialMeshSize", c.InitialMeshSize},
		{"RefinementMeshSize", c.RefinementMeshSize},
	} {
		if len(m.size) != dim {
			return fmt.Errorf("%w: %s has %d entries, system has %d dimensions", ErrDimensionMismatch, m.field, len(m.size), dim)
		}
		for _, n := range m.size {
			if n < 1 {
				return &InvalidMeshSizeError{Field: m.field, Size: slices.Clone(m.size)}
			}
		}
	}
	if !(c.FeatureSize > 0) || math.IsInf(c.FeatureSize, 0) {
		return &InvalidFeatureSizeError{FeatureSize: c.FeatureSize}
	}
	if !(c.GapThreshold >= 0) || math.IsInf(c.GapThreshold, 0) {
		return &InvalidThresholdError{Threshold: c.GapThreshold}
	}
	if c.MaxSimplices < 0 {
		return fmt.Errorf("%w: MaxSimplices must be >= 0, got %d", ErrInvalidConfig, c.MaxSimplices)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("%w: MaxDuration must be >= 0, got %s", ErrInvalidConfig, c.MaxDuration)
	}
	return nil
}

func uniform(dim, n int) []int {
	out := make([]int, dim)
	for i := range out {
		out[i] = n
	}
	return out
}
