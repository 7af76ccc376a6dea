package minimize

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/nodefinder/coords"
)

// Func is a scalar gap function. It must return a non-negative value and be
// safe for concurrent use when the search runs with more than one worker.
type Func func(x []float64) float64

// BatchFunc evaluates the gap function for several positions at once.
type BatchFunc func(xs [][]float64) []float64

// FromBatch adapts a batched gap function to the scalar form used by the
// minimizer.
func FromBatch(fn BatchFunc) Func {
	return func(x []float64) float64 {
		out := fn([][]float64{x})
		if len(out) != 1 {
			panic(fmt.Sprintf("minimize: batch gap function returned %d values for 1 position", len(out)))
		}
		return out[0]
	}
}

// Result is the outcome of one local search.
type Result struct {
	Pos     coords.Point `json:"pos"`
	Value   float64      `json:"value"`
	Success bool         `json:"success"`
}

// Clone returns a copy of r that does not share its position.
func (r Result) Clone() Result {
	r.Pos = r.Pos.Clone()
	return r
}

// Minimizer converges a starting point towards a local minimum of f.
//
// Implementations must be safe for concurrent use and must not keep state
// between calls.
type Minimizer interface {
	Minimize(ctx context.Context, f Func, x0 []float64) (Result, error)
}

// MinimizerFunc adapts a function to the Minimizer interface.
type MinimizerFunc func(ctx context.Context, f Func, x0 []float64) (Result, error)

// Minimize implements Minimizer.
func (fn MinimizerFunc) Minimize(ctx context.Context, f Func, x0 []float64) (Result, error) {
	return fn(ctx, f, x0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clonePoint(x []float64) coords.Point {
	return coords.Point(slices.Clone(x))
}
