package minimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// NelderMeadOptions configures the Nelder-Mead local search.
type NelderMeadOptions struct {
	// SimplexSize is the edge length of the initial simplex. Default 0.05.
	SimplexSize float64

	// MaxEvaluations bounds the number of gap function calls per run.
	// Default 2000.
	MaxEvaluations int

	// AbsoluteTolerance and ConvergenceIterations configure the function
	// value convergence test: the run stops once the best value improved by
	// less than AbsoluteTolerance over ConvergenceIterations major
	// iterations. Defaults 1e-12 and 50.
	AbsoluteTolerance     float64
	ConvergenceIterations int
}

// DefaultNelderMeadOptions contains the default settings.
var DefaultNelderMeadOptions = NelderMeadOptions{
	SimplexSize:           0.05,
	MaxEvaluations:        2000,
	AbsoluteTolerance:     1e-12,
	ConvergenceIterations: 50,
}

// NelderMead is a derivative-free Minimizer backed by gonum's Nelder-Mead
// implementation.
type NelderMead struct {
	opts NelderMeadOptions
}

// Compile time check to ensure NelderMead satisfies the Minimizer interface.
var _ Minimizer = (*NelderMead)(nil)

// NewNelderMead creates a Nelder-Mead minimizer.
func NewNelderMead(optFns ...func(o *NelderMeadOptions)) *NelderMead {
	opts := DefaultNelderMeadOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SimplexSize <= 0 {
		opts.SimplexSize = DefaultNelderMeadOptions.SimplexSize
	}
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = DefaultNelderMeadOptions.MaxEvaluations
	}
	if opts.ConvergenceIterations <= 0 {
		opts.ConvergenceIterations = DefaultNelderMeadOptions.ConvergenceIterations
	}
	return &NelderMead{opts: opts}
}

// Minimize implements Minimizer.
//
// The run succeeds when gonum terminates without error at a finite value,
// including when the evaluation budget is exhausted; whether the end point is
// close enough to a zero is decided by the caller's gap threshold.
func (nm *NelderMead) Minimize(ctx context.Context, f Func, x0 []float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: nm.opts.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   nm.opts.AbsoluteTolerance,
			Iterations: nm.opts.ConvergenceIterations,
		},
	}
	method := &optimize.NelderMead{SimplexSize: nm.opts.SimplexSize}

	res, err := optimize.Minimize(problem, x0, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if res == nil {
		return Result{Pos: clonePoint(x0), Value: f(x0), Success: false}, nil
	}

	return Result{
		Pos:     clonePoint(res.X),
		Value:   res.F,
		Success: err == nil && finite(res.F),
	}, nil
}
