// Package minimize provides the local search used to converge a starting
// point onto a zero of the gap function.
//
// The search treats the minimizer as a black box: Minimize receives the gap
// function and a starting point and reports where it ended, the value there
// and whether the run succeeded. A failed run is not an error; errors are
// reserved for cancellation.
//
//	nm := minimize.NewNelderMead()
//	res, err := nm.Minimize(ctx, gap, []float64{0.1, 0.2, 0.3})
package minimize
