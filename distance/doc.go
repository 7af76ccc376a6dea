// Package distance provides the metric kernels used on periodic domains.
//
// # Supported Metrics
//
//   - Euclidean: plain L2 distance
//   - SquaredEuclidean: squared L2 distance (no sqrt)
//   - Periodic: minimum-image L2 distance on a box with the given side lengths
//
// # Usage
//
//	d := distance.Euclidean(a, b)
//	dp := distance.Periodic(a, b, []float64{1, 1, 1})
package distance
