package distance

import (
	"math"
)

// SquaredEuclidean calculates the squared L2 distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}

// MinimumImage maps a displacement d along an axis of length period onto
// its shortest periodic representative in [-period/2, period/2].
// A non-positive period leaves d unchanged.
func MinimumImage(d, period float64) float64 {
	if period <= 0 {
		return d
	}
	d -= period * math.Round(d/period)
	return d
}

// PeriodicDisplacement writes the minimum-image displacement b - a into dst
// and returns it. dst is allocated when nil.
func PeriodicDisplacement(dst, a, b, size []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(a))
	}
	for i := range a {
		dst[i] = MinimumImage(b[i]-a[i], size[i])
	}
	return dst
}

// Periodic calculates the minimum-image L2 distance between a and b on a box
// whose side lengths are given by size.
func Periodic(a, b, size []float64) float64 {
	var sum float64
	for i := range a {
		d := MinimumImage(b[i]-a[i], size[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
