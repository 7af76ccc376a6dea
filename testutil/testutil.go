package testutil

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints returns num points drawn uniformly from the domain of
// system.
func (r *RNG) UniformPoints(system coords.System, num int) []coords.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	limits := system.Limits()
	out := make([]coords.Point, num)
	for i := range out {
		p := make(coords.Point, len(limits))
		for d, l := range limits {
			p[d] = l[0] + r.rand.Float64()*(l[1]-l[0])
		}
		out[i] = system.NormalizePosition(p)
	}
	return out
}

// Jitter returns points scattered around center with Gaussian noise of
// the given standard deviation, normalized into system.
func (r *RNG) Jitter(system coords.System, center coords.Point, num int, sigma float64) []coords.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]coords.Point, num)
	for i := range out {
		p := make(coords.Point, len(center))
		for d, v := range center {
			p[d] = v + r.rand.NormFloat64()*sigma
		}
		out[i] = system.NormalizePosition(p)
	}
	return out
}

// LinePoints returns num evenly spaced points on the closed loop that runs
// along dimension axis through base.
func LinePoints(system coords.System, base coords.Point, axis, num int) []coords.Point {
	lim := system.Limits()[axis]
	step := (lim[1] - lim[0]) / float64(num)
	out := make([]coords.Point, num)
	for i := range out {
		p := base.Clone()
		p[axis] = lim[0] + float64(i)*step
		out[i] = system.NormalizePosition(p)
	}
	return out
}

// PlanePoints returns a perNum x perNum grid on the plane spanned by
// dimensions a and b through base.
func PlanePoints(system coords.System, base coords.Point, a, b, perNum int) []coords.Point {
	limA, limB := system.Limits()[a], system.Limits()[b]
	stepA := (limA[1] - limA[0]) / float64(perNum)
	stepB := (limB[1] - limB[0]) / float64(perNum)
	out := make([]coords.Point, 0, perNum*perNum)
	for i := 0; i < perNum; i++ {
		for j := 0; j < perNum; j++ {
			p := base.Clone()
			p[a] = limA[0] + float64(i)*stepA
			p[b] = limB[0] + float64(j)*stepB
			out = append(out, system.NormalizePosition(p))
		}
	}
	return out
}

// PointGap returns a gap function that vanishes only at the given nodes:
// the periodic distance to the closest one.
func PointGap(size []float64, nodes ...[]float64) func([]float64) float64 {
	return func(x []float64) float64 {
		best := math.Inf(1)
		for _, n := range nodes {
			best = math.Min(best, distance.Periodic(x, n, size))
		}
		return best
	}
}

// LineGap returns a gap function that vanishes on the line through base
// along dimension axis.
func LineGap(size []float64, base []float64, axis int) func([]float64) float64 {
	return func(x []float64) float64 {
		var sum float64
		for d := range x {
			if d == axis {
				continue
			}
			delta := distance.MinimumImage(x[d]-base[d], size[d])
			sum += delta * delta
		}
		return math.Sqrt(sum)
	}
}

// PlaneGap returns a gap function that vanishes on the plane
// x[normal] == offset.
func PlaneGap(size []float64, normal int, offset float64) func([]float64) float64 {
	return func(x []float64) float64 {
		return math.Abs(distance.MinimumImage(x[normal]-offset, size[normal]))
	}
}

// CountingGap wraps a gap function and counts its evaluations.
type CountingGap struct {
	Fn    func([]float64) float64
	calls atomic.Int64
}

// Eval evaluates the wrapped function.
func (c *CountingGap) Eval(x []float64) float64 {
	c.calls.Add(1)
	return c.Fn(x)
}

// Calls returns the number of evaluations so far.
func (c *CountingGap) Calls() int64 {
	return c.calls.Load()
}
