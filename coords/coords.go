package coords

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/nodefinder/distance"
)

// ErrInvalidLimits is returned when a box is constructed with empty or
// degenerate limits.
var ErrInvalidLimits = errors.New("coords: invalid limits")

// Point is a coordinate tuple in a periodic domain.
type Point []float64

// Key is a comparable identity for a Point. Points with identical
// components (bit for bit) have equal keys.
type Key string

// Key returns the comparable identity of p.
func (p Point) Key() Key {
	buf := make([]byte, 8*len(p))
	for i, v := range p {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v+0))
	}
	return Key(buf)
}

// Clone returns a copy of p.
func (p Point) Clone() Point {
	return slices.Clone(p)
}

// Equal reports whether p and q have identical components.
func (p Point) Equal(q Point) bool {
	return slices.Equal(p, q)
}

// System is a periodic metric space.
//
// Implementations must be safe for concurrent use.
type System interface {
	// Dim returns the number of dimensions.
	Dim() int
	// Limits returns the [lower, upper) bounds of every dimension.
	Limits() [][2]float64
	// Size returns upper - lower for every dimension.
	Size() []float64
	// NormalizePosition reduces p into the canonical domain.
	NormalizePosition(p Point) Point
	// Frac returns the fractional coordinates of p in [0, 1).
	Frac(p Point) []float64
	// Distance returns the periodic distance between a and b.
	Distance(a, b Point) float64
	// Distances returns the periodic distances from a to every point in bs.
	Distances(a Point, bs []Point) []float64
	// Displacement returns the shortest periodic vector pointing from a to b.
	Displacement(a, b Point) []float64
}

// Box is a flat periodic box (a torus with Euclidean metric).
type Box struct {
	limits [][2]float64
	size   []float64
}

// Compile time check to ensure Box satisfies the System interface.
var _ System = (*Box)(nil)

// NewBox creates a periodic box with the given per-dimension limits.
func NewBox(limits [][2]float64) (*Box, error) {
	if len(limits) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidLimits)
	}
	size := make([]float64, len(limits))
	for i, l := range limits {
		if !(l[1] > l[0]) || math.IsInf(l[0], 0) || math.IsInf(l[1], 0) {
			return nil, fmt.Errorf("%w: dimension %d has limits [%g, %g)", ErrInvalidLimits, i, l[0], l[1])
		}
		size[i] = l[1] - l[0]
	}
	return &Box{
		limits: slices.Clone(limits),
		size:   size,
	}, nil
}

// UnitCube returns the periodic box [0, 1)^dim.
func UnitCube(dim int) *Box {
	limits := make([][2]float64, dim)
	for i := range limits {
		limits[i] = [2]float64{0, 1}
	}
	b, err := NewBox(limits)
	if err != nil {
		panic(err)
	}
	return b
}

// Dim implements System.
func (b *Box) Dim() int { return len(b.limits) }

// Limits implements System.
func (b *Box) Limits() [][2]float64 { return slices.Clone(b.limits) }

// Size implements System.
func (b *Box) Size() []float64 { return slices.Clone(b.size) }

// NormalizePosition implements System.
func (b *Box) NormalizePosition(p Point) Point {
	out := make(Point, len(p))
	for i, v := range p {
		lo, size := b.limits[i][0], b.size[i]
		if v >= lo && v < b.limits[i][1] {
			out[i] = v + 0
			continue
		}
		r := math.Mod(v-lo, size)
		if r < 0 {
			r += size
		}
		// Mod of a tiny negative value can round up to exactly size.
		if r >= size {
			r = 0
		}
		out[i] = lo + r + 0
		if out[i] >= b.limits[i][1] {
			out[i] = lo
		}
	}
	return out
}

// Frac implements System.
func (b *Box) Frac(p Point) []float64 {
	n := b.NormalizePosition(p)
	frac := make([]float64, len(n))
	for i, v := range n {
		f := (v - b.limits[i][0]) / b.size[i]
		if f >= 1 {
			f = 0
		}
		frac[i] = f
	}
	return frac
}

// Distance implements System.
func (b *Box) Distance(p, q Point) float64 {
	return distance.Periodic(p, q, b.size)
}

// Distances implements System.
func (b *Box) Distances(p Point, qs []Point) []float64 {
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = distance.Periodic(p, q, b.size)
	}
	return out
}

// Displacement implements System.
func (b *Box) Displacement(p, q Point) []float64 {
	return distance.PeriodicDisplacement(nil, p, q, b.size)
}

// String returns a readable representation of the box.
func (b *Box) String() string {
	return fmt.Sprintf("Box(limits=%v)", b.limits)
}

// RecordTag identifies Box in persisted snapshots.
func (*Box) RecordTag() string { return "nodefinder.coordinate_system" }
