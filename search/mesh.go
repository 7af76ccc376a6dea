package search

import (
	"math"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/distance"
	"github.com/hupe1980/nodefinder/queue"
)

// A cell is a queue.Simplex with two vertices, the lower and the upper
// corner of an axis-aligned box.

func newCell(lo, hi coords.Point) queue.Simplex {
	return queue.Simplex{lo, hi}
}

// initialCells splits the domain of system into meshSize cells.
func initialCells(system coords.System, meshSize []int) []queue.Simplex {
	limits := system.Limits()
	lo := make(coords.Point, len(limits))
	hi := make(coords.Point, len(limits))
	for i, l := range limits {
		lo[i], hi[i] = l[0], l[1]
	}
	return subdivide(newCell(lo, hi), meshSize)
}

// subdivide splits cell into n[i] equal parts along every dimension.
// Children are returned in row-major order of their grid index.
func subdivide(cell queue.Simplex, n []int) []queue.Simplex {
	lo, hi := cell[0], cell[1]
	var out []queue.Simplex
	forEachIndex(n, func(idx []int) {
		clo := make(coords.Point, len(lo))
		chi := make(coords.Point, len(lo))
		for d := range lo {
			step := (hi[d] - lo[d]) / float64(n[d])
			clo[d] = lo[d] + float64(idx[d])*step
			if idx[d] == n[d]-1 {
				chi[d] = hi[d]
			} else {
				chi[d] = lo[d] + float64(idx[d]+1)*step
			}
		}
		out = append(out, newCell(clo, chi))
	})
	return out
}

// startingPoints returns the centres of the n-point sub-mesh of cell.
func startingPoints(cell queue.Simplex, n []int) [][]float64 {
	lo, hi := cell[0], cell[1]
	var out [][]float64
	forEachIndex(n, func(idx []int) {
		x := make([]float64, len(lo))
		for d := range lo {
			step := (hi[d] - lo[d]) / float64(n[d])
			x[d] = lo[d] + (float64(idx[d])+0.5)*step
		}
		out = append(out, x)
	})
	return out
}

// maxEdge returns the largest edge length of cell.
func maxEdge(cell queue.Simplex) float64 {
	var m float64
	for d := range cell[0] {
		m = math.Max(m, cell[1][d]-cell[0][d])
	}
	return m
}

// cellContains reports whether pos lies inside cell grown by margin on
// every side, with periodic wrapping over size.
func cellContains(cell queue.Simplex, pos coords.Point, margin float64, size []float64) bool {
	lo, hi := cell[0], cell[1]
	for d := range lo {
		half := (hi[d] - lo[d]) / 2
		delta := distance.MinimumImage(pos[d]-(lo[d]+half), size[d])
		if math.Abs(delta) > half+margin {
			return false
		}
	}
	return true
}

// PeriodicCanonicalizer shifts a cell so that its lower corner lies in
// the canonical domain of system, then applies queue.RoundCanonicalizer.
// Cells that are periodic images of each other share one key.
func PeriodicCanonicalizer(system coords.System) queue.Canonicalizer {
	return func(s queue.Simplex) queue.Simplex {
		if len(s) == 0 {
			return queue.RoundCanonicalizer(s)
		}
		ref := system.NormalizePosition(s[0])
		out := make(queue.Simplex, len(s))
		for i, v := range s {
			p := make(coords.Point, len(v))
			for d := range v {
				p[d] = v[d] + (ref[d] - s[0][d])
			}
			out[i] = p
		}
		out[0] = ref
		return queue.RoundCanonicalizer(out)
	}
}

// forEachIndex calls fn for every index of an n[0] x n[1] x ... grid in
// row-major order. fn must not retain idx.
func forEachIndex(n []int, fn func(idx []int)) {
	for _, v := range n {
		if v < 1 {
			return
		}
	}
	idx := make([]int, len(n))
	for {
		fn(idx)
		d := len(n) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < n[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
