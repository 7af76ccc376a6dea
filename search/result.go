package search

import (
	"iter"
	"sync"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/internal/celllist"
	"github.com/hupe1980/nodefinder/minimize"
)

// ResultContainer stores the minimization results of a search, split into
// accepted nodes and rejected results.
//
// A result is accepted iff it succeeded and its value is at most the gap
// threshold. Accepted results are indexed in a periodic cell list whose
// cells are at least DistCutoff wide, so neighbour queries only inspect the
// surrounding cells.
//
// ResultContainer is safe for concurrent use.
type ResultContainer struct {
	mu sync.RWMutex

	system       coords.System
	gapThreshold float64
	distCutoff   float64

	nodes    *celllist.CellList[minimize.Result]
	rejected []minimize.Result
}

// NewResultContainer creates a container and adds results in order.
func NewResultContainer(system coords.System, gapThreshold, distCutoff float64, results ...minimize.Result) *ResultContainer {
	c := &ResultContainer{
		system:       system,
		gapThreshold: gapThreshold,
		distCutoff:   distCutoff,
		nodes:        celllist.New[minimize.Result](celllist.NumCellsFor(system.Size(), distCutoff)),
	}
	for _, res := range results {
		c.AddResult(res)
	}
	return c
}

// AddResult normalizes the position of res, classifies it and stores it.
// It reports whether the result was accepted.
func (c *ResultContainer) AddResult(res minimize.Result) bool {
	res = res.Clone()
	res.Pos = c.system.NormalizePosition(res.Pos)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.accepts(res) {
		c.rejected = append(c.rejected, res)
		return false
	}
	c.nodes.AddPoint(c.system.Frac(res.Pos), res)
	return true
}

func (c *ResultContainer) accepts(res minimize.Result) bool {
	return res.Success && res.Value <= c.gapThreshold
}

// NeighbourDistances lazily yields the periodic distances from pos to the
// accepted nodes in the neighbouring cells. Nodes located exactly at pos
// are skipped. The candidates are collected when iteration starts.
func (c *ResultContainer) NeighbourDistances(pos coords.Point) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, n := range c.neighbours(pos) {
			if !yield(c.system.Distance(pos, n)) {
				return
			}
		}
	}
}

// AllNeighbourDistances returns the distances NeighbourDistances yields.
func (c *ResultContainer) AllNeighbourDistances(pos coords.Point) []float64 {
	return c.system.Distances(pos, c.neighbours(pos))
}

func (c *ResultContainer) neighbours(pos coords.Point) []coords.Point {
	frac := c.system.Frac(pos)

	c.mu.RLock()
	candidates := c.nodes.NeighbourValues(frac, true)
	c.mu.RUnlock()

	out := make([]coords.Point, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Pos.Equal(pos) {
			continue
		}
		out = append(out, cand.Pos)
	}
	return out
}

// Accepted returns copies of the accepted results in insertion order.
func (c *ResultContainer) Accepted() []minimize.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneResults(c.nodes.Values())
}

// Rejected returns copies of the rejected results in insertion order.
func (c *ResultContainer) Rejected() []minimize.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneResults(c.rejected)
}

// MinimizationResults returns all results, accepted first.
func (c *ResultContainer) MinimizationResults() []minimize.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := cloneResults(c.nodes.Values())
	return append(out, cloneResults(c.rejected)...)
}

// Positions returns the positions of the accepted results.
func (c *ResultContainer) Positions() []coords.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nodes := c.nodes.Values()
	out := make([]coords.Point, len(nodes))
	for i, n := range nodes {
		out[i] = n.Pos.Clone()
	}
	return out
}

// Len returns the number of stored results.
func (c *ResultContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodes.Len() + len(c.rejected)
}

// NumAccepted returns the number of accepted results.
func (c *ResultContainer) NumAccepted() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodes.Len()
}

// GapThreshold returns the acceptance threshold.
func (c *ResultContainer) GapThreshold() float64 { return c.gapThreshold }

// DistCutoff returns the minimum cell size of the neighbour index.
func (c *ResultContainer) DistCutoff() float64 { return c.distCutoff }

// System returns the coordinate system of the stored positions.
func (c *ResultContainer) System() coords.System { return c.system }

func cloneResults(in []minimize.Result) []minimize.Result {
	out := make([]minimize.Result, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
