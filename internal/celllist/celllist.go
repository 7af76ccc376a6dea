package celllist

import "math"

const (
	// MinCells is the lower bound of cells per dimension.
	MinCells = 1
	// MaxCells is the upper bound of cells per dimension.
	MaxCells = 100
)

// NumCellsFor returns the number of cells per dimension for a domain of the
// given size and a neighbour cutoff: floor(size/cutoff) clipped into
// [MinCells, MaxCells]. A zero cutoff selects MaxCells.
//
// A cell is therefore never narrower than the cutoff (unless clipped at
// MaxCells, where it is wider), so every point within the cutoff of a query
// lies in the query cell or one of its direct neighbours.
func NumCellsFor(size []float64, cutoff float64) []int {
	n := make([]int, len(size))
	for i, s := range size {
		if cutoff <= 0 {
			n[i] = MaxCells
			continue
		}
		c := math.Floor(s / cutoff)
		switch {
		case c < MinCells || math.IsNaN(c):
			n[i] = MinCells
		case c > MaxCells:
			n[i] = MaxCells
		default:
			n[i] = int(c)
		}
	}
	return n
}

type entry[T any] struct {
	frac  []float64
	value T
}

// CellList buckets payloads by the grid cell of their fractional position.
//
// It is not safe for concurrent mutation.
type CellList[T any] struct {
	numCells []int
	strides  []int
	cells    map[int][]int
	entries  []entry[T]
}

// New creates an empty cell list with numCells cells per dimension.
// Values outside [MinCells, MaxCells] are clipped.
func New[T any](numCells []int) *CellList[T] {
	n := make([]int, len(numCells))
	strides := make([]int, len(numCells))
	stride := 1
	for i := len(numCells) - 1; i >= 0; i-- {
		n[i] = min(max(numCells[i], MinCells), MaxCells)
		strides[i] = stride
		stride *= n[i]
	}
	return &CellList[T]{
		numCells: n,
		strides:  strides,
		cells:    make(map[int][]int),
	}
}

// NumCells returns the number of cells per dimension.
func (c *CellList[T]) NumCells() []int {
	out := make([]int, len(c.numCells))
	copy(out, c.numCells)
	return out
}

// Len returns the number of stored points.
func (c *CellList[T]) Len() int {
	return len(c.entries)
}

// AddPoint stores v at the fractional position frac.
func (c *CellList[T]) AddPoint(frac []float64, v T) {
	idx := c.flatIndex(c.cellIndex(frac))
	f := make([]float64, len(frac))
	copy(f, frac)
	c.entries = append(c.entries, entry[T]{frac: f, value: v})
	c.cells[idx] = append(c.cells[idx], len(c.entries)-1)
}

// Values returns all payloads in insertion order.
func (c *CellList[T]) Values() []T {
	out := make([]T, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.value
	}
	return out
}

// NeighbourValues returns the payloads stored in the cell of frac and in all
// directly adjacent cells. With periodic set, adjacent indices wrap around
// modulo the cell count; otherwise cells beyond the grid are skipped.
// Every cell contributes at most once.
func (c *CellList[T]) NeighbourValues(frac []float64, periodic bool) []T {
	var out []T
	c.visitNeighbourCells(c.cellIndex(frac), periodic, func(flat int) {
		for _, ei := range c.cells[flat] {
			out = append(out, c.entries[ei].value)
		}
	})
	return out
}

func (c *CellList[T]) cellIndex(frac []float64) []int {
	idx := make([]int, len(c.numCells))
	for i, n := range c.numCells {
		f := frac[i] - math.Floor(frac[i])
		k := int(f * float64(n))
		if k >= n {
			k = n - 1
		}
		if k < 0 {
			k = 0
		}
		idx[i] = k
	}
	return idx
}

func (c *CellList[T]) flatIndex(idx []int) int {
	flat := 0
	for i, k := range idx {
		flat += k * c.strides[i]
	}
	return flat
}

func (c *CellList[T]) visitNeighbourCells(center []int, periodic bool, fn func(flat int)) {
	dim := len(center)
	offset := make([]int, dim)
	for i := range offset {
		offset[i] = -1
	}
	seen := make(map[int]struct{})
	cur := make([]int, dim)

	for {
		valid := true
		for i := 0; i < dim; i++ {
			k := center[i] + offset[i]
			n := c.numCells[i]
			if k < 0 || k >= n {
				if !periodic {
					valid = false
					break
				}
				k = ((k % n) + n) % n
			}
			cur[i] = k
		}
		if valid {
			flat := c.flatIndex(cur)
			if _, ok := seen[flat]; !ok {
				seen[flat] = struct{}{}
				fn(flat)
			}
		}

		// Advance the offset odometer over {-1, 0, 1}^dim.
		i := 0
		for ; i < dim; i++ {
			offset[i]++
			if offset[i] <= 1 {
				break
			}
			offset[i] = -1
		}
		if i == dim {
			return
		}
	}
}
