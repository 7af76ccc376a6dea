package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/queue"
)

func TestInitialCells(t *testing.T) {
	box, err := coords.NewBox([][2]float64{{-1, 1}, {0, 3}})
	require.NoError(t, err)

	cells := initialCells(box, []int{2, 3})
	require.Len(t, cells, 6)
	assert.Equal(t, queue.Simplex{{-1, 0}, {0, 1}}, cells[0])
	assert.Equal(t, queue.Simplex{{0, 2}, {1, 3}}, cells[5])

	var volume float64
	for _, c := range cells {
		volume += (c[1][0] - c[0][0]) * (c[1][1] - c[0][1])
	}
	assert.InDelta(t, 6.0, volume, 1e-12)
}

func TestSubdivide(t *testing.T) {
	cell := newCell(coords.Point{0, 0}, coords.Point{1, 0.5})
	children := subdivide(cell, []int{2, 2})
	require.Len(t, children, 4)
	assert.Equal(t, queue.Simplex{{0, 0}, {0.5, 0.25}}, children[0])
	assert.Equal(t, queue.Simplex{{0, 0.25}, {0.5, 0.5}}, children[1])
	assert.Equal(t, queue.Simplex{{0.5, 0.25}, {1, 0.5}}, children[3])

	assert.Len(t, subdivide(cell, []int{3, 1}), 3)
}

func TestStartingPoints(t *testing.T) {
	cell := newCell(coords.Point{0, 0, 0}, coords.Point{1, 1, 1})
	starts := startingPoints(cell, []int{2, 2, 2})
	require.Len(t, starts, 8)
	assert.Equal(t, []float64{0.25, 0.25, 0.25}, starts[0])
	assert.Equal(t, []float64{0.75, 0.75, 0.75}, starts[7])

	single := startingPoints(cell, []int{1, 1, 1})
	assert.Equal(t, [][]float64{{0.5, 0.5, 0.5}}, single)
}

func TestMaxEdge(t *testing.T) {
	assert.Equal(t, 0.5, maxEdge(newCell(coords.Point{0, 0}, coords.Point{0.25, 0.5})))
}

func TestCellContains(t *testing.T) {
	size := []float64{1, 1}
	cell := newCell(coords.Point{0, 0}, coords.Point{0.25, 0.25})

	tests := []struct {
		name   string
		pos    coords.Point
		margin float64
		want   bool
	}{
		{"Inside", coords.Point{0.1, 0.1}, 0, true},
		{"Corner", coords.Point{0.25, 0.25}, 0, true},
		{"OutsideNoMargin", coords.Point{0.27, 0.1}, 0, false},
		{"InsideMargin", coords.Point{0.27, 0.1}, 0.05, true},
		{"WrapsAcrossBoundary", coords.Point{0.98, 0.1}, 0.05, true},
		{"FarAway", coords.Point{0.6, 0.6}, 0.05, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellContains(cell, tt.pos, tt.margin, size))
		})
	}
}

func TestPeriodicCanonicalizer(t *testing.T) {
	box := coords.UnitCube(2)
	canon := PeriodicCanonicalizer(box)

	a := newCell(coords.Point{0.5, 0.25}, coords.Point{0.75, 0.5})
	shifted := newCell(coords.Point{1.5, -0.75}, coords.Point{1.75, -0.5})

	assert.Equal(t, canon(a).Key(), canon(shifted).Key())
	assert.Equal(t, canon(a).Key(), canon(canon(a)).Key())
	assert.Equal(t, queue.Simplex{{0.5, 0.25}, {0.75, 0.5}}, canon(shifted))

	q := queue.New([]queue.Simplex{a}, queue.WithCanonicalizer(canon))
	assert.Zero(t, q.AddSimplices([]queue.Simplex{shifted}))
}

func TestForEachIndex(t *testing.T) {
	var got [][]int
	forEachIndex([]int{2, 3}, func(idx []int) {
		got = append(got, append([]int(nil), idx...))
	})
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, got)

	calls := 0
	forEachIndex([]int{2, 0}, func([]int) { calls++ })
	assert.Zero(t, calls)
}
