package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/testutil"
)

func classify(t *testing.T, positions []coords.Point, box coords.System, fs float64) (Cluster, int, Shape) {
	t.Helper()
	clusters, m, err := CreateClusters(positions, box, fs)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	dim := EstimateDimension(clusters[0], m, box, fs)
	return clusters[0], dim, EvaluateCluster(clusters[0], dim, box, m, fs)
}

func TestEvaluateCluster_Point(t *testing.T) {
	box := coords.UnitCube(3)
	rng := testutil.NewRNG(11)
	center := coords.Point{0.5, 0.25, 0.75}

	_, dim, shape := classify(t, rng.Jitter(box, center, 40, 1e-4), box, 2e-3)
	assert.Equal(t, 0, dim)

	p, ok := shape.(*NodalPoint)
	require.True(t, ok, "got %T", shape)
	assert.Equal(t, KindPoint, p.Kind())
	assert.Less(t, box.Distance(p.Position, center), 1e-4)
}

func TestEvaluateCluster_PointAcrossBoundary(t *testing.T) {
	box := coords.UnitCube(2)
	positions := []coords.Point{{0.999, 0.5}, {0.001, 0.5}}

	_, dim, shape := classify(t, positions, box, 2e-3)
	assert.Equal(t, 0, dim)

	p := shape.(*NodalPoint)
	assert.Less(t, box.Distance(p.Position, coords.Point{0, 0.5}), 1e-9)
}

func TestEvaluateCluster_SinglePosition(t *testing.T) {
	box := coords.UnitCube(3)
	_, dim, shape := classify(t, []coords.Point{{0.1, 0.2, 0.3}}, box, 1e-3)
	assert.Equal(t, 0, dim)
	assert.Equal(t, coords.Point{0.1, 0.2, 0.3}, shape.(*NodalPoint).Position)
}

func TestEvaluateCluster_Line(t *testing.T) {
	box := coords.UnitCube(3)
	positions := testutil.LinePoints(box, coords.Point{0, 0.5, 0.5}, 0, 200)

	cluster, dim, shape := classify(t, positions, box, 5e-3)
	assert.Equal(t, 1, dim)

	line, ok := shape.(*NodalLine)
	require.True(t, ok, "got %T", shape)
	assert.Equal(t, KindLine, line.Kind())
	require.Len(t, line.Path, cluster.Len())

	seen := make(map[coords.Key]bool, len(line.Path))
	for _, p := range line.Path {
		seen[p.Key()] = true
	}
	for _, p := range cluster.Positions {
		assert.True(t, seen[p.Key()], "missing %v", p)
	}
}

func TestEvaluateCluster_OpenLineStartsAtAnEnd(t *testing.T) {
	box := coords.UnitCube(2)
	var positions []coords.Point
	for i := 0; i < 20; i++ {
		positions = append(positions, coords.Point{0.25 + float64(i)*0.01, 0.5})
	}

	_, dim, shape := classify(t, positions, box, 0.008)
	assert.Equal(t, 1, dim)

	path := shape.(*NodalLine).Path
	require.Len(t, path, 20)
	ends := []coords.Key{positions[0].Key(), positions[19].Key()}
	assert.Contains(t, ends, path[0].Key())
	for i := 1; i < len(path); i++ {
		assert.InDelta(t, 0.01, box.Distance(path[i-1], path[i]), 1e-9)
	}
}

func TestEvaluateCluster_Surface(t *testing.T) {
	box := coords.UnitCube(3)
	positions := testutil.PlanePoints(box, coords.Point{0, 0, 0.3}, 0, 1, 40)

	cluster, dim, shape := classify(t, positions, box, 0.02)
	assert.Equal(t, 2, dim)

	s, ok := shape.(*NodalSurface)
	require.True(t, ok, "got %T", shape)
	assert.Equal(t, KindSurface, s.Kind())
	assert.InDeltaSlice(t, []float64{0, 0, 1}, s.Normal, 1e-9)
	assert.InDelta(t, 0.3, s.Centroid[2], 1e-12)
	assert.Len(t, s.Positions, cluster.Len())
}

func TestEstimateDimension_FullTorus(t *testing.T) {
	box := coords.UnitCube(2)
	positions := testutil.PlanePoints(box, coords.Point{0, 0}, 0, 1, 20)

	_, dim, shape := classify(t, positions, box, 0.04)
	assert.Equal(t, 2, dim)
	assert.Equal(t, KindSurface, shape.Kind())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "point", KindPoint.String())
	assert.Equal(t, "line", KindLine.String())
	assert.Equal(t, "surface", KindSurface.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestShape_Kind(t *testing.T) {
	tests := []struct {
		shape Shape
		want  Kind
	}{
		{&NodalPoint{}, KindPoint},
		{&NodalLine{}, KindLine},
		{&NodalSurface{}, KindSurface},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.Kind())
		})
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		path []coords.Point
		want int
	}{
		{"Empty", nil, 0},
		{"Single", []coords.Point{{0.5}}, 1},
		{"Connected", []coords.Point{{0.1}, {0.105}, {0.11}}, 1},
		{"Wrapped", []coords.Point{{0.98}, {0.99}, {0.001}, {0.011}}, 2},
		{"TwoJumps", []coords.Point{{0.1}, {0.5}, {0.9}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Segments(tt.path, 0.01)
			require.Len(t, segs, tt.want)

			var total int
			for _, s := range segs {
				total += len(s)
			}
			assert.Equal(t, len(tt.path), total)
		})
	}
}
