package identify

import (
	"fmt"
	"math"

	"github.com/hupe1980/nodefinder/coords"
)

// Kind enumerates the shapes a cluster can be classified as.
type Kind int

const (
	// KindPoint is an isolated node (dimension 0).
	KindPoint Kind = iota
	// KindLine is a curve of nodes (dimension 1).
	KindLine
	// KindSurface is a sheet of nodes (dimension 2 or more).
	KindSurface
)

// String returns the lower-case name of k.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindSurface:
		return "surface"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Shape is the geometric summary of a cluster. The set of shapes is
// closed: *NodalPoint, *NodalLine and *NodalSurface.
type Shape interface {
	Kind() Kind
	shape()
}

// NodalPoint is an isolated node.
type NodalPoint struct {
	Position coords.Point `json:"position"`
}

// NodalLine is a curve of nodes. Path visits every position of the
// cluster once, ordered so that consecutive entries are close.
type NodalLine struct {
	Path []coords.Point `json:"path"`
}

// NodalSurface is a two- or higher-dimensional sheet of nodes.
type NodalSurface struct {
	Centroid  coords.Point   `json:"centroid"`
	Normal    []float64      `json:"normal"`
	Positions []coords.Point `json:"positions"`
}

func (*NodalPoint) Kind() Kind   { return KindPoint }
func (*NodalLine) Kind() Kind    { return KindLine }
func (*NodalSurface) Kind() Kind { return KindSurface }

func (*NodalPoint) shape()   {}
func (*NodalLine) shape()    {}
func (*NodalSurface) shape() {}

// EvaluateCluster builds the shape of a cluster with the given dimension.
// The cluster is not modified.
func EvaluateCluster(cluster Cluster, dim int, system coords.System, mapping *NeighbourMapping, featureSize float64) Shape {
	switch {
	case dim <= 0:
		return &NodalPoint{Position: periodicMean(cluster.Positions, system)}
	case dim == 1:
		return &NodalLine{Path: nearestNeighbourPath(cluster, system, mapping)}
	default:
		return evaluateSurface(cluster, system)
	}
}

func evaluateSurface(cluster Cluster, system coords.System) *NodalSurface {
	centroid := periodicMean(cluster.Positions, system)
	positions := make([]coords.Point, len(cluster.Positions))
	disp := make([][]float64, len(cluster.Positions))
	for i, p := range cluster.Positions {
		positions[i] = p.Clone()
		disp[i] = system.Displacement(centroid, p)
	}

	normal := make([]float64, system.Dim())
	if _, vecs := principalAxes(disp, true); vecs != nil {
		// Smallest spread comes first.
		for d := range normal {
			normal[d] = vecs.At(d, 0)
		}
	}
	orientNormal(normal)

	return &NodalSurface{Centroid: centroid, Normal: normal, Positions: positions}
}

// orientNormal flips v so that its largest component is positive.
func orientNormal(v []float64) {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	if len(v) > 0 && v[best] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

// nearestNeighbourPath orders the cluster into a chain. It starts at an
// end found by a double sweep over the neighbour graph, then repeatedly
// steps to the closest unvisited neighbour, falling back to the closest
// unvisited position when the neighbourhood is exhausted.
func nearestNeighbourPath(cluster Cluster, system coords.System, mapping *NeighbourMapping) []coords.Point {
	n := cluster.Len()
	if n == 0 {
		return nil
	}

	local := make(map[int]int, n)
	for k, idx := range cluster.Indices {
		local[idx] = k
	}

	start := farthest(cluster, mapping, local, farthest(cluster, mapping, local, 0))

	visited := make([]bool, n)
	path := make([]coords.Point, 0, n)
	cur := start
	for {
		visited[cur] = true
		path = append(path, cluster.Positions[cur].Clone())
		if len(path) == n {
			return path
		}

		next, best := -1, math.Inf(1)
		for _, nb := range mapping.Neighbours(cluster.Indices[cur]) {
			k, ok := local[nb.Index]
			if ok && !visited[k] && nb.Distance < best {
				next, best = k, nb.Distance
			}
		}
		if next < 0 {
			for k, d := range system.Distances(cluster.Positions[cur], cluster.Positions) {
				if !visited[k] && d < best {
					next, best = k, d
				}
			}
		}
		cur = next
	}
}

// farthest returns the member with the largest hop count from from.
func farthest(cluster Cluster, mapping *NeighbourMapping, local map[int]int, from int) int {
	dist := make([]int, cluster.Len())
	for i := range dist {
		dist[i] = -1
	}
	dist[from] = 0
	last := from
	frontier := []int{from}
	for len(frontier) > 0 {
		k := frontier[0]
		frontier = frontier[1:]
		last = k
		for _, nb := range mapping.Neighbours(cluster.Indices[k]) {
			j, ok := local[nb.Index]
			if ok && dist[j] < 0 {
				dist[j] = dist[k] + 1
				frontier = append(frontier, j)
			}
		}
	}
	return last
}
