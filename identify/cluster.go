package identify

import (
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/internal/celllist"
)

// cellListThreshold is the number of positions above which neighbour
// candidates come from a cell list instead of all pairs.
const cellListThreshold = 2048

// Neighbour is an entry of a NeighbourMapping.
type Neighbour struct {
	Index    int
	Distance float64
}

// NeighbourMapping stores deduplicated positions by index together with
// their neighbours, the positions within twice the feature size.
type NeighbourMapping struct {
	positions  []coords.Point
	index      map[coords.Key]int
	neighbours [][]Neighbour
}

// Len returns the number of distinct positions.
func (m *NeighbourMapping) Len() int { return len(m.positions) }

// Position returns the i-th distinct position.
func (m *NeighbourMapping) Position(i int) coords.Point { return m.positions[i] }

// Index returns the index of p, if p is part of the mapping.
func (m *NeighbourMapping) Index(p coords.Point) (int, bool) {
	i, ok := m.index[p.Key()]
	return i, ok
}

// Neighbours returns the neighbours of the i-th position ordered by index.
func (m *NeighbourMapping) Neighbours(i int) []Neighbour { return m.neighbours[i] }

// Cluster is one connected component of the neighbour graph.
type Cluster struct {
	// Indices into the NeighbourMapping, ascending.
	Indices []int
	// Positions matching Indices.
	Positions []coords.Point
}

// Len returns the number of positions in the cluster.
func (c Cluster) Len() int { return len(c.Indices) }

// CreateClusters groups positions into clusters. Two positions are
// neighbours if their periodic distance is at most 2 * featureSize;
// clusters are the connected components of that relation.
//
// Positions are normalized and deduplicated first. Clusters are returned
// in order of their first position.
func CreateClusters(positions []coords.Point, system coords.System, featureSize float64) ([]Cluster, *NeighbourMapping, error) {
	if !(featureSize > 0) || math.IsInf(featureSize, 0) {
		return nil, nil, fmt.Errorf("%w: %g", ErrInvalidFeatureSize, featureSize)
	}

	m := &NeighbourMapping{index: make(map[coords.Key]int, len(positions))}
	for _, p := range positions {
		p = system.NormalizePosition(p)
		k := p.Key()
		if _, ok := m.index[k]; ok {
			continue
		}
		m.index[k] = len(m.positions)
		m.positions = append(m.positions, p)
	}
	m.neighbours = make([][]Neighbour, len(m.positions))

	cutoff := 2 * featureSize
	if len(m.positions) > cellListThreshold {
		linkCellList(m, system, cutoff)
	} else {
		linkAllPairs(m, system, cutoff)
	}
	for i := range m.neighbours {
		slices.SortFunc(m.neighbours[i], func(a, b Neighbour) int { return a.Index - b.Index })
	}

	clusters := floodFill(m)
	if err := checkPartition(clusters, m.Len()); err != nil {
		return nil, nil, err
	}
	return clusters, m, nil
}

func linkAllPairs(m *NeighbourMapping, system coords.System, cutoff float64) {
	for i, p := range m.positions {
		rest := m.positions[i+1:]
		for k, d := range system.Distances(p, rest) {
			if d <= cutoff {
				link(m, i, i+1+k, d)
			}
		}
	}
}

func linkCellList(m *NeighbourMapping, system coords.System, cutoff float64) {
	cl := celllist.New[int](celllist.NumCellsFor(system.Size(), cutoff))
	fracs := make([][]float64, len(m.positions))
	for i, p := range m.positions {
		fracs[i] = system.Frac(p)
		cl.AddPoint(fracs[i], i)
	}
	for i, p := range m.positions {
		for _, j := range cl.NeighbourValues(fracs[i], true) {
			if j <= i {
				continue
			}
			if d := system.Distance(p, m.positions[j]); d <= cutoff {
				link(m, i, j, d)
			}
		}
	}
}

func link(m *NeighbourMapping, i, j int, d float64) {
	m.neighbours[i] = append(m.neighbours[i], Neighbour{Index: j, Distance: d})
	m.neighbours[j] = append(m.neighbours[j], Neighbour{Index: i, Distance: d})
}

func floodFill(m *NeighbourMapping) []Cluster {
	visited := roaring.New()
	var clusters []Cluster

	for start := range m.positions {
		if visited.Contains(uint32(start)) {
			continue
		}
		visited.Add(uint32(start))

		members := []int{start}
		frontier := []int{start}
		for len(frontier) > 0 {
			i := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
			for _, n := range m.neighbours[i] {
				if visited.CheckedAdd(uint32(n.Index)) {
					members = append(members, n.Index)
					frontier = append(frontier, n.Index)
				}
			}
		}

		slices.Sort(members)
		c := Cluster{Indices: members, Positions: make([]coords.Point, len(members))}
		for k, idx := range members {
			c.Positions[k] = m.positions[idx].Clone()
		}
		clusters = append(clusters, c)
	}
	return clusters
}

// checkPartition verifies that clusters are pairwise disjoint and cover
// all n positions.
func checkPartition(clusters []Cluster, n int) error {
	seen := roaring.New()
	for ci, c := range clusters {
		for _, idx := range c.Indices {
			if !seen.CheckedAdd(uint32(idx)) {
				return fmt.Errorf("%w: position %d appears in more than one cluster (cluster %d)", ErrNeighbourMappingInconsistency, idx, ci)
			}
		}
	}
	if int(seen.GetCardinality()) != n {
		return fmt.Errorf("%w: clusters cover %d of %d positions", ErrNeighbourMappingInconsistency, seen.GetCardinality(), n)
	}
	return nil
}
