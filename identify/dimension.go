package identify

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nodefinder/coords"
)

// localDimensionRatio is the fraction of the largest principal spread a
// direction needs to count towards the local dimension.
const localDimensionRatio = 0.25

// EstimateDimension guesses the dimension of the manifold a cluster
// samples.
//
// A cluster that fits within featureSize of its mean is a point (0).
// Otherwise every position gets a local dimension from a principal
// component analysis of the displacements to its neighbours: the number
// of principal axes whose spread exceeds a quarter of the largest one.
// The cluster dimension is the median of the local dimensions, rounded
// up, and clamped to [1, system.Dim()].
func EstimateDimension(cluster Cluster, mapping *NeighbourMapping, system coords.System, featureSize float64) int {
	if cluster.Len() == 0 {
		return 0
	}
	if extent(cluster.Positions, system) <= featureSize {
		return 0
	}

	dim := system.Dim()
	local := make([]int, 0, cluster.Len())
	for _, i := range cluster.Indices {
		p := mapping.Position(i)
		disp := make([][]float64, 0, len(mapping.Neighbours(i))+1)
		disp = append(disp, make([]float64, dim))
		for _, n := range mapping.Neighbours(i) {
			disp = append(disp, system.Displacement(p, mapping.Position(n.Index)))
		}
		local = append(local, localDimension(disp))
	}

	slices.Sort(local)
	n := len(local)
	med := local[n/2]
	if n%2 == 0 {
		med = (local[n/2-1] + local[n/2] + 1) / 2
	}
	return max(1, min(med, dim))
}

// localDimension counts the significant principal axes of vs.
func localDimension(vs [][]float64) int {
	if len(vs) < 2 {
		return 0
	}
	vals, _ := principalAxes(vs, false)
	if vals == nil {
		return 0
	}
	largest := math.Sqrt(math.Max(vals[len(vals)-1], 0))
	if largest == 0 {
		return 0
	}
	count := 0
	for _, v := range vals {
		if math.Sqrt(math.Max(v, 0)) > localDimensionRatio*largest {
			count++
		}
	}
	return count
}

// principalAxes returns the eigenvalues of the covariance of vs in
// ascending order and, if requested, the matching eigenvectors as columns.
func principalAxes(vs [][]float64, vectors bool) ([]float64, *mat.Dense) {
	dim := len(vs[0])
	mean := make([]float64, dim)
	for _, v := range vs {
		for d, x := range v {
			mean[d] += x
		}
	}
	for d := range mean {
		mean[d] /= float64(len(vs))
	}

	cov := mat.NewSymDense(dim, nil)
	for _, v := range vs {
		for a := 0; a < dim; a++ {
			da := v[a] - mean[a]
			for b := a; b < dim; b++ {
				cov.SetSym(a, b, cov.At(a, b)+da*(v[b]-mean[b]))
			}
		}
	}
	cov.ScaleSym(1/float64(len(vs)), cov)

	var eig mat.EigenSym
	if !eig.Factorize(cov, vectors) {
		return nil, nil
	}
	vals := eig.Values(nil)
	if !vectors {
		return vals, nil
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	return vals, &vecs
}

// extent returns the largest periodic distance from the mean of ps to
// any of them.
func extent(ps []coords.Point, system coords.System) float64 {
	center := periodicMean(ps, system)
	var out float64
	for _, d := range system.Distances(center, ps) {
		out = math.Max(out, d)
	}
	return out
}

// periodicMean averages ps by their minimum-image displacements from the
// first position.
func periodicMean(ps []coords.Point, system coords.System) coords.Point {
	ref := ps[0]
	sum := make([]float64, len(ref))
	for _, p := range ps[1:] {
		for d, x := range system.Displacement(ref, p) {
			sum[d] += x
		}
	}
	out := make(coords.Point, len(ref))
	for d := range out {
		out[d] = ref[d] + sum[d]/float64(len(ps))
	}
	return system.NormalizePosition(out)
}
