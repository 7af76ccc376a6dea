package identify

import (
	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/distance"
)

// Segments splits a path into runs that can be drawn as connected lines.
// A new segment starts wherever two consecutive positions are more than
// 2 * featureSize apart in canonical (non-periodic) coordinates, which
// happens where the path crosses the periodic boundary.
func Segments(path []coords.Point, featureSize float64) [][]coords.Point {
	if len(path) == 0 {
		return nil
	}
	var out [][]coords.Point
	start := 0
	for i := 1; i < len(path); i++ {
		if distance.Euclidean(path[i-1], path[i]) > 2*featureSize {
			out = append(out, path[start:i])
			start = i
		}
	}
	return append(out, path[start:])
}
