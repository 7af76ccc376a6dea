// Package coords defines the periodic coordinate systems positions live in.
//
// Every position handed around by the search and identify stages is a Point in
// canonical form: each component reduced into the half-open interval of its
// dimension. Two points that describe the same physical location therefore
// have the same Key.
//
//	box := coords.UnitCube(3)
//	p := box.NormalizePosition(coords.Point{1.25, -0.5, 0.5}) // {0.25, 0.5, 0.5}
//	d := box.Distance(coords.Point{0.01, 0, 0}, coords.Point{0.99, 0, 0}) // 0.02
package coords
