// Package testutil provides testing utilities for nodefinder.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random point generators, synthetic point sets on
// lines and planes, and reference gap functions with known nodes.
//
// # Random Points
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(coords.UnitCube(3), 100)
//
// # Reference Gap Functions
//
//	gap := testutil.PointGap(box.Size(), []float64{0.5, 0.5, 0.5})
//	line := testutil.LineGap(box.Size(), []float64{0, 0.25, 0.75}, 0)
package testutil
