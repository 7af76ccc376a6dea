// Package nodefinder locates the nodes of a gap function on a periodic
// domain and classifies them into nodal points, lines and surfaces.
//
// A gap function is a non-negative scalar function that vanishes exactly on
// the set of interest. nodefinder samples the domain with local searches,
// refines the cells where nodes were found down to a feature size, and then
// clusters the nodes and estimates the dimension of every cluster.
//
// # Quick Start
//
//	sys := coords.UnitCube(3)
//	gap := func(x []float64) float64 { return sys.Distance(x, coords.Point{0.5, 0.5, 0.5}) }
//
//	res, err := nodefinder.Run(ctx, gap, sys,
//	    nodefinder.WithGapThreshold(1e-4),
//	    nodefinder.WithFeatureSize(5e-2),
//	)
//	for _, r := range res.Identification.Results {
//	    fmt.Println(r.Shape.Kind(), len(r.Positions))
//	}
//
// # Checkpoints
//
// Long searches can be checkpointed into any blob store (local directory,
// memory, S3, MinIO) and resumed after an interruption:
//
//	store := persistence.NewStore(blobstore.NewLocalStore("./checkpoints"))
//	_, _, err := nodefinder.Search(ctx, gap, sys, nodefinder.WithCheckpointStore(store, time.Minute))
//	...
//	results, report, err := nodefinder.Resume(ctx, gap, nodefinder.WithCheckpointStore(store, time.Minute))
//
// # Packages
//
//   - coords, distance: periodic coordinate systems and metrics
//   - queue: the deduplicating simplex work queue
//   - minimize: local search (Nelder-Mead by default)
//   - search: the adaptive search controller and its result container
//   - identify: clustering, dimension estimation and shapes
//   - persistence, codec, blobstore: snapshots and their storage
//   - observability: Prometheus metrics
package nodefinder
