// Package persistence stores nodefinder records as self-describing snapshots.
//
// A snapshot is a small binary header followed by a payload:
//
//	magic | version | compression | codec name | size | raw size | crc32 | payload
//
// The payload is a tagged envelope {"tag": ..., "data": ...} produced by a
// Registry. Registries are explicit values; NewDefaultRegistry knows every
// record type of this module:
//
//	nodefinder.coordinate_system
//	nodefinder.simplex_queue
//	nodefinder.search_result_container
//	nodefinder.controller_state
//	nodefinder.identification_result_container
//
// Store writes snapshots to a blobstore.BlobStore and doubles as a
// search.Checkpointer, so a running search can be resumed after an
// interruption:
//
//	store := persistence.NewStore(blobstore.NewLocalStore(dir))
//	ctrl, _ := search.NewController(sys, gap, cfg, search.WithCheckpointer(store))
//	...
//	state, _ := store.LoadState(ctx)
//	ctrl, _ = search.ResumeController(state, gap, cfg)
package persistence
