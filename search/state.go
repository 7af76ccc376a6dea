package search

import (
	"context"

	"github.com/hupe1980/nodefinder/queue"
)

// State is the resumable state of a search: the outstanding simplices
// (interrupted ones first) and the results collected so far.
type State struct {
	Queue   []queue.Simplex
	Results *ResultContainer
}

// RecordTag identifies State in persisted snapshots.
func (*State) RecordTag() string { return "nodefinder.controller_state" }

// RecordTag identifies ResultContainer in persisted snapshots.
func (*ResultContainer) RecordTag() string { return "nodefinder.search_result_container" }

// Finished reports whether no simplices are outstanding.
func (s *State) Finished() bool { return len(s.Queue) == 0 }

// Checkpointer persists the state of a running search.
//
// Checkpoint is called from the controller goroutine while the search is
// paused between two simplices; implementations must not retain state
// beyond the call.
type Checkpointer interface {
	Checkpoint(ctx context.Context, state *State) error
}

// CheckpointFunc adapts a function to the Checkpointer interface.
type CheckpointFunc func(ctx context.Context, state *State) error

// Checkpoint implements Checkpointer.
func (fn CheckpointFunc) Checkpoint(ctx context.Context, state *State) error {
	return fn(ctx, state)
}
