package queue

import (
	"errors"
	"fmt"
)

// ErrQueueState indicates the controller and the queue disagree about the
// lifecycle of a simplex. It is a protocol error and must not be ignored.
var ErrQueueState = errors.New("queue: invalid queue state")

var (
	// ErrEmptyQueue is returned by PopQueued when nothing is queued.
	ErrEmptyQueue = fmt.Errorf("%w: no queued simplices", ErrQueueState)

	// ErrNotRunning is returned by SetFinished for a simplex that is not running.
	ErrNotRunning = fmt.Errorf("%w: simplex is not running", ErrQueueState)
)
