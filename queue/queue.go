package queue

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Option configures a SimplexQueue.
type Option func(*SimplexQueue)

// WithCanonicalizer sets the function used to bring submitted simplices into
// canonical form. If nil is passed, RoundCanonicalizer is used.
func WithCanonicalizer(fn Canonicalizer) Option {
	return func(q *SimplexQueue) {
		if fn == nil {
			fn = RoundCanonicalizer
		}
		q.canon = fn
	}
}

// SimplexQueue is a FIFO of simplices with running/finished bookkeeping and
// deduplication.
//
// It is not safe for concurrent use; the search controller is its only writer.
type SimplexQueue struct {
	canon Canonicalizer

	table []Simplex      // every simplex ever seen, by id
	index map[Key]uint32 // all-seen set: key -> id

	queued  []uint32 // FIFO of ids; head at queued[head]
	head    int
	running *roaring.Bitmap
}

// New creates a queue holding the given simplices, queued in order.
// Duplicates (after canonicalization) are dropped.
func New(simplices []Simplex, optFns ...Option) *SimplexQueue {
	q := &SimplexQueue{
		canon:   RoundCanonicalizer,
		index:   make(map[Key]uint32),
		running: roaring.New(),
	}
	for _, fn := range optFns {
		fn(q)
	}
	q.AddSimplices(simplices)
	return q
}

// AddSimplices queues every simplex that has not been seen before and returns
// how many were added. Re-submitting a known simplex is a no-op.
func (q *SimplexQueue) AddSimplices(simplices []Simplex) int {
	added := 0
	for _, s := range simplices {
		c := q.canon(s)
		key := c.Key()
		if _, ok := q.index[key]; ok {
			continue
		}
		id := uint32(len(q.table))
		q.table = append(q.table, c)
		q.index[key] = id
		q.queued = append(q.queued, id)
		added++
	}
	return added
}

// PopQueued removes the head of the queue, marks it running and returns it.
func (q *SimplexQueue) PopQueued() (Simplex, error) {
	if q.head >= len(q.queued) {
		return nil, ErrEmptyQueue
	}
	id := q.queued[q.head]
	q.head++
	// Compact once the consumed prefix dominates the backing slice.
	if q.head > 64 && q.head*2 > len(q.queued) {
		q.queued = append(q.queued[:0:0], q.queued[q.head:]...)
		q.head = 0
	}
	q.running.Add(id)
	return q.table[id].Clone(), nil
}

// SetFinished marks a running simplex as done.
func (q *SimplexQueue) SetFinished(s Simplex) error {
	id, ok := q.index[s.Key()]
	if !ok {
		id, ok = q.index[q.canon(s).Key()]
	}
	if !ok || !q.running.Contains(id) {
		return ErrNotRunning
	}
	q.running.Remove(id)
	return nil
}

// Simplices returns the running simplices followed by the queued ones.
//
// Running simplices come first so that a queue rebuilt from this list
// re-samples interrupted work before untouched work.
func (q *SimplexQueue) Simplices() []Simplex {
	out := make([]Simplex, 0, int(q.running.GetCardinality())+q.NumQueued())
	it := q.running.Iterator()
	for it.HasNext() {
		out = append(out, q.table[it.Next()].Clone())
	}
	for _, id := range q.queued[q.head:] {
		out = append(out, q.table[id].Clone())
	}
	return out
}

// HasQueued reports whether at least one simplex is waiting.
func (q *SimplexQueue) HasQueued() bool {
	return q.head < len(q.queued)
}

// NumQueued returns the number of waiting simplices.
func (q *SimplexQueue) NumQueued() int {
	return len(q.queued) - q.head
}

// NumRunning returns the number of dispatched, unfinished simplices.
func (q *SimplexQueue) NumRunning() int {
	return int(q.running.GetCardinality())
}

// NumSeen returns the number of distinct simplices ever submitted.
func (q *SimplexQueue) NumSeen() int {
	return len(q.table)
}

// Finished reports whether nothing is queued or running.
func (q *SimplexQueue) Finished() bool {
	return !q.HasQueued() && q.running.IsEmpty()
}

// RecordTag identifies SimplexQueue in persisted snapshots.
func (*SimplexQueue) RecordTag() string { return "nodefinder.simplex_queue" }
