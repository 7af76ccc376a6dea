// Package queue implements the resumable work queue of mesh-refinement tasks.
//
// A SimplexQueue keeps one canonical table of every simplex it has ever seen
// and three index sets over it: the FIFO of queued ids, the set of running
// ids, and the key index used for deduplication. A simplex moves
//
//	queued --PopQueued--> running --SetFinished--> done
//
// and never re-enters the queue within one run. Simplices returns running
// entries ahead of queued ones, so a queue rebuilt from a snapshot retries
// interrupted work first.
package queue
