package search

import "time"

// MetricsCollector receives operational metrics from a search.
//
// Implementations must be safe for concurrent use; RecordMinimization is
// called from worker goroutines.
type MetricsCollector interface {
	// RecordMinimization is called after each local search. accepted reports
	// whether the result passed the gap threshold; err is non-nil only when
	// the minimization was interrupted.
	RecordMinimization(duration time.Duration, accepted bool, err error)

	// RecordSimplex is called after a simplex has been processed. added is
	// the number of child simplices that were queued.
	RecordSimplex(duration time.Duration, added int, err error)

	// RecordQueue reports the queue depth after each simplex.
	RecordQueue(queued, running int)

	// RecordCheckpoint is called after each checkpoint attempt.
	RecordCheckpoint(duration time.Duration, err error)

	// RecordIdentify is called after an identification run.
	RecordIdentify(clusters int, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMinimization(time.Duration, bool, error) {}
func (NoopMetricsCollector) RecordSimplex(time.Duration, int, error)       {}
func (NoopMetricsCollector) RecordQueue(int, int)                          {}
func (NoopMetricsCollector) RecordCheckpoint(time.Duration, error)         {}
func (NoopMetricsCollector) RecordIdentify(int, time.Duration, error)      {}
