package nodefinder

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/nodefinder/search"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems;
// observability.PrometheusCollector is a ready-made Prometheus
// implementation.
type MetricsCollector = search.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector = search.NoopMetricsCollector

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Minimizations          atomic.Int64
	AcceptedMinimizations  atomic.Int64
	MinimizationErrors     atomic.Int64
	MinimizationTotalNanos atomic.Int64
	Simplices              atomic.Int64
	SimplexErrors          atomic.Int64
	SimplexTotalNanos      atomic.Int64
	RefinedSimplices       atomic.Int64
	Queued                 atomic.Int64
	Running                atomic.Int64
	Checkpoints            atomic.Int64
	CheckpointErrors       atomic.Int64
	IdentifyRuns           atomic.Int64
	Clusters               atomic.Int64
}

// Compile time check to ensure BasicMetricsCollector satisfies the MetricsCollector interface.
var _ MetricsCollector = (*BasicMetricsCollector)(nil)

// RecordMinimization implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMinimization(duration time.Duration, accepted bool, err error) {
	b.Minimizations.Add(1)
	b.MinimizationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MinimizationErrors.Add(1)
		return
	}
	if accepted {
		b.AcceptedMinimizations.Add(1)
	}
}

// RecordSimplex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSimplex(duration time.Duration, added int, err error) {
	b.Simplices.Add(1)
	b.SimplexTotalNanos.Add(duration.Nanoseconds())
	b.RefinedSimplices.Add(int64(added))
	if err != nil {
		b.SimplexErrors.Add(1)
	}
}

// RecordQueue implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQueue(queued, running int) {
	b.Queued.Store(int64(queued))
	b.Running.Store(int64(running))
}

// RecordCheckpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpoint(_ time.Duration, err error) {
	b.Checkpoints.Add(1)
	if err != nil {
		b.CheckpointErrors.Add(1)
	}
}

// RecordIdentify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIdentify(clusters int, _ time.Duration, err error) {
	b.IdentifyRuns.Add(1)
	if err == nil {
		b.Clusters.Store(int64(clusters))
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Minimizations:         b.Minimizations.Load(),
		AcceptedMinimizations: b.AcceptedMinimizations.Load(),
		MinimizationErrors:    b.MinimizationErrors.Load(),
		MinimizationAvgNanos:  avg(b.MinimizationTotalNanos.Load(), b.Minimizations.Load()),
		Simplices:             b.Simplices.Load(),
		SimplexErrors:         b.SimplexErrors.Load(),
		SimplexAvgNanos:       avg(b.SimplexTotalNanos.Load(), b.Simplices.Load()),
		RefinedSimplices:      b.RefinedSimplices.Load(),
		Queued:                b.Queued.Load(),
		Running:               b.Running.Load(),
		Checkpoints:           b.Checkpoints.Load(),
		CheckpointErrors:      b.CheckpointErrors.Load(),
		IdentifyRuns:          b.IdentifyRuns.Load(),
		Clusters:              b.Clusters.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Minimizations         int64
	AcceptedMinimizations int64
	MinimizationErrors    int64
	MinimizationAvgNanos  int64
	Simplices             int64
	SimplexErrors         int64
	SimplexAvgNanos       int64
	RefinedSimplices      int64
	Queued                int64
	Running               int64
	Checkpoints           int64
	CheckpointErrors      int64
	IdentifyRuns          int64
	Clusters              int64
}
