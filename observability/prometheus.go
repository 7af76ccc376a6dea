package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/nodefinder/search"
)

const namespace = "nodefinder"

// PrometheusCollector implements search.MetricsCollector on top of
// Prometheus metrics.
type PrometheusCollector struct {
	gatherer prometheus.Gatherer

	Minimizations        *prometheus.CounterVec
	MinimizationDuration prometheus.Histogram
	Simplices            *prometheus.CounterVec
	SimplexDuration      prometheus.Histogram
	RefinedSimplices     prometheus.Counter
	QueueDepth           *prometheus.GaugeVec
	Checkpoints          *prometheus.CounterVec
	CheckpointDuration   prometheus.Histogram
	IdentifyRuns         *prometheus.CounterVec
	Clusters             prometheus.Gauge
}

// Compile time check to ensure PrometheusCollector satisfies the MetricsCollector interface.
var _ search.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the nodefinder metrics against reg,
// defaulting to the global Prometheus registry when nil. Metrics that are
// already registered are reused, so several collectors may share one
// registry.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &PrometheusCollector{gatherer: gatherer}
	var err error

	if c.Minimizations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "minimizations_total",
		Help:      "Local searches by outcome (accepted, rejected, error).",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.MinimizationDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "minimization_duration_seconds",
		Help:      "Duration of a single local search.",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
	})); err != nil {
		return nil, err
	}
	if c.Simplices, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simplices_total",
		Help:      "Processed simplices by status.",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if c.SimplexDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simplex_duration_seconds",
		Help:      "Time spent sampling one simplex.",
		Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
	})); err != nil {
		return nil, err
	}
	if c.RefinedSimplices, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refined_simplices_total",
		Help:      "Child simplices queued by refinement.",
	})); err != nil {
		return nil, err
	}
	if c.QueueDepth, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_simplices",
		Help:      "Simplices in the search queue by state (queued, running).",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if c.Checkpoints, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkpoints_total",
		Help:      "Checkpoint attempts by status.",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if c.CheckpointDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkpoint_duration_seconds",
		Help:      "Time spent writing a checkpoint.",
		Buckets:   prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if c.IdentifyRuns, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identify_runs_total",
		Help:      "Identification runs by status.",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if c.Clusters, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "clusters",
		Help:      "Number of clusters found by the last identification run.",
	})); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordMinimization implements search.MetricsCollector.
func (c *PrometheusCollector) RecordMinimization(d time.Duration, accepted bool, err error) {
	result := "rejected"
	switch {
	case err != nil:
		result = "error"
	case accepted:
		result = "accepted"
	}
	c.Minimizations.WithLabelValues(result).Inc()
	c.MinimizationDuration.Observe(d.Seconds())
}

// RecordSimplex implements search.MetricsCollector.
func (c *PrometheusCollector) RecordSimplex(d time.Duration, added int, err error) {
	c.Simplices.WithLabelValues(status(err)).Inc()
	c.SimplexDuration.Observe(d.Seconds())
	if added > 0 {
		c.RefinedSimplices.Add(float64(added))
	}
}

// RecordQueue implements search.MetricsCollector.
func (c *PrometheusCollector) RecordQueue(queued, running int) {
	c.QueueDepth.WithLabelValues("queued").Set(float64(queued))
	c.QueueDepth.WithLabelValues("running").Set(float64(running))
}

// RecordCheckpoint implements search.MetricsCollector.
func (c *PrometheusCollector) RecordCheckpoint(d time.Duration, err error) {
	c.Checkpoints.WithLabelValues(status(err)).Inc()
	c.CheckpointDuration.Observe(d.Seconds())
}

// RecordIdentify implements search.MetricsCollector.
func (c *PrometheusCollector) RecordIdentify(clusters int, _ time.Duration, err error) {
	c.IdentifyRuns.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.Clusters.Set(float64(clusters))
	}
}

// Handler serves the metrics of the registry the collector was created with.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// register adds col to reg and returns the already registered collector of
// the same type if there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			return col, fmt.Errorf("observability: collector already registered with incompatible type %T", are.ExistingCollector)
		}
		return col, err
	}
	return col, nil
}
