// Package observability exports search and identification metrics to
// Prometheus.
//
//	reg := prometheus.NewRegistry()
//	collector, err := observability.NewPrometheusCollector(reg)
//	...
//	result, err := nodefinder.Run(ctx, gap, sys, nodefinder.WithMetrics(collector))
//	http.Handle("/metrics", collector.Handler())
package observability
