package nodefinder

import (
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/persistence"
	"github.com/hupe1980/nodefinder/resource"
	"github.com/hupe1980/nodefinder/search"
)

type options struct {
	configFns        []func(*search.Config)
	batchGap         minimize.BatchFunc
	minimizer        minimize.Minimizer
	resources        *resource.Controller
	store            *persistence.Store
	metricsCollector MetricsCollector
	tracerProvider   trace.TracerProvider
	logger           *Logger
}

// Option configures Search, Resume, Identify and Run.
type Option func(*options)

// WithInitialMeshSize sets the number of cells per dimension the domain is
// split into before the search starts. Defaults to one cell per dimension.
func WithInitialMeshSize(n ...int) Option {
	n = slices.Clone(n)
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.InitialMeshSize = n })
	}
}

// WithRefinementMeshSize sets the number of starting points per dimension
// sampled in every cell, which is also the number of children per dimension
// a refined cell is split into. Defaults to two per dimension.
func WithRefinementMeshSize(n ...int) Option {
	n = slices.Clone(n)
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.RefinementMeshSize = n })
	}
}

// WithGapThreshold sets the largest gap value accepted as a node.
// Defaults to search.DefaultGapThreshold.
func WithGapThreshold(threshold float64) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.GapThreshold = threshold })
	}
}

// WithFeatureSize sets the length scale below which features are not
// resolved. It bounds refinement and sets the clustering distance.
// Defaults to search.DefaultFeatureSize.
func WithFeatureSize(size float64) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.FeatureSize = size })
	}
}

// WithMaxSimplices stops the search after n simplices. Zero means no limit.
func WithMaxSimplices(n int) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.MaxSimplices = n })
	}
}

// WithMaxDuration stops the search after d. Zero means no limit.
func WithMaxDuration(d time.Duration) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.MaxDuration = d })
	}
}

// WithNumWorkers sets how many local searches of one cell run in parallel.
func WithNumWorkers(n int) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.NumWorkers = n })
	}
}

// WithRefineMinHits sets how many accepted results a cell needs before it
// is refined. Defaults to 1.
func WithRefineMinHits(n int) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *search.Config) { c.RefineMinHits = n })
	}
}

// WithBatchGap evaluates the gap function through a batched implementation.
// It replaces the gap function passed to Search, Resume and Run.
func WithBatchGap(fn minimize.BatchFunc) Option {
	return func(o *options) {
		o.batchGap = fn
	}
}

// WithMinimizer replaces the Nelder-Mead local search.
func WithMinimizer(m minimize.Minimizer) Option {
	return func(o *options) {
		o.minimizer = m
	}
}

// WithResources bounds parallel local searches and snapshot IO.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithCheckpointStore checkpoints the search into store and enables Resume.
// interval throttles intermediate checkpoints; zero writes one after every
// simplex. A final checkpoint is always written.
//
// Example:
//
//	store := persistence.NewStore(blobstore.NewLocalStore("./checkpoints"))
//	res, _ := nodefinder.Run(ctx, gap, sys, nodefinder.WithCheckpointStore(store, time.Minute))
func WithCheckpointStore(store *persistence.Store, interval time.Duration) Option {
	return func(o *options) {
		o.store = store
		o.configFns = append(o.configFns, func(c *search.Config) { c.CheckpointInterval = interval })
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &nodefinder.BasicMetricsCollector{}
//	res, _ := nodefinder.Run(ctx, gap, sys, nodefinder.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Minimizations: %d, accepted: %d\n", stats.Minimizations, stats.AcceptedMinimizations)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := nodefinder.NewJSONLogger(slog.LevelInfo)
//	res, _ := nodefinder.Run(ctx, gap, sys, nodefinder.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// config returns the search configuration for a dim-dimensional system.
func (o *options) config(dim int) search.Config {
	cfg := search.DefaultConfig(dim)
	for _, fn := range o.configFns {
		fn(&cfg)
	}
	return cfg
}

// gap picks the batched gap function when one is configured.
func (o *options) gap(fn minimize.Func) minimize.Func {
	if o.batchGap != nil {
		return minimize.FromBatch(o.batchGap)
	}
	return fn
}

func (o *options) searchOptions() []search.Option {
	opts := []search.Option{
		search.WithLogger(o.logger.Logger),
		search.WithMetrics(o.metricsCollector),
		search.WithResources(o.resources),
	}
	if o.minimizer != nil {
		opts = append(opts, search.WithMinimizer(o.minimizer))
	}
	if o.store != nil {
		opts = append(opts, search.WithCheckpointer(o.store))
	}
	if o.tracerProvider != nil {
		opts = append(opts, search.WithTracerProvider(o.tracerProvider))
	}
	return opts
}
