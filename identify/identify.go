package identify

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/search"
)

const tracerName = "github.com/hupe1980/nodefinder/identify"

// Result is the classification of one cluster.
type Result struct {
	Positions []coords.Point
	Dimension int
	Shape     Shape
}

// ResultContainer holds the classified clusters of one identification run.
type ResultContainer struct {
	System      coords.System
	FeatureSize float64
	Results     []Result
}

// RecordTag identifies ResultContainer in persisted snapshots.
func (*ResultContainer) RecordTag() string { return "nodefinder.identification_result_container" }

// Len returns the number of clusters.
func (c *ResultContainer) Len() int { return len(c.Results) }

// ByKind returns the results whose shape has kind k.
func (c *ResultContainer) ByKind(k Kind) []Result {
	var out []Result
	for _, r := range c.Results {
		if r.Shape != nil && r.Shape.Kind() == k {
			out = append(out, r)
		}
	}
	return out
}

type options struct {
	logger  *slog.Logger
	metrics search.MetricsCollector
	tracer  trace.Tracer
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports identification runs to m.
func WithMetrics(m search.MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// Run clusters positions and classifies every cluster. ctx is checked
// between clusters.
func Run(ctx context.Context, positions []coords.Point, system coords.System, featureSize float64, optFns ...Option) (*ResultContainer, error) {
	o := options{
		logger:  slog.New(slog.DiscardHandler),
		metrics: search.NoopMetricsCollector{},
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, fn := range optFns {
		fn(&o)
	}

	ctx, span := o.tracer.Start(ctx, "identify.run")
	defer span.End()
	start := time.Now()

	out, err := run(ctx, positions, system, featureSize)
	o.metrics.RecordIdentify(out.Len(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("nodefinder.positions", len(positions)),
		attribute.Int("nodefinder.clusters", out.Len()),
	)
	o.logger.InfoContext(ctx, "identification finished",
		slog.Int("positions", len(positions)),
		slog.Int("clusters", out.Len()),
		slog.Int("points", len(out.ByKind(KindPoint))),
		slog.Int("lines", len(out.ByKind(KindLine))),
		slog.Int("surfaces", len(out.ByKind(KindSurface))),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func run(ctx context.Context, positions []coords.Point, system coords.System, featureSize float64) (*ResultContainer, error) {
	out := &ResultContainer{System: system, FeatureSize: featureSize}

	clusters, mapping, err := CreateClusters(positions, system, featureSize)
	if err != nil {
		return out, err
	}

	for _, cl := range clusters {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dim := EstimateDimension(cl, mapping, system, featureSize)
		out.Results = append(out.Results, Result{
			Positions: cl.Positions,
			Dimension: dim,
			Shape:     EvaluateCluster(cl, dim, system, mapping, featureSize),
		})
	}
	return out, nil
}

// FromSearch identifies the accepted nodes of a search.
func FromSearch(ctx context.Context, results *search.ResultContainer, featureSize float64, optFns ...Option) (*ResultContainer, error) {
	return Run(ctx, results.Positions(), results.System(), featureSize, optFns...)
}
