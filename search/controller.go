package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/queue"
	"github.com/hupe1980/nodefinder/resource"
)

const tracerName = "github.com/hupe1980/nodefinder/search"

// StopReason tells why Run returned.
type StopReason int

const (
	// StopFinished means no simplices are left.
	StopFinished StopReason = iota
	// StopMaxSimplices means the simplex budget was used up.
	StopMaxSimplices
	// StopMaxDuration means the time budget was used up.
	StopMaxDuration
	// StopCanceled means the caller's context was done.
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopFinished:
		return "finished"
	case StopMaxSimplices:
		return "max_simplices"
	case StopMaxDuration:
		return "max_duration"
	case StopCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Report summarizes one call to Run.
type Report struct {
	StopReason    StopReason
	Simplices     int
	Refined       int
	Minimizations int
	Accepted      int
	Duration      time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMinimizer replaces the default Nelder-Mead local search.
func WithMinimizer(m minimize.Minimizer) Option {
	return func(c *Controller) {
		if m != nil {
			c.minimizer = m
		}
	}
}

// WithResources shares a resource controller between searches.
func WithResources(rc *resource.Controller) Option {
	return func(c *Controller) {
		c.resources = rc
	}
}

// WithCheckpointer enables periodic and final checkpoints.
func WithCheckpointer(cp Checkpointer) Option {
	return func(c *Controller) {
		c.checkpointer = cp
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Controller) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// Controller drives the adaptive search for nodes of a gap function.
//
// Each step pops a cell from the queue, runs a local search from every
// point of a sub-mesh inside it, stores the results and, if enough nodes
// were found near the cell, queues its subdivision. The controller
// goroutine is the only writer of the queue and the result container.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	cfg    Config
	system coords.System
	gap    minimize.Func

	queue   *queue.SimplexQueue
	results *ResultContainer

	minimizer    minimize.Minimizer
	resources    *resource.Controller
	checkpointer Checkpointer
	sometimes    *rate.Sometimes

	logger  *slog.Logger
	metrics MetricsCollector
	tracer  trace.Tracer
}

// NewController creates a controller for a fresh search over system.
func NewController(system coords.System, gap minimize.Func, cfg Config, optFns ...Option) (*Controller, error) {
	if system == nil {
		return nil, fmt.Errorf("%w: nil coordinate system", ErrInvalidConfig)
	}
	if gap == nil {
		return nil, fmt.Errorf("%w: nil gap function", ErrInvalidConfig)
	}
	cfg = cfg.withDefaults(system.Dim())
	if err := cfg.Validate(system.Dim()); err != nil {
		return nil, err
	}

	c := newController(system, gap, cfg, optFns)
	c.queue = queue.New(initialCells(system, cfg.InitialMeshSize), queue.WithCanonicalizer(PeriodicCanonicalizer(system)))
	c.results = NewResultContainer(system, cfg.GapThreshold, cfg.DistCutoff())
	return c, nil
}

// ResumeController creates a controller that continues from state.
// Interrupted simplices are processed first. The gap threshold of the
// stored results takes precedence over cfg.GapThreshold.
func ResumeController(state *State, gap minimize.Func, cfg Config, optFns ...Option) (*Controller, error) {
	if state == nil || state.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrInvalidState)
	}
	if gap == nil {
		return nil, fmt.Errorf("%w: nil gap function", ErrInvalidConfig)
	}
	system := state.Results.System()
	dim := system.Dim()
	for i, s := range state.Queue {
		if len(s) != 2 || len(s[0]) != dim || len(s[1]) != dim {
			return nil, fmt.Errorf("%w: simplex %d does not describe a %d-dimensional cell", ErrDimensionMismatch, i, dim)
		}
	}
	cfg.GapThreshold = state.Results.GapThreshold()
	cfg = cfg.withDefaults(dim)
	if err := cfg.Validate(dim); err != nil {
		return nil, err
	}

	c := newController(system, gap, cfg, optFns)
	c.queue = queue.New(state.Queue, queue.WithCanonicalizer(PeriodicCanonicalizer(system)))
	c.results = state.Results
	return c, nil
}

func newController(system coords.System, gap minimize.Func, cfg Config, optFns []Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		system:    system,
		gap:       gap,
		minimizer: minimize.NewNelderMead(),
		logger:    slog.New(slog.DiscardHandler),
		metrics:   NoopMetricsCollector{},
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, fn := range optFns {
		fn(c)
	}
	if cfg.CheckpointInterval > 0 {
		c.sometimes = &rate.Sometimes{Interval: cfg.CheckpointInterval}
	} else {
		c.sometimes = &rate.Sometimes{Every: 1}
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// Results returns the result container. It is shared with the
// controller and must not be modified while Run is executing.
func (c *Controller) Results() *ResultContainer { return c.results }

// State returns the resumable state. Interrupted simplices come first.
func (c *Controller) State() *State {
	return &State{
		Queue:   c.queue.Simplices(),
		Results: c.results,
	}
}

// Run processes simplices until the queue is exhausted, a budget is used
// up or ctx is done. Budget exhaustion is not an error; cancellation of
// ctx returns ctx.Err(). In every case the state stays resumable and a
// final checkpoint is written if a Checkpointer is configured.
func (c *Controller) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	if c.queue.NumRunning() > 0 {
		// A previous Run was interrupted mid-simplex; requeue those first.
		c.queue = queue.New(c.queue.Simplices(), queue.WithCanonicalizer(PeriodicCanonicalizer(c.system)))
	}

	runCtx := ctx
	if c.cfg.MaxDuration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.MaxDuration)
		defer cancel()
	}

	c.logger.InfoContext(ctx, "search started",
		slog.Int("queued", c.queue.NumQueued()),
		slog.Int("results", c.results.Len()),
		slog.Int("workers", c.cfg.NumWorkers),
	)

	var (
		report Report
		runErr error
	)

loop:
	for {
		switch {
		case c.queue.Finished():
			report.StopReason = StopFinished
			break loop
		case c.cfg.MaxSimplices > 0 && report.Simplices >= c.cfg.MaxSimplices:
			report.StopReason = StopMaxSimplices
			break loop
		case ctx.Err() != nil:
			report.StopReason = StopCanceled
			runErr = ctx.Err()
			break loop
		case runCtx.Err() != nil:
			report.StopReason = StopMaxDuration
			break loop
		}

		out, err := c.step(runCtx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				report.StopReason = StopCanceled
				runErr = ctx.Err()
			case runCtx.Err() != nil:
				report.StopReason = StopMaxDuration
			default:
				runErr = err
			}
			break loop
		}

		report.Simplices++
		report.Minimizations += out.minimizations
		report.Accepted += out.accepted
		if out.added > 0 {
			report.Refined++
		}
		c.metrics.RecordQueue(c.queue.NumQueued(), c.queue.NumRunning())

		c.sometimes.Do(func() {
			// Periodic failures are retried at the next opportunity.
			_ = c.checkpoint(ctx)
		})
	}

	if c.checkpointer != nil {
		if err := c.checkpoint(context.WithoutCancel(ctx)); err != nil && runErr == nil {
			runErr = fmt.Errorf("search: final checkpoint: %w", err)
		}
	}

	report.Duration = time.Since(start)
	c.logger.InfoContext(ctx, "search stopped",
		slog.String("reason", report.StopReason.String()),
		slog.Int("simplices", report.Simplices),
		slog.Int("minimizations", report.Minimizations),
		slog.Int("accepted", report.Accepted),
		slog.Int("queued", c.queue.NumQueued()),
		slog.Duration("duration", report.Duration),
	)

	return report, runErr
}

type stepOutcome struct {
	minimizations int
	accepted      int
	hits          int
	added         int
}

// step processes the next queued simplex.
func (c *Controller) step(ctx context.Context) (stepOutcome, error) {
	cell, err := c.queue.PopQueued()
	if err != nil {
		return stepOutcome{}, err
	}

	ctx, span := c.tracer.Start(ctx, "search.simplex")
	defer span.End()

	start := time.Now()
	out, err := c.processCell(ctx, cell)
	c.metrics.RecordSimplex(time.Since(start), out.added, err)

	span.SetAttributes(
		attribute.Int("nodefinder.minimizations", out.minimizations),
		attribute.Int("nodefinder.accepted", out.accepted),
		attribute.Int("nodefinder.hits", out.hits),
		attribute.Int("nodefinder.added", out.added),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}

	c.logger.DebugContext(ctx, "simplex processed",
		slog.Any("cell", cell),
		slog.Int("accepted", out.accepted),
		slog.Int("hits", out.hits),
		slog.Int("added", out.added),
		slog.Int("queued", c.queue.NumQueued()),
	)
	return out, nil
}

// processCell samples cell and decides whether to refine it. On error
// the cell stays running so that it is retried after a resume.
func (c *Controller) processCell(ctx context.Context, cell queue.Simplex) (stepOutcome, error) {
	var out stepOutcome

	results, err := c.sample(ctx, startingPoints(cell, c.cfg.RefinementMeshSize))
	if err != nil {
		return out, err
	}
	out.minimizations = len(results)

	size := c.system.Size()
	for _, res := range results {
		if !c.results.AddResult(res) {
			continue
		}
		out.accepted++
		if cellContains(cell, c.system.NormalizePosition(res.Pos), c.cfg.FeatureSize, size) {
			out.hits++
		}
	}

	if out.hits >= c.cfg.RefineMinHits && maxEdge(cell) > c.cfg.FeatureSize {
		out.added = c.queue.AddSimplices(subdivide(cell, c.cfg.RefinementMeshSize))
	}

	if err := c.queue.SetFinished(cell); err != nil {
		return out, err
	}
	return out, nil
}

// sample runs a local search from every start. Results are returned in
// start order regardless of completion order.
func (c *Controller) sample(ctx context.Context, starts [][]float64) ([]minimize.Result, error) {
	results := make([]minimize.Result, len(starts))
	threshold := c.results.GapThreshold()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.NumWorkers)
	for i, x0 := range starts {
		g.Go(func() error {
			if err := c.resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer c.resources.ReleaseWorker()

			t := time.Now()
			res, err := c.minimizer.Minimize(gctx, c.gap, x0)
			c.metrics.RecordMinimization(time.Since(t), err == nil && res.Success && res.Value <= threshold, err)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Controller) checkpoint(ctx context.Context) error {
	if c.checkpointer == nil {
		return nil
	}
	start := time.Now()
	err := c.checkpointer.Checkpoint(ctx, c.State())
	c.metrics.RecordCheckpoint(time.Since(start), err)
	if err != nil {
		c.logger.WarnContext(ctx, "checkpoint failed", slog.Any("error", err))
		return err
	}
	c.logger.DebugContext(ctx, "checkpoint written", slog.Duration("duration", time.Since(start)))
	return nil
}
