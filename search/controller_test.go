package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/queue"
	"github.com/hupe1980/nodefinder/resource"
	"github.com/hupe1980/nodefinder/testutil"
)

// snapMinimizer jumps straight to the closest of the given nodes.
func snapMinimizer(box coords.System, nodes ...coords.Point) minimize.Minimizer {
	return minimize.MinimizerFunc(func(ctx context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
		if err := ctx.Err(); err != nil {
			return minimize.Result{}, err
		}
		best := nodes[0]
		for _, n := range nodes[1:] {
			if box.Distance(x0, n) < box.Distance(x0, best) {
				best = n
			}
		}
		return minimize.Result{Pos: best.Clone(), Value: f(best), Success: true}, nil
	})
}

func failingMinimizer() minimize.Minimizer {
	return minimize.MinimizerFunc(func(_ context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
		return minimize.Result{Pos: append(coords.Point(nil), x0...), Value: f(x0), Success: false}, nil
	})
}

func TestController_SinglePoint(t *testing.T) {
	box := coords.UnitCube(3)
	center := []float64{0.5, 0.5, 0.5}

	cfg := DefaultConfig(3)
	cfg.GapThreshold = 1e-4
	cfg.FeatureSize = 5e-2

	c, err := NewController(box, testutil.PointGap(box.Size(), center), cfg)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFinished, report.StopReason)
	assert.True(t, c.State().Finished())
	assert.Greater(t, report.Refined, 0)

	positions := c.Results().Positions()
	require.NotEmpty(t, positions)
	for _, p := range positions {
		assert.Less(t, box.Distance(p, center), 1e-3, "p=%v", p)
	}
	assert.Equal(t, report.Minimizations, c.Results().Len())
}

func TestController_TwoPoints(t *testing.T) {
	box := coords.UnitCube(3)
	a := coords.Point{0.25, 0.25, 0.25}
	b := coords.Point{0.75, 0.75, 0.75}

	cfg := DefaultConfig(3)
	cfg.GapThreshold = 1e-4
	cfg.FeatureSize = 5e-2

	c, err := NewController(box, testutil.PointGap(box.Size(), a, b), cfg)
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.NoError(t, err)

	var nearA, nearB int
	for _, p := range c.Results().Positions() {
		switch {
		case box.Distance(p, a) < 1e-3:
			nearA++
		case box.Distance(p, b) < 1e-3:
			nearB++
		default:
			t.Errorf("accepted position %v is not near a node", p)
		}
	}
	assert.Positive(t, nearA)
	assert.Positive(t, nearB)
}

func TestController_RefinementStopsAtFeatureSize(t *testing.T) {
	box := coords.UnitCube(2)
	node := coords.Point{0.3, 0.6}

	cfg := DefaultConfig(2)
	cfg.FeatureSize = 0.1

	minEdge := 1.0
	cp := CheckpointFunc(func(_ context.Context, s *State) error {
		for _, cell := range s.Queue {
			minEdge = min(minEdge, maxEdge(cell))
		}
		return nil
	})

	c, err := NewController(box, testutil.PointGap(box.Size(), node), cfg,
		WithMinimizer(snapMinimizer(box, node)),
		WithCheckpointer(cp),
	)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFinished, report.StopReason)

	// 1 -> 0.5 -> 0.25 -> 0.125 -> 0.0625; the last level is not refined.
	assert.InDelta(t, 0.0625, minEdge, 1e-12)
}

func TestController_FailedMinimizationsAreRejected(t *testing.T) {
	box := coords.UnitCube(3)
	cfg := DefaultConfig(3)
	cfg.InitialMeshSize = []int{2, 2, 2}

	c, err := NewController(box, testutil.PointGap(box.Size(), []float64{0.5, 0.5, 0.5}), cfg,
		WithMinimizer(failingMinimizer()),
	)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFinished, report.StopReason)
	assert.Equal(t, 8, report.Simplices)
	assert.Equal(t, 64, report.Minimizations)
	assert.Zero(t, report.Refined)
	assert.Len(t, c.Results().Rejected(), 64)
	assert.Empty(t, c.Results().Accepted())
}

func TestController_MaxSimplices(t *testing.T) {
	box := coords.UnitCube(3)
	node := coords.Point{0.5, 0.5, 0.5}
	cfg := DefaultConfig(3)
	cfg.FeatureSize = 5e-2
	cfg.MaxSimplices = 1

	c, err := NewController(box, testutil.PointGap(box.Size(), node), cfg,
		WithMinimizer(snapMinimizer(box, node)),
	)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxSimplices, report.StopReason)
	assert.Equal(t, 1, report.Simplices)

	state := c.State()
	assert.Len(t, state.Queue, 8)
	assert.False(t, state.Finished())

	// A second Run continues where the first stopped.
	report, err = c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Simplices)
	assert.Len(t, c.State().Queue, 15)
}

func TestController_MaxDuration(t *testing.T) {
	box := coords.UnitCube(2)
	cfg := DefaultConfig(2)
	cfg.MaxDuration = 20 * time.Millisecond

	slow := minimize.MinimizerFunc(func(ctx context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
		select {
		case <-ctx.Done():
			return minimize.Result{}, ctx.Err()
		case <-time.After(time.Second):
		}
		return minimize.Result{Pos: append(coords.Point(nil), x0...), Value: f(x0), Success: true}, nil
	})

	c, err := NewController(box, testutil.PointGap(box.Size(), []float64{0.5, 0.5}), cfg, WithMinimizer(slow))
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxDuration, report.StopReason)
	assert.Zero(t, report.Simplices)
	// The interrupted cell is still outstanding.
	assert.Len(t, c.State().Queue, 1)
}

func TestController_CanceledContext(t *testing.T) {
	box := coords.UnitCube(2)

	var checkpoints atomic.Int32
	cp := CheckpointFunc(func(ctx context.Context, _ *State) error {
		require.NoError(t, ctx.Err(), "final checkpoint must not inherit cancellation")
		checkpoints.Add(1)
		return nil
	})

	c, err := NewController(box, testutil.PointGap(box.Size(), []float64{0.5, 0.5}), DefaultConfig(2),
		WithCheckpointer(cp),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCanceled, report.StopReason)
	assert.Equal(t, int32(1), checkpoints.Load())
}

func TestController_InterruptedSimplexIsResumedFirst(t *testing.T) {
	box := coords.UnitCube(2)
	node := coords.Point{0.3, 0.3}
	cfg := DefaultConfig(2)
	cfg.InitialMeshSize = []int{2, 1}
	cfg.FeatureSize = 0.2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupting := minimize.MinimizerFunc(func(ctx context.Context, f minimize.Func, x0 []float64) (minimize.Result, error) {
		cancel()
		return minimize.Result{}, context.Canceled
	})

	c, err := NewController(box, testutil.PointGap(box.Size(), node), cfg, WithMinimizer(interrupting))
	require.NoError(t, err)

	_, err = c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	state := c.State()
	require.Len(t, state.Queue, 2)
	// The running cell comes first, the untouched one second.
	assert.Equal(t, queue.Simplex{{0, 0}, {0.5, 1}}, state.Queue[0])
	assert.Equal(t, queue.Simplex{{0.5, 0}, {1, 1}}, state.Queue[1])
	assert.Zero(t, state.Results.Len(), "partial results of an interrupted cell are discarded")

	resumed, err := ResumeController(state, testutil.PointGap(box.Size(), node), cfg,
		WithMinimizer(snapMinimizer(box, node)),
	)
	require.NoError(t, err)
	report, err := resumed.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFinished, report.StopReason)
	assert.NotEmpty(t, resumed.Results().Accepted())
}

func TestController_ParallelMatchesSerial(t *testing.T) {
	box := coords.UnitCube(3)
	nodes := []coords.Point{{0.1, 0.2, 0.3}, {0.7, 0.8, 0.6}}
	gap := testutil.PointGap(box.Size(), nodes[0], nodes[1])

	run := func(workers int, rc *resource.Controller) []minimize.Result {
		cfg := DefaultConfig(3)
		cfg.FeatureSize = 0.1
		cfg.NumWorkers = workers
		c, err := NewController(box, gap, cfg,
			WithMinimizer(snapMinimizer(box, nodes...)),
			WithResources(rc),
		)
		require.NoError(t, err)
		_, err = c.Run(context.Background())
		require.NoError(t, err)
		return c.Results().MinimizationResults()
	}

	serial := run(1, nil)
	parallel := run(4, resource.NewController(resource.Config{MaxWorkers: 3}))
	assert.Equal(t, serial, parallel)
}

func TestController_PeriodicCheckpoints(t *testing.T) {
	box := coords.UnitCube(2)
	node := coords.Point{0.5, 0.5}
	cfg := DefaultConfig(2)
	cfg.FeatureSize = 0.2

	var calls int
	cp := CheckpointFunc(func(context.Context, *State) error {
		calls++
		return nil
	})
	metrics := &countingMetrics{}

	c, err := NewController(box, testutil.PointGap(box.Size(), node), cfg,
		WithMinimizer(snapMinimizer(box, node)),
		WithCheckpointer(cp),
		WithMetrics(metrics),
	)
	require.NoError(t, err)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	// One per simplex plus the final one.
	assert.Equal(t, report.Simplices+1, calls)
	assert.Equal(t, int64(report.Simplices), metrics.simplices.Load())
	assert.Equal(t, int64(report.Minimizations), metrics.minimizations.Load())
	assert.Equal(t, int64(calls), metrics.checkpoints.Load())
}

func TestController_FinalCheckpointError(t *testing.T) {
	box := coords.UnitCube(1)
	errBoom := errors.New("boom")
	cfg := DefaultConfig(1)
	cfg.CheckpointInterval = time.Hour

	c, err := NewController(box, testutil.PointGap(box.Size(), []float64{0.5}), cfg,
		WithMinimizer(failingMinimizer()),
		WithCheckpointer(CheckpointFunc(func(context.Context, *State) error { return errBoom })),
	)
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.ErrorIs(t, err, errBoom)
}

func TestNewController_Errors(t *testing.T) {
	box := coords.UnitCube(2)
	gap := testutil.PointGap(box.Size(), []float64{0.5, 0.5})

	_, err := NewController(nil, gap, DefaultConfig(2))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewController(box, nil, DefaultConfig(2))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewController(box, gap, DefaultConfig(3))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = ResumeController(&State{}, gap, DefaultConfig(2))
	assert.ErrorIs(t, err, ErrInvalidState)

	bad := &State{
		Queue:   []queue.Simplex{{{0}, {1}}},
		Results: NewResultContainer(box, 1e-6, 0.1),
	}
	_, err = ResumeController(bad, gap, DefaultConfig(2))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStopReason_String(t *testing.T) {
	assert.Equal(t, "finished", StopFinished.String())
	assert.Equal(t, "max_simplices", StopMaxSimplices.String())
	assert.Equal(t, "max_duration", StopMaxDuration.String())
	assert.Equal(t, "canceled", StopCanceled.String())
	assert.Equal(t, "StopReason(9)", StopReason(9).String())
}

type countingMetrics struct {
	NoopMetricsCollector
	minimizations atomic.Int64
	simplices     atomic.Int64
	checkpoints   atomic.Int64
}

func (m *countingMetrics) RecordMinimization(time.Duration, bool, error) { m.minimizations.Add(1) }
func (m *countingMetrics) RecordSimplex(time.Duration, int, error)       { m.simplices.Add(1) }
func (m *countingMetrics) RecordCheckpoint(time.Duration, error)         { m.checkpoints.Add(1) }
