package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxWorkers is the maximum number of concurrent minimizations.
	// If 0, defaults to 1.
	MaxWorkers int64

	// MinimizationsPerSecond caps how often new minimizations may start.
	// If 0, unlimited.
	MinimizationsPerSecond float64

	// IOLimitBytesPerSec is the maximum snapshot write throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller governs the resources shared by concurrent searches.
//
// A nil *Controller is valid and imposes no limits.
type Controller struct {
	cfg Config

	workerSem *semaphore.Weighted
	active    atomic.Int64

	minLimiter *rate.Limiter // nil if unlimited
	ioLimiter  *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MinimizationsPerSecond > 0 {
		burst := int(cfg.MinimizationsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.minLimiter = rate.NewLimiter(rate.Limit(cfg.MinimizationsPerSecond), burst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// MaxWorkers returns the configured worker limit.
func (c *Controller) MaxWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxWorkers
}

// AcquireWorker reserves a worker slot and waits for the minimization rate
// limit. It blocks until both are available or ctx is done.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	if err := c.workerSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.minLimiter != nil {
		if err := c.minLimiter.Wait(ctx); err != nil {
			c.workerSem.Release(1)
			return err
		}
	}
	c.active.Add(1)
	return nil
}

// TryAcquireWorker reserves a worker slot without blocking. The rate limit
// is consulted without waiting.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	if !c.workerSem.TryAcquire(1) {
		return false
	}
	if c.minLimiter != nil && !c.minLimiter.Allow() {
		c.workerSem.Release(1)
		return false
	}
	c.active.Add(1)
	return true
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.workerSem.Release(1)
}

// ActiveWorkers returns the number of reserved worker slots.
func (c *Controller) ActiveWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.active.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects requests larger than the burst; feed it in chunks.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
