// Package resource bounds the work a search may put on the machine.
//
// A Controller combines a weighted semaphore for concurrent minimizations,
// a token bucket that caps how fast new minimizations start, and a second
// token bucket for snapshot IO:
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:             8,
//	    MinimizationsPerSecond: 200,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// One Controller may be shared by several searches to enforce a global
// budget.
package resource
