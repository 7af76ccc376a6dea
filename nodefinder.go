package nodefinder

import (
	"context"
	"fmt"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/identify"
	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/search"
)

// IdentificationName is the blob name under which Run and Identify store the
// identification result when a checkpoint store is configured.
const IdentificationName = "identification.ndfs"

// Result bundles a search and the identification of the nodes it found.
type Result struct {
	Report         search.Report
	Search         *search.ResultContainer
	Identification *identify.ResultContainer
}

// Search runs an adaptive search for the nodes of gap over system.
//
// Budget exhaustion (WithMaxSimplices, WithMaxDuration) is not an error and
// is reported in the returned Report. If ctx is canceled the results
// collected so far are returned together with ctx.Err().
func Search(ctx context.Context, gap minimize.Func, system coords.System, optFns ...Option) (*search.ResultContainer, search.Report, error) {
	o := applyOptions(optFns)
	return o.search(ctx, gap, system)
}

// Resume continues the search checkpointed in the store configured with
// WithCheckpointStore. Interrupted cells are sampled first.
func Resume(ctx context.Context, gap minimize.Func, optFns ...Option) (*search.ResultContainer, search.Report, error) {
	o := applyOptions(optFns)
	if o.store == nil {
		return nil, search.Report{}, ErrNoCheckpointStore
	}

	state, err := o.store.LoadState(ctx)
	if err != nil {
		return nil, search.Report{}, fmt.Errorf("nodefinder: resume: %w", err)
	}

	dim := state.Results.System().Dim()
	ctrl, err := search.ResumeController(state, o.gap(gap), o.config(dim), o.searchOptions()...)
	if err != nil {
		return nil, search.Report{}, translateError(err, 0)
	}
	o.logger.InfoContext(ctx, "resuming search",
		"queued", len(state.Queue),
		"results", state.Results.Len(),
	)
	return o.run(ctx, ctrl)
}

// Identify clusters the accepted nodes of results and classifies every
// cluster as a nodal point, line or surface.
func Identify(ctx context.Context, results *search.ResultContainer, optFns ...Option) (*identify.ResultContainer, error) {
	o := applyOptions(optFns)
	return o.identify(ctx, results)
}

// Run searches for the nodes of gap and identifies them.
func Run(ctx context.Context, gap minimize.Func, system coords.System, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)

	results, report, err := o.search(ctx, gap, system)
	out := &Result{Report: report, Search: results}
	if err != nil {
		return out, err
	}

	out.Identification, err = o.identify(ctx, results)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (o *options) search(ctx context.Context, gap minimize.Func, system coords.System) (*search.ResultContainer, search.Report, error) {
	if system == nil {
		return nil, search.Report{}, fmt.Errorf("%w: nil coordinate system", ErrInvalidConfig)
	}
	ctrl, err := search.NewController(system, o.gap(gap), o.config(system.Dim()), o.searchOptions()...)
	if err != nil {
		return nil, search.Report{}, translateError(err, 0)
	}
	return o.run(ctx, ctrl)
}

func (o *options) run(ctx context.Context, ctrl *search.Controller) (*search.ResultContainer, search.Report, error) {
	report, err := ctrl.Run(ctx)
	o.logger.LogSearch(ctx, report, err)
	return ctrl.Results(), report, err
}

func (o *options) identify(ctx context.Context, results *search.ResultContainer) (*identify.ResultContainer, error) {
	if results == nil {
		return nil, fmt.Errorf("%w: nil search results", ErrInvalidConfig)
	}
	featureSize := o.config(results.System().Dim()).FeatureSize

	out, err := identify.FromSearch(ctx, results, featureSize,
		identify.WithLogger(o.logger.Logger),
		identify.WithMetrics(o.metricsCollector),
		identify.WithTracerProvider(o.tracerProvider),
	)
	if err != nil {
		o.logger.LogIdentify(ctx, 0, err)
		return nil, translateError(err, featureSize)
	}
	o.logger.LogIdentify(ctx, out.Len(), nil)

	if o.store != nil {
		err := o.store.Save(ctx, IdentificationName, out)
		o.logger.LogCheckpoint(ctx, IdentificationName, err)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
