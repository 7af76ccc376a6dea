package persistence

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/nodefinder/coords"
	"github.com/hupe1980/nodefinder/identify"
	"github.com/hupe1980/nodefinder/minimize"
	"github.com/hupe1980/nodefinder/queue"
	"github.com/hupe1980/nodefinder/search"
)

// Tags of the built-in records.
const (
	TagCoordinateSystem      = "nodefinder.coordinate_system"
	TagSimplexQueue          = "nodefinder.simplex_queue"
	TagSearchResultContainer = "nodefinder.search_result_container"
	TagControllerState       = "nodefinder.controller_state"
	TagIdentificationResult  = "nodefinder.identification_result_container"
)

// ErrUnsupportedSystem is returned when a record refers to a coordinate
// system that cannot be persisted. Only *coords.Box is supported.
var ErrUnsupportedSystem = errors.New("persistence: unsupported coordinate system")

// RegistryOption configures NewDefaultRegistry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	queueSystem coords.System
}

// WithQueueSystem makes decoded TagSimplexQueue records merge cells that are
// periodic images of each other in system, the way the search controller's
// queue does. Without it a decoded queue deduplicates by rounded
// coordinates only.
func WithQueueSystem(system coords.System) RegistryOption {
	return func(o *registryOptions) {
		o.queueSystem = system
	}
}

// NewDefaultRegistry returns a registry with every nodefinder record type.
func NewDefaultRegistry(optFns ...RegistryOption) *Registry {
	var o registryOptions
	for _, fn := range optFns {
		fn(&o)
	}

	var queueOpts []queue.Option
	if o.queueSystem != nil {
		queueOpts = append(queueOpts, queue.WithCanonicalizer(search.PeriodicCanonicalizer(o.queueSystem)))
	}
	decodeQueue := func(r *simplexQueueRecord) (*queue.SimplexQueue, error) {
		return queue.New(r.Simplices, queueOpts...), nil
	}

	r := NewRegistry()
	for _, err := range []error{
		Register(r, TagCoordinateSystem, encodeBox, decodeBox),
		Register(r, TagSimplexQueue, encodeQueue, decodeQueue),
		Register(r, TagSearchResultContainer, encodeSearchResults, decodeSearchResults),
		Register(r, TagControllerState, encodeState, decodeState),
		Register(r, TagIdentificationResult, encodeIdentification, decodeIdentification),
	} {
		if err != nil {
			panic(err)
		}
	}
	return r
}

// jsonFloat is a float64 that survives JSON when it is not finite.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	default:
		return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
	}
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type coordinateSystemRecord struct {
	Limits [][2]float64 `json:"limits"`
}

func systemRecord(s coords.System) (coordinateSystemRecord, error) {
	b, ok := s.(*coords.Box)
	if !ok {
		return coordinateSystemRecord{}, fmt.Errorf("%w: %T", ErrUnsupportedSystem, s)
	}
	return coordinateSystemRecord{Limits: b.Limits()}, nil
}

func (r coordinateSystemRecord) box() (*coords.Box, error) {
	return coords.NewBox(r.Limits)
}

func encodeBox(b *coords.Box) (coordinateSystemRecord, error) { return systemRecord(b) }

func decodeBox(r *coordinateSystemRecord) (*coords.Box, error) { return r.box() }

type simplexQueueRecord struct {
	Simplices []queue.Simplex `json:"simplices"`
}

func encodeQueue(q *queue.SimplexQueue) (simplexQueueRecord, error) {
	return simplexQueueRecord{Simplices: q.Simplices()}, nil
}

type resultRecord struct {
	Pos     coords.Point `json:"pos"`
	Value   jsonFloat    `json:"value"`
	Success bool         `json:"success"`
}

type searchResultRecord struct {
	CoordinateSystem    coordinateSystemRecord `json:"coordinate_system"`
	MinimizationResults []resultRecord         `json:"minimization_results"`
	GapThreshold        float64                `json:"gap_threshold"`
	DistCutoff          float64                `json:"dist_cutoff"`
}

func encodeSearchResults(c *search.ResultContainer) (searchResultRecord, error) {
	sys, err := systemRecord(c.System())
	if err != nil {
		return searchResultRecord{}, err
	}
	all := c.MinimizationResults()
	rec := searchResultRecord{
		CoordinateSystem:    sys,
		MinimizationResults: make([]resultRecord, len(all)),
		GapThreshold:        c.GapThreshold(),
		DistCutoff:          c.DistCutoff(),
	}
	for i, r := range all {
		rec.MinimizationResults[i] = resultRecord{Pos: r.Pos, Value: jsonFloat(r.Value), Success: r.Success}
	}
	return rec, nil
}

func decodeSearchResults(r *searchResultRecord) (*search.ResultContainer, error) {
	box, err := r.CoordinateSystem.box()
	if err != nil {
		return nil, err
	}
	results := make([]minimize.Result, len(r.MinimizationResults))
	for i, res := range r.MinimizationResults {
		if len(res.Pos) != box.Dim() {
			return nil, fmt.Errorf("%w: result %d has %d coordinates, system has %d", ErrCorrupt, i, len(res.Pos), box.Dim())
		}
		results[i] = minimize.Result{Pos: res.Pos, Value: float64(res.Value), Success: res.Success}
	}
	return search.NewResultContainer(box, r.GapThreshold, r.DistCutoff, results...), nil
}

type controllerStateRecord struct {
	Queue  simplexQueueRecord `json:"simplex_queue"`
	Result searchResultRecord `json:"result"`
}

func encodeState(s *search.State) (controllerStateRecord, error) {
	if s.Results == nil {
		return controllerStateRecord{}, fmt.Errorf("persistence: controller state without results")
	}
	res, err := encodeSearchResults(s.Results)
	if err != nil {
		return controllerStateRecord{}, err
	}
	return controllerStateRecord{
		Queue:  simplexQueueRecord{Simplices: s.Queue},
		Result: res,
	}, nil
}

func decodeState(r *controllerStateRecord) (*search.State, error) {
	res, err := decodeSearchResults(&r.Result)
	if err != nil {
		return nil, err
	}
	return &search.State{Queue: r.Queue.Simplices, Results: res}, nil
}

type shapeRecord struct {
	Kind      string         `json:"kind"`
	Position  coords.Point   `json:"position,omitempty"`
	Path      []coords.Point `json:"path,omitempty"`
	Centroid  coords.Point   `json:"centroid,omitempty"`
	Normal    []float64      `json:"normal,omitempty"`
	Positions []coords.Point `json:"positions,omitempty"`
}

type identificationResultRecord struct {
	Positions []coords.Point `json:"positions"`
	Dimension int            `json:"dimension"`
	Shape     *shapeRecord   `json:"shape,omitempty"`
}

type identificationContainerRecord struct {
	CoordinateSystem coordinateSystemRecord       `json:"coordinate_system"`
	FeatureSize      float64                      `json:"feature_size"`
	Results          []identificationResultRecord `json:"results"`
}

func encodeShape(s identify.Shape) *shapeRecord {
	switch s := s.(type) {
	case *identify.NodalPoint:
		return &shapeRecord{Kind: s.Kind().String(), Position: s.Position}
	case *identify.NodalLine:
		return &shapeRecord{Kind: s.Kind().String(), Path: s.Path}
	case *identify.NodalSurface:
		return &shapeRecord{Kind: s.Kind().String(), Centroid: s.Centroid, Normal: s.Normal, Positions: s.Positions}
	default:
		return nil
	}
}

func decodeShape(r *shapeRecord) (identify.Shape, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case identify.KindPoint.String():
		return &identify.NodalPoint{Position: r.Position}, nil
	case identify.KindLine.String():
		return &identify.NodalLine{Path: r.Path}, nil
	case identify.KindSurface.String():
		return &identify.NodalSurface{Centroid: r.Centroid, Normal: r.Normal, Positions: r.Positions}, nil
	default:
		return nil, fmt.Errorf("%w: unknown shape kind %q", ErrCorrupt, r.Kind)
	}
}

func encodeIdentification(c *identify.ResultContainer) (identificationContainerRecord, error) {
	sys, err := systemRecord(c.System)
	if err != nil {
		return identificationContainerRecord{}, err
	}
	rec := identificationContainerRecord{
		CoordinateSystem: sys,
		FeatureSize:      c.FeatureSize,
		Results:          make([]identificationResultRecord, len(c.Results)),
	}
	for i, r := range c.Results {
		rec.Results[i] = identificationResultRecord{
			Positions: r.Positions,
			Dimension: r.Dimension,
			Shape:     encodeShape(r.Shape),
		}
	}
	return rec, nil
}

func decodeIdentification(r *identificationContainerRecord) (*identify.ResultContainer, error) {
	box, err := r.CoordinateSystem.box()
	if err != nil {
		return nil, err
	}
	out := &identify.ResultContainer{
		System:      box,
		FeatureSize: r.FeatureSize,
		Results:     make([]identify.Result, len(r.Results)),
	}
	for i, res := range r.Results {
		shape, err := decodeShape(res.Shape)
		if err != nil {
			return nil, err
		}
		out.Results[i] = identify.Result{Positions: res.Positions, Dimension: res.Dimension, Shape: shape}
	}
	return out, nil
}
