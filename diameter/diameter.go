// Package diameter tracks an online estimate of the diameter of a vector
// stream using a bounded set of extremal points.
package diameter

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/plsom/distance"
)

// ErrInvalidState is returned when restoring from a malformed state vector.
var ErrInvalidState = errors.New("invalid diameter estimator state")

// Option configures an Estimator.
type Option func(*Estimator)

// WithMetric sets the metric used to compare points. Default: Euclidean.
func WithMetric(m distance.Metric) Option {
	return func(e *Estimator) {
		if m != nil {
			e.metric = m
		}
	}
}

// Estimator keeps at most dim+1 retained points. The tracked diameter
// never decreases.
//
// An Estimator is not safe for concurrent use.
type Estimator struct {
	metric distance.Metric
	points [][]float64
	max    float64
}

// New creates an empty estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		metric: distance.Euclidean{},
		max:    -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add feeds p into the estimator. p is copied if retained.
func (e *Estimator) Add(p []float64) {
	closest := 0
	minDist := math.MaxFloat64
	maxDist := 0.0
	for i, q := range e.points {
		d := e.metric.Distance(p, q)
		if d < minDist {
			minDist = d
			closest = i
		}
		if d > maxDist {
			maxDist = d
		}
	}

	if maxDist <= e.max {
		return
	}

	e.max = maxDist
	e.points = append(e.points, append([]float64(nil), p...))
	if len(e.points) > len(p)+1 {
		e.points = append(e.points[:closest], e.points[closest+1:]...)
	}
}

// Diameter returns the largest distance observed between retained points,
// or 0 before any point has been added.
func (e *Estimator) Diameter() float64 {
	if e.max < 0 {
		return 0
	}
	return e.max
}

// Len returns the number of retained points.
func (e *Estimator) Len() int { return len(e.points) }

// Filled reports whether the retained set has reached its bound.
func (e *Estimator) Filled() bool {
	if len(e.points) == 0 {
		return false
	}
	return len(e.points) >= len(e.points[0])+1
}

// Clone returns an independent copy.
func (e *Estimator) Clone() *Estimator {
	res := &Estimator{
		metric: e.metric,
		max:    e.max,
		points: make([][]float64, len(e.points)),
	}
	for i, p := range e.points {
		res.points[i] = append([]float64(nil), p...)
	}
	return res
}

// AppendState appends [max, count, dim, points...] to dst.
func (e *Estimator) AppendState(dst []float64) []float64 {
	dim := 0
	if len(e.points) > 0 {
		dim = len(e.points[0])
	}
	dst = append(dst, e.max, float64(len(e.points)), float64(dim))
	for _, p := range e.points {
		dst = append(dst, p...)
	}
	return dst
}

// RestoreState reads a state written by AppendState and returns the
// remaining, unconsumed part of src.
func (e *Estimator) RestoreState(src []float64) ([]float64, error) {
	if len(src) < 3 {
		return nil, fmt.Errorf("%w: header truncated", ErrInvalidState)
	}
	rest := float64(len(src) - 3)
	if !(src[1] >= 0 && src[1] <= rest && src[2] >= 0 && src[2] <= rest) {
		return nil, fmt.Errorf("%w: %v points of dimension %v", ErrInvalidState, src[1], src[2])
	}
	count, dim := int(src[1]), int(src[2])
	if count > 0 && dim > (len(src)-3)/count {
		return nil, fmt.Errorf("%w: %d points of dimension %d", ErrInvalidState, count, dim)
	}
	e.max = src[0]
	e.points = make([][]float64, count)
	off := 3
	for i := range e.points {
		e.points[i] = append([]float64(nil), src[off:off+dim]...)
		off += dim
	}
	return src[off:], nil
}
