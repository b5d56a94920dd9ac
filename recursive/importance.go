package recursive

import (
	"fmt"
	"math"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/som"
)

// importance holds per-node importance vectors for the direct and recursive
// weights together with the observed value ranges of input and excitations.
type importance struct {
	scaling float64

	direct    [][]float64
	recursive [][]float64

	inLo, inHi, inRange    []float64
	excLo, excHi, excRange []float64

	// per-node scratch for the range-scaled direct importance; nodes may be
	// scored concurrently
	inWeights [][]float64
}

func newImportance(scaling float64) *importance {
	return &importance{scaling: scaling}
}

func (ie *importance) bind(m *som.Map) {
	n, dim := m.Len(), m.InputDimension()
	ie.direct = filledRows(n, dim, 1)
	ie.recursive = filledRows(n, n, 1)
	ie.inLo, ie.inHi, ie.inRange = unboundedRange(dim)
	ie.excLo, ie.excHi, ie.excRange = unboundedRange(n)
	ie.inWeights = filledRows(n, dim, 0)
}

func filledRows(n, dim int, v float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = v
		}
	}
	return rows
}

func unboundedRange(dim int) (lo, hi, span []float64) {
	lo = make([]float64, dim)
	hi = make([]float64, dim)
	span = make([]float64, dim)
	for i := range dim {
		lo[i] = math.Inf(1)
		hi[i] = math.Inf(-1)
	}
	return lo, hi, span
}

func widen(lo, hi, span, values []float64) {
	for i, v := range values {
		lo[i] = math.Min(lo[i], v)
		hi[i] = math.Max(hi[i], v)
		span[i] = hi[i] - lo[i]
	}
}

func (ie *importance) observeInput(input []float64) {
	widen(ie.inLo, ie.inHi, ie.inRange, input)
}

func (ie *importance) observeExcitations(exc []float64) {
	if exc != nil {
		widen(ie.excLo, ie.excHi, ie.excRange, exc)
	}
}

func (ie *importance) validateMetric(metric distance.Metric) error {
	if _, ok := metric.(distance.Weighted); !ok {
		return fmt.Errorf("%w: importance estimation requires a weighted input metric, got %v",
			som.ErrInvalidConfiguration, metric.Kind())
	}
	return nil
}

// inputDistance weights each dimension by importance/range so dimensions
// with a wide spread do not dominate.
func (ie *importance) inputDistance(m *som.Map, offset int, input []float64) float64 {
	imp := ie.direct[offset]
	w := ie.inWeights[offset]
	for i, v := range imp {
		w[i] = v
		if ie.inRange[i] > 0 {
			w[i] /= ie.inRange[i]
		}
	}
	return m.InputMetric().(distance.Weighted).WeightedDistance(input, m.NodeWeights(offset), w)
}

func (ie *importance) recursiveDistance(m *som.Map, offset int, exc, rw []float64) float64 {
	return m.InputMetric().(distance.Weighted).WeightedDistance(exc, rw, ie.recursive[offset])
}

func (ie *importance) updateNode(m *som.Map, offset int, epsilon, h float64, r *recurrent) {
	if !r.predict {
		ie.update(m.NodeWeights(offset), ie.direct[offset], ie.inRange, m.Input(), epsilon, h)
	}
	if r.excitations != nil {
		ie.update(r.weights[offset], ie.recursive[offset], ie.excRange, r.excitations, epsilon, h)
	}
}

// update moves weight towards data by ε·h·diff·importance and integrates the
// importance towards fuzzyXor(|diff|/range, h) where the normalized
// difference lies in [0,1].
func (ie *importance) update(weight, imp, span, data []float64, epsilon, h float64) {
	k := h * ie.scaling
	scale := epsilon * h
	for i := range weight {
		diff := data[i] - weight[i]
		weight[i] += scale * diff * imp[i]

		nd := math.Abs(diff) / span[i]
		if nd >= 0 && nd <= 1 {
			imp[i] = imp[i]*(1-k) + k*som.FuzzyXor(nd, h)
		}
	}
}

func (ie *importance) appendState(dst []float64) []float64 {
	dst = appendRows(dst, ie.direct)
	dst = appendRows(dst, ie.recursive)
	dst = append(dst, ie.inLo...)
	dst = append(dst, ie.inHi...)
	dst = append(dst, ie.excLo...)
	return append(dst, ie.excHi...)
}

func (ie *importance) restoreState(src []float64) ([]float64, error) {
	var err error
	if src, err = restoreRows(ie.direct, src); err != nil {
		return nil, err
	}
	if src, err = restoreRows(ie.recursive, src); err != nil {
		return nil, err
	}
	if src, err = restoreRows([][]float64{ie.inLo, ie.inHi, ie.excLo, ie.excHi}, src); err != nil {
		return nil, err
	}
	restoreSpan(ie.inLo, ie.inHi, ie.inRange)
	restoreSpan(ie.excLo, ie.excHi, ie.excRange)
	return src, nil
}

func restoreSpan(lo, hi, span []float64) {
	for i := range span {
		span[i] = 0
		if hi[i] >= lo[i] {
			span[i] = hi[i] - lo[i]
		}
	}
}

func (ie *importance) clone() *importance {
	return &importance{
		scaling:   ie.scaling,
		direct:    cloneRows(ie.direct),
		recursive: cloneRows(ie.recursive),
		inLo:      append([]float64(nil), ie.inLo...),
		inHi:      append([]float64(nil), ie.inHi...),
		inRange:   append([]float64(nil), ie.inRange...),
		excLo:     append([]float64(nil), ie.excLo...),
		excHi:     append([]float64(nil), ie.excHi...),
		excRange:  append([]float64(nil), ie.excRange...),
		inWeights: cloneRows(ie.inWeights),
	}
}

// IEStateless is a Stateless recursive PLSOM2 that estimates the importance
// of every direct and recursive weight component. The input metric must
// implement distance.Weighted; the default is WeightedEuclidean.
type IEStateless struct {
	*Stateless
}

// NewIEStateless creates an importance-estimating stateless recursive PLSOM2.
func NewIEStateless(alpha float64, inputDim int, outputDims []int, nhRange float64, opts ...Option) (*IEStateless, error) {
	o := defaultOptions()
	o.mapOpts = []som.Option{som.WithInputMetric(distance.WeightedEuclidean{})}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	p := newPLSOM2Policy(alpha, nhRange, o)
	p.stateless = true
	p.ie = newImportance(o.importanceScaling)
	m, err := newPLSOM2(p, inputDim, outputDims, o)
	if err != nil {
		return nil, err
	}
	return &IEStateless{Stateless: &Stateless{PLSOM2: m}}, nil
}

// ImportanceScaling returns the time-integration factor of the importance update.
func (ie *IEStateless) ImportanceScaling() float64 { return ie.policy.ie.scaling }

// SetImportanceScaling sets the time-integration factor. It must be in [0,1].
func (ie *IEStateless) SetImportanceScaling(f float64) error {
	if err := validateImportanceScaling(f); err != nil {
		return err
	}
	ie.policy.ie.scaling = f
	return nil
}

// DirectImportance returns a copy of the direct importance vector at offset.
func (ie *IEStateless) DirectImportance(offset int) []float64 {
	return append([]float64(nil), ie.policy.ie.direct[offset]...)
}

// RecursiveImportance returns a copy of the recursive importance vector at offset.
func (ie *IEStateless) RecursiveImportance(offset int) []float64 {
	return append([]float64(nil), ie.policy.ie.recursive[offset]...)
}

// InputRange returns a copy of the observed per-dimension input range.
func (ie *IEStateless) InputRange() []float64 {
	return append([]float64(nil), ie.policy.ie.inRange...)
}

// Clone returns an independent copy.
func (ie *IEStateless) Clone() (*IEStateless, error) {
	c, err := ie.Stateless.Clone()
	if err != nil {
		return nil, err
	}
	return &IEStateless{Stateless: c}, nil
}
