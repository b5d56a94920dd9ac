package som

import (
	"math"

	"github.com/hupe1980/plsom/diameter"
	"github.com/hupe1980/plsom/distance"
)

// ImportanceIntegration is the time-integration constant of the per-node
// importance update.
const ImportanceIntegration = 0.05

// FuzzyXor returns max(min(1−x, y), min(x, 1−y)).
func FuzzyXor(x, y float64) float64 {
	return math.Max(math.Min(1-x, y), math.Min(x, 1-y))
}

type iePolicy struct {
	nhRange    float64
	estimator  *diameter.Estimator
	importance [][]float64
	lo, hi     []float64
}

func (p *iePolicy) Kind() string { return KindIEPLSOM2 }

func (p *iePolicy) Bind(m *Map) error {
	dim := m.InputDimension()
	p.importance = make([][]float64, m.Len())
	for i := range p.importance {
		p.importance[i] = make([]float64, dim)
		for j := range p.importance[i] {
			p.importance[i][j] = 1
		}
	}
	p.lo = make([]float64, dim)
	p.hi = make([]float64, dim)
	for i := range dim {
		p.lo[i] = math.Inf(1)
		p.hi[i] = math.Inf(-1)
	}
	return nil
}

func (p *iePolicy) ValidateInputMetric(metric distance.Metric) error {
	if _, ok := metric.(distance.Weighted); !ok {
		return invalidConfig("importance estimation requires a weighted input metric, got %v", metric.Kind())
	}
	return nil
}

// ObserveInput feeds the diameter estimator and the per-dimension range.
func (p *iePolicy) ObserveInput(_ *Map, input []float64, _ bool) {
	p.estimator.Add(input)
	for i, v := range input {
		p.lo[i] = math.Min(p.lo[i], v)
		p.hi[i] = math.Max(p.hi[i], v)
	}
}

func (p *iePolicy) Criterion(m *Map, offset int, input []float64) float64 {
	return m.InputMetric().(distance.Weighted).WeightedDistance(m.NodeWeights(offset), input, p.importance[offset])
}

func (p *iePolicy) Rate(m *Map) (float64, float64) {
	eps := diameterEpsilon(m, m.LastError(), p.estimator.Diameter())
	return eps, NeighborhoodSize(eps, p.nhRange)
}

// UpdateNode moves the weights by ε·h·diff·importance and integrates the
// importance towards fuzzyXor(|diff|/range, h) for dimensions whose
// normalized difference lies in [0,1].
func (p *iePolicy) UpdateNode(m *Map, offset int, epsilon, h float64) {
	w := m.NodeWeights(offset)
	imp := p.importance[offset]
	input := m.Input()
	k := ImportanceIntegration * h
	for i := range w {
		diff := input[i] - w[i]
		w[i] += epsilon * h * diff * imp[i]

		nd := math.Abs(diff) / (p.hi[i] - p.lo[i])
		if nd >= 0 && nd <= 1 {
			imp[i] = imp[i]*(1-k) + k*FuzzyXor(nd, h)
		}
	}
}

func (p *iePolicy) Params() map[string]float64 {
	return map[string]float64{"neighborhood_range": p.nhRange}
}

func (p *iePolicy) AppendState(dst []float64) []float64 {
	dst = p.estimator.AppendState(dst)
	for _, imp := range p.importance {
		dst = append(dst, imp...)
	}
	dst = append(dst, p.lo...)
	return append(dst, p.hi...)
}

func (p *iePolicy) RestoreState(src []float64) ([]float64, error) {
	rest, err := p.estimator.RestoreState(src)
	if err != nil {
		return nil, invalidState("%v", err)
	}
	dim := len(p.lo)
	if need := len(p.importance)*dim + 2*dim; len(rest) < need {
		return nil, invalidState("importance state needs %d values, got %d", need, len(rest))
	}
	for _, imp := range p.importance {
		rest = rest[copy(imp, rest):]
	}
	rest = rest[copy(p.lo, rest):]
	rest = rest[copy(p.hi, rest):]
	return rest, nil
}

func (p *iePolicy) ClonePolicy(*Map) Policy {
	c := &iePolicy{
		nhRange:    p.nhRange,
		estimator:  p.estimator.Clone(),
		importance: make([][]float64, len(p.importance)),
		lo:         append([]float64(nil), p.lo...),
		hi:         append([]float64(nil), p.hi...),
	}
	for i, imp := range p.importance {
		c.importance[i] = append([]float64(nil), imp...)
	}
	return c
}

// IEPLSOM2 is PLSOM2 with per-node, per-dimension importance. The winner
// search uses the importance as metric weights, and the update integrates
// how well each dimension agrees with the neighbourhood scaling.
//
// The input metric must implement distance.Weighted; the default is
// WeightedEuclidean.
type IEPLSOM2 struct {
	*Map
	policy *iePolicy
}

// NewIEPLSOM2 creates an importance-estimating PLSOM2.
func NewIEPLSOM2(inputDim int, outputDims []int, nhRange float64, opts ...Option) (*IEPLSOM2, error) {
	p := &iePolicy{nhRange: nhRange, estimator: diameter.New()}
	opts = append([]Option{WithInputMetric(distance.WeightedEuclidean{})}, opts...)
	m, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &IEPLSOM2{Map: m, policy: p}, nil
}

// Importance returns a copy of the importance vector of the node at offset.
func (ie *IEPLSOM2) Importance(offset int) []float64 {
	return append([]float64(nil), ie.policy.importance[offset]...)
}

// Range returns copies of the per-dimension minimum and maximum seen so far.
func (ie *IEPLSOM2) Range() (lo, hi []float64) {
	return append([]float64(nil), ie.policy.lo...), append([]float64(nil), ie.policy.hi...)
}

// NeighborhoodRange returns the maximum neighbourhood size.
func (ie *IEPLSOM2) NeighborhoodRange() float64 { return ie.policy.nhRange }

// SetNeighborhoodRange sets the maximum neighbourhood size.
func (ie *IEPLSOM2) SetNeighborhoodRange(r float64) { ie.policy.nhRange = r }

// Diameter returns the current input-space diameter estimate.
func (ie *IEPLSOM2) Diameter() float64 { return ie.policy.estimator.Diameter() }

// Clone returns an independent copy.
func (ie *IEPLSOM2) Clone() (*IEPLSOM2, error) {
	m, err := ie.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &IEPLSOM2{Map: m, policy: m.Policy().(*iePolicy)}, nil
}
