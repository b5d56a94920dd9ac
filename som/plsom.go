package som

import (
	"math"

	"github.com/hupe1980/plsom/diameter"
)

// plsomPolicy derives ε from the ratio of the current error to ρ, the largest
// error seen so far.
type plsomPolicy struct {
	nhRange       float64
	learningScale float64
	rho           float64
}

func (p *plsomPolicy) Kind() string { return KindPLSOM }

func (p *plsomPolicy) Rate(m *Map) (float64, float64) {
	err := m.LastError()
	eps := err / p.rho
	if eps > 1 {
		p.rho = err
		eps = 1
	}
	if math.IsNaN(eps) {
		m.Guard("plsom_zero_rho")
		eps = 0
	}
	return eps * p.learningScale, NeighborhoodSize(eps, p.nhRange)
}

func (p *plsomPolicy) Params() map[string]float64 {
	return map[string]float64{"neighborhood_range": p.nhRange, "learning_scale": p.learningScale}
}

func (p *plsomPolicy) AppendState(dst []float64) []float64 { return append(dst, p.rho) }

func (p *plsomPolicy) RestoreState(src []float64) ([]float64, error) {
	if len(src) < 1 {
		return nil, invalidState("rho missing")
	}
	p.rho = src[0]
	return src[1:], nil
}

func (p *plsomPolicy) ClonePolicy(*Map) Policy {
	c := *p
	return &c
}

// PLSOM is the parameter-less SOM: the learning rate and neighbourhood size
// follow from the error relative to the largest error seen so far.
type PLSOM struct {
	*Map
	policy *plsomPolicy
}

// NewPLSOM creates a PLSOM with the given neighbourhood range.
func NewPLSOM(inputDim int, outputDims []int, nhRange float64, opts ...Option) (*PLSOM, error) {
	p := &plsomPolicy{nhRange: nhRange, learningScale: 1}
	m, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &PLSOM{Map: m, policy: p}, nil
}

// NeighborhoodRange returns the maximum neighbourhood size.
func (p *PLSOM) NeighborhoodRange() float64 { return p.policy.nhRange }

// SetNeighborhoodRange sets the maximum neighbourhood size.
func (p *PLSOM) SetNeighborhoodRange(r float64) { p.policy.nhRange = r }

// LearningScale returns the factor applied to ε in the weight update.
func (p *PLSOM) LearningScale() float64 { return p.policy.learningScale }

// SetLearningScale sets the factor applied to ε in the weight update. Default: 1.
func (p *PLSOM) SetLearningScale(s float64) { p.policy.learningScale = s }

// Rho returns the largest error seen so far.
func (p *PLSOM) Rho() float64 { return p.policy.rho }

// Clone returns an independent copy.
func (p *PLSOM) Clone() (*PLSOM, error) {
	m, err := p.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &PLSOM{Map: m, policy: m.Policy().(*plsomPolicy)}, nil
}

// plsom2Policy normalizes the error by the estimated diameter of the input
// distribution.
type plsom2Policy struct {
	nhRange   float64
	estimator *diameter.Estimator
}

func (p *plsom2Policy) Kind() string { return KindPLSOM2 }

func (p *plsom2Policy) ObserveInput(_ *Map, input []float64, _ bool) {
	p.estimator.Add(input)
}

func (p *plsom2Policy) Rate(m *Map) (float64, float64) {
	eps := diameterEpsilon(m, m.LastError(), p.estimator.Diameter())
	return eps, NeighborhoodSize(eps, p.nhRange)
}

func (p *plsom2Policy) Params() map[string]float64 {
	return map[string]float64{"neighborhood_range": p.nhRange}
}

func (p *plsom2Policy) AppendState(dst []float64) []float64 { return p.estimator.AppendState(dst) }

func (p *plsom2Policy) RestoreState(src []float64) ([]float64, error) {
	rest, err := p.estimator.RestoreState(src)
	if err != nil {
		return nil, invalidState("%v", err)
	}
	return rest, nil
}

func (p *plsom2Policy) ClonePolicy(*Map) Policy {
	return &plsom2Policy{nhRange: p.nhRange, estimator: p.estimator.Clone()}
}

// diameterEpsilon returns err/diameter clamped to [0,1]; 0 when err is 0 or
// the ratio is undefined.
func diameterEpsilon(m *Map, err, diam float64) float64 {
	if err == 0 {
		return 0
	}
	eps := err / diam
	switch {
	case math.IsNaN(eps):
		m.Guard("diameter_nan")
		return 0
	case eps > 1:
		return 1
	case eps < 0:
		m.Guard("diameter_negative")
		return 0
	}
	return eps
}

// PLSOM2 is the PLSOM variant whose ε is the error divided by an online
// estimate of the input-space diameter. The estimator is fed on every
// Classify and Train.
type PLSOM2 struct {
	*Map
	policy *plsom2Policy
}

// NewPLSOM2 creates a PLSOM2 with the given neighbourhood range.
func NewPLSOM2(inputDim int, outputDims []int, nhRange float64, opts ...Option) (*PLSOM2, error) {
	p := &plsom2Policy{nhRange: nhRange, estimator: diameter.New()}
	m, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &PLSOM2{Map: m, policy: p}, nil
}

// NeighborhoodRange returns the maximum neighbourhood size.
func (p *PLSOM2) NeighborhoodRange() float64 { return p.policy.nhRange }

// SetNeighborhoodRange sets the maximum neighbourhood size.
func (p *PLSOM2) SetNeighborhoodRange(r float64) { p.policy.nhRange = r }

// Diameter returns the current input-space diameter estimate.
func (p *PLSOM2) Diameter() float64 { return p.policy.estimator.Diameter() }

// Clone returns an independent copy.
func (p *PLSOM2) Clone() (*PLSOM2, error) {
	m, err := p.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &PLSOM2{Map: m, policy: m.Policy().(*plsom2Policy)}, nil
}
