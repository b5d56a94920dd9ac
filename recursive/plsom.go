package recursive

import (
	"math"

	"github.com/hupe1980/plsom/som"
)

// Kind discriminators of the variants in this package.
const (
	KindPLSOM       = "recursive-plsom"
	KindPLSOM2      = "recursive-plsom2"
	KindStateless   = "stateless-recursive-plsom2"
	KindIEStateless = "ie-stateless-recursive-plsom2"
	KindLayer       = "multilayer-recursive-plsom2"
)

type plsomPolicy struct {
	recurrent
	rho float64
}

func (p *plsomPolicy) Kind() string { return KindPLSOM }

func (p *plsomPolicy) Bind(m *som.Map) error {
	p.bind(m, true)
	return nil
}

// Criterion is 1 − exp(−dist)·recovery; the raw excitation is kept in nu.
func (p *plsomPolicy) Criterion(m *som.Map, offset int, input []float64) float64 {
	metric := m.InputMetric()
	dist := (1 - p.alpha) * metric.Distance(p.excitations, p.weights[offset])
	if !p.predict {
		dist += p.alpha * metric.Distance(input, m.NodeWeights(offset))
	}
	exc := math.Exp(-dist)
	p.nu[offset] = exc
	return 1 - exc*p.scale(offset)
}

func (p *plsomPolicy) ObserveWinner(m *som.Map, winner int, criteria []float64, _ bool) {
	lo, hi := 1.0, 0.0
	for _, v := range p.nu {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	p.normalize(m, lo, hi)
	if p.useRecovery {
		p.recover(winner)
		for i, r := range p.recovery {
			p.nu[i] *= r
		}
	}
	m.SetWinnerError(math.Max(criteria[winner], 0))
}

func (p *plsomPolicy) Rate(m *som.Map) (float64, float64) {
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
	return eps * p.learningScale, som.NeighborhoodSize(eps, p.nhRange)
}

func (p *plsomPolicy) UpdateNode(m *som.Map, offset int, epsilon, h float64) {
	p.updateNode(m, offset, epsilon*h)
}

func (p *plsomPolicy) Commit(*som.Map, bool) { p.commit() }

func (p *plsomPolicy) Params() map[string]float64 { return p.params() }

func (p *plsomPolicy) AppendState(dst []float64) []float64 {
	return p.appendState(append(dst, p.rho))
}

func (p *plsomPolicy) RestoreState(src []float64) ([]float64, error) {
	if len(src) < 1 {
		return nil, invalidState("rho missing")
	}
	p.rho = src[0]
	return p.restoreState(src[1:])
}

func (p *plsomPolicy) ClonePolicy(*som.Map) som.Policy {
	return &plsomPolicy{recurrent: p.clone(), rho: p.rho}
}

// PLSOM is the recursive PLSOM with a rho-based rate. Excitations are
// exp(−dist), min–max normalized and scaled by the recovery of each node.
type PLSOM struct {
	*som.Map
	policy *plsomPolicy
}

// NewPLSOM creates a rho-based recursive PLSOM.
func NewPLSOM(alpha float64, inputDim int, outputDims []int, nhRange float64, opts ...Option) (*PLSOM, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	p := &plsomPolicy{recurrent: newRecurrent(alpha, nhRange, o)}
	m, err := som.NewMap(inputDim, outputDims, p, o.mapOpts...)
	if err != nil {
		return nil, err
	}
	return &PLSOM{Map: m, policy: p}, nil
}

// Alpha returns the weight of the input term.
func (p *PLSOM) Alpha() float64 { return p.policy.alpha }

// SetAlpha sets the weight of the input term.
func (p *PLSOM) SetAlpha(alpha float64) { p.policy.alpha = alpha }

// Predict reports whether the map ignores its input.
func (p *PLSOM) Predict() bool { return p.policy.predict }

// SetPredict switches predict mode.
func (p *PLSOM) SetPredict(predict bool) { p.policy.predict = predict }

// Rho returns the largest error seen so far.
func (p *PLSOM) Rho() float64 { return p.policy.rho }

// Excitations returns a copy of the excitations of the last step.
func (p *PLSOM) Excitations() []float64 { return append([]float64(nil), p.policy.excitations...) }

// Recovery returns a copy of the per-node recovery values.
func (p *PLSOM) Recovery() []float64 { return append([]float64(nil), p.policy.recovery...) }

// RecursiveWeights returns a copy of the recursive weights of the node at offset.
func (p *PLSOM) RecursiveWeights(offset int) []float64 {
	return append([]float64(nil), p.policy.weights[offset]...)
}

// Clone returns an independent copy.
func (p *PLSOM) Clone() (*PLSOM, error) {
	m, err := p.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &PLSOM{Map: m, policy: m.Policy().(*plsomPolicy)}, nil
}
