package recursive

import (
	"math"

	"github.com/hupe1980/plsom/diameter"
	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/som"
)

// plsom2Policy normalizes the winner's input and recursive distances by the
// diameters of the input and excitation streams.
type plsom2Policy struct {
	recurrent
	stateless bool
	softmax   bool

	inputEst *diameter.Estimator
	excEst   *diameter.Estimator

	inDist   []float64
	recDist  []float64
	internal float64

	ie *importance
}

func newPLSOM2Policy(alpha, nhRange float64, o options) *plsom2Policy {
	return &plsom2Policy{
		recurrent: newRecurrent(alpha, nhRange, o),
		softmax:   o.softmax,
		inputEst:  diameter.New(),
		excEst:    diameter.New(),
	}
}

func (p *plsom2Policy) Kind() string {
	switch {
	case p.ie != nil:
		return KindIEStateless
	case p.stateless:
		return KindStateless
	default:
		return KindPLSOM2
	}
}

func (p *plsom2Policy) Bind(m *som.Map) error {
	p.bind(m, !p.stateless)
	p.inDist = make([]float64, m.Len())
	p.recDist = make([]float64, m.Len())
	if p.ie != nil {
		p.ie.bind(m)
	}
	return nil
}

func (p *plsom2Policy) ValidateInputMetric(metric distance.Metric) error {
	if p.ie == nil {
		return nil
	}
	return p.ie.validateMetric(metric)
}

func (p *plsom2Policy) ObserveInput(_ *som.Map, input []float64, training bool) {
	if p.ie != nil {
		if input != nil {
			p.ie.observeInput(input)
		}
		p.ie.observeExcitations(p.excitations)
	}
	if training && input != nil && !p.predict {
		p.inputEst.Add(input)
	}
}

// Criterion is 1 − exp(−(α·d(x, w) + (1−α)·d(exc, rw)))·recovery.
func (p *plsom2Policy) Criterion(m *som.Map, offset int, input []float64) float64 {
	var in, rec float64
	if !p.predict {
		in = p.alpha * p.inputDistance(m, offset, input)
	}
	if p.excitations != nil {
		rec = (1 - p.alpha) * p.recursiveDistance(m, offset)
	}
	p.inDist[offset] = in
	p.recDist[offset] = rec
	exc := math.Exp(-(in + rec)) * p.scale(offset)
	p.nu[offset] = exc
	return 1 - exc
}

func (p *plsom2Policy) inputDistance(m *som.Map, offset int, input []float64) float64 {
	if p.ie != nil {
		return p.ie.inputDistance(m, offset, input)
	}
	return m.InputMetric().Distance(input, m.NodeWeights(offset))
}

func (p *plsom2Policy) recursiveDistance(m *som.Map, offset int) float64 {
	if p.ie != nil {
		return p.ie.recursiveDistance(m, offset, p.excitations, p.weights[offset])
	}
	return m.InputMetric().Distance(p.excitations, p.weights[offset])
}

func (p *plsom2Policy) ObserveWinner(m *som.Map, winner int, _ []float64, training bool) {
	m.SetWinnerError(p.inDist[winner])
	p.internal = p.recDist[winner]

	if p.softmax {
		p.softmaxNu()
	} else {
		lo := 1.0
		for _, v := range p.nu {
			lo = math.Min(lo, v)
		}
		p.normalize(m, lo, p.nu[winner])
	}
	p.recover(winner)

	if training && p.excitations != nil {
		p.excEst.Add(p.excitations)
	}
}

func (p *plsom2Policy) Rate(m *som.Map) (float64, float64) {
	last := m.LastError()
	var eps float64
	switch {
	case p.predict:
		eps = p.internal / ((1 - p.alpha) * p.excEst.Diameter())
	case p.excitations == nil:
		eps = last / (p.alpha * p.inputEst.Diameter())
	default:
		eps = (p.internal + last) / (p.alpha*p.inputEst.Diameter() + (1-p.alpha)*p.excEst.Diameter())
	}
	eps = clampEpsilon(m, eps)
	return eps * p.learningScale, som.NeighborhoodSize(eps, p.nhRange)
}

func (p *plsom2Policy) UpdateNode(m *som.Map, offset int, epsilon, h float64) {
	if p.ie != nil {
		p.ie.updateNode(m, offset, epsilon, h, &p.recurrent)
		return
	}
	p.updateNode(m, offset, epsilon*h)
}

func (p *plsom2Policy) Commit(*som.Map, bool) { p.commit() }

func (p *plsom2Policy) Params() map[string]float64 {
	params := p.params()
	params["softmax"] = boolParam(p.softmax)
	if p.ie != nil {
		params["importance_scaling"] = p.ie.scaling
	}
	return params
}

func (p *plsom2Policy) AppendState(dst []float64) []float64 {
	dst = p.appendState(dst)
	dst = p.inputEst.AppendState(dst)
	dst = p.excEst.AppendState(dst)
	if p.ie != nil {
		dst = p.ie.appendState(dst)
	}
	return dst
}

func (p *plsom2Policy) RestoreState(src []float64) ([]float64, error) {
	rest, err := p.restoreState(src)
	if err != nil {
		return nil, err
	}
	if rest, err = p.inputEst.RestoreState(rest); err != nil {
		return nil, invalidState("input diameter: %v", err)
	}
	if rest, err = p.excEst.RestoreState(rest); err != nil {
		return nil, invalidState("excitation diameter: %v", err)
	}
	if p.ie != nil {
		return p.ie.restoreState(rest)
	}
	return rest, nil
}

func (p *plsom2Policy) ClonePolicy(*som.Map) som.Policy {
	c := &plsom2Policy{
		recurrent: p.clone(),
		stateless: p.stateless,
		softmax:   p.softmax,
		inputEst:  p.inputEst.Clone(),
		excEst:    p.excEst.Clone(),
		inDist:    append([]float64(nil), p.inDist...),
		recDist:   append([]float64(nil), p.recDist...),
		internal:  p.internal,
	}
	if p.ie != nil {
		c.ie = p.ie.clone()
	}
	return c
}

// PLSOM2 is the recursive PLSOM2. The step error is the α-scaled input
// distance of the winner and the internal error its (1−α)-scaled recursive
// distance; ε divides their sum by the matching blend of input and excitation
// diameters.
type PLSOM2 struct {
	*som.Map
	policy *plsom2Policy
}

func newPLSOM2(p *plsom2Policy, inputDim int, outputDims []int, o options) (*PLSOM2, error) {
	m, err := som.NewMap(inputDim, outputDims, p, o.mapOpts...)
	if err != nil {
		return nil, err
	}
	return &PLSOM2{Map: m, policy: p}, nil
}

// NewPLSOM2 creates a diameter-based recursive PLSOM.
func NewPLSOM2(alpha float64, inputDim int, outputDims []int, nhRange float64, opts ...Option) (*PLSOM2, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newPLSOM2(newPLSOM2Policy(alpha, nhRange, o), inputDim, outputDims, o)
}

// Alpha returns the weight of the input term.
func (p *PLSOM2) Alpha() float64 { return p.policy.alpha }

// SetAlpha sets the weight of the input term.
func (p *PLSOM2) SetAlpha(alpha float64) { p.policy.alpha = alpha }

// Predict reports whether the map ignores its input.
func (p *PLSOM2) Predict() bool { return p.policy.predict }

// SetPredict switches predict mode.
func (p *PLSOM2) SetPredict(predict bool) { p.policy.predict = predict }

// InternalError returns the (1−α)-scaled recursive distance of the last winner.
func (p *PLSOM2) InternalError() float64 { return p.policy.internal }

// InputDiameter returns the diameter estimate of the input stream.
func (p *PLSOM2) InputDiameter() float64 { return p.policy.inputEst.Diameter() }

// ExcitationDiameter returns the diameter estimate of the excitation stream.
func (p *PLSOM2) ExcitationDiameter() float64 { return p.policy.excEst.Diameter() }

// Excitations returns a copy of the excitations of the last step, or nil if
// a stateless map has not run yet.
func (p *PLSOM2) Excitations() []float64 {
	if p.policy.excitations == nil {
		return nil
	}
	return append([]float64(nil), p.policy.excitations...)
}

// Recovery returns a copy of the per-node recovery values.
func (p *PLSOM2) Recovery() []float64 { return append([]float64(nil), p.policy.recovery...) }

// RecursiveWeights returns a copy of the recursive weights of the node at offset.
func (p *PLSOM2) RecursiveWeights(offset int) []float64 {
	return append([]float64(nil), p.policy.weights[offset]...)
}

// Clone returns an independent copy.
func (p *PLSOM2) Clone() (*PLSOM2, error) {
	m, err := p.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &PLSOM2{Map: m, policy: m.Policy().(*plsom2Policy)}, nil
}

// Stateless is a recursive PLSOM2 whose excitations may be absent and can be
// supplied per call. A step without excitations ignores the recursive term
// and uses ε = err/(α·Din). Use NewSession to run independent sequences over
// the same weights.
type Stateless struct {
	*PLSOM2
}

// NewStateless creates a stateless recursive PLSOM2.
func NewStateless(alpha float64, inputDim int, outputDims []int, nhRange float64, opts ...Option) (*Stateless, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	p := newPLSOM2Policy(alpha, nhRange, o)
	p.stateless = true
	m, err := newPLSOM2(p, inputDim, outputDims, o)
	if err != nil {
		return nil, err
	}
	return &Stateless{PLSOM2: m}, nil
}

// SetExcitations replaces the excitations used by the next step. nil clears
// them. The slice is copied.
func (s *Stateless) SetExcitations(exc []float64) error {
	if exc == nil {
		s.policy.excitations = nil
		return nil
	}
	if len(exc) != s.Len() {
		return &som.ErrDimensionMismatch{Expected: s.Len(), Actual: len(exc)}
	}
	s.policy.excitations = append([]float64(nil), exc...)
	return nil
}

// NewSession returns a session with empty excitations.
func (s *Stateless) NewSession() *Session {
	return &Session{m: s}
}

// Clone returns an independent copy.
func (s *Stateless) Clone() (*Stateless, error) {
	c, err := s.PLSOM2.Clone()
	if err != nil {
		return nil, err
	}
	return &Stateless{PLSOM2: c}, nil
}
