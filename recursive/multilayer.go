package recursive

import (
	"math"

	"github.com/hupe1980/plsom/diameter"
	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/som"
)

// layerPolicy compares the input, the layer's own excitations and, once
// coupled, the excitations of the partner layer. Each indirect term gets an
// equal share of 1−α.
type layerPolicy struct {
	alpha   float64
	nhRange float64
	predict bool

	partner  *layerPolicy
	self     [][]float64
	feedback [][]float64

	excitations []float64
	nu          []float64

	directEst   *diameter.Estimator
	selfEst     *diameter.Estimator
	feedbackEst *diameter.Estimator
}

func (p *layerPolicy) Kind() string { return KindLayer }

func (p *layerPolicy) Bind(m *som.Map) error {
	n := m.Len()
	p.excitations = make([]float64, n)
	p.nu = make([]float64, n)
	p.self = randomRows(m, n, n)
	return nil
}

func randomRows(m *som.Map, n, dim int) [][]float64 {
	rng := m.Rand()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = 0.1 * (rng.Float64()*2 - 1)
		}
	}
	return rows
}

func (p *layerPolicy) InputOptional() bool { return p.predict }

// shares returns the weights of the direct and of each indirect term.
func (p *layerPolicy) shares() (direct, indirect float64) {
	direct, indirect = p.alpha, 1-p.alpha
	if p.predict {
		indirect = 1
	}
	if p.partner != nil {
		indirect /= 2
	}
	return direct, indirect
}

func (p *layerPolicy) ObserveInput(_ *som.Map, input []float64, training bool) {
	if !training {
		return
	}
	if !p.predict && input != nil {
		p.directEst.Add(input)
	}
	p.selfEst.Add(p.excitations)
	if p.partner != nil {
		p.feedbackEst.Add(p.partner.excitations)
	}
}

func (p *layerPolicy) Criterion(m *som.Map, offset int, input []float64) float64 {
	metric := m.InputMetric()
	direct, indirect := p.shares()
	dist := metric.Distance(p.self[offset], p.excitations) * indirect
	if p.partner != nil {
		dist += metric.Distance(p.feedback[offset], p.partner.excitations) * indirect
	}
	if !p.predict {
		dist += metric.Distance(m.NodeWeights(offset), input) * direct
	}
	p.nu[offset] = math.Exp(-dist)
	return dist
}

func (p *layerPolicy) ObserveWinner(m *som.Map, winner int, criteria []float64, _ bool) {
	m.SetWinnerError(criteria[winner])
	var total float64
	for _, v := range p.nu {
		total += math.Exp(v)
	}
	for i, v := range p.nu {
		p.nu[i] = math.Exp(v) / total
	}
}

func (p *layerPolicy) maxDiameter() float64 {
	direct, indirect := p.shares()
	d := p.selfEst.Diameter() * indirect
	if !p.predict {
		d += p.directEst.Diameter() * direct
	}
	if p.partner != nil {
		d += p.feedbackEst.Diameter() * indirect
	}
	return d
}

func (p *layerPolicy) Rate(m *som.Map) (float64, float64) {
	err := m.LastError()
	if err == 0 {
		return 0, 0
	}
	eps := err / p.maxDiameter()
	switch {
	case math.IsNaN(eps):
		m.Guard("layer_epsilon_nan")
		eps = 0
	case eps > 1:
		eps = 1
	}
	return eps, som.NeighborhoodSize(eps, p.nhRange)
}

func (p *layerPolicy) UpdateNode(m *som.Map, offset int, epsilon, h float64) {
	scale := epsilon * h
	if !p.predict {
		moveTowards(m.NodeWeights(offset), m.Input(), scale)
	}
	moveTowards(p.self[offset], p.excitations, scale)
	if p.partner != nil {
		moveTowards(p.feedback[offset], p.partner.excitations, scale)
	}
}

func moveTowards(w, target []float64, scale float64) {
	for i := range w {
		w[i] += scale * (target[i] - w[i])
	}
}

// Commit publishes the excitations of a training step; classification
// leaves the layer state, and what the partner sees, unchanged.
func (p *layerPolicy) Commit(_ *som.Map, training bool) {
	if training {
		copy(p.excitations, p.nu)
	}
}

func (p *layerPolicy) Params() map[string]float64 {
	return map[string]float64{
		"alpha":              p.alpha,
		"neighborhood_range": p.nhRange,
		"predict":            boolParam(p.predict),
	}
}

// AppendState writes [self weights, hasFeedback, feedback weights,
// excitations, estimators].
func (p *layerPolicy) AppendState(dst []float64) []float64 {
	dst = appendRows(dst, p.self)
	if p.feedback == nil {
		dst = append(dst, 0)
	} else {
		dst = append(dst, 1)
		dst = appendRows(dst, p.feedback)
	}
	dst = append(dst, p.excitations...)
	dst = p.directEst.AppendState(dst)
	dst = p.selfEst.AppendState(dst)
	return p.feedbackEst.AppendState(dst)
}

func (p *layerPolicy) RestoreState(src []float64) ([]float64, error) {
	rest, err := restoreRows(p.self, src)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, invalidState("feedback flag missing")
	}
	hasFeedback := rest[0] != 0
	rest = rest[1:]
	if hasFeedback != (p.feedback != nil) {
		return nil, invalidState("feedback weights present=%v, layer coupled=%v", hasFeedback, p.feedback != nil)
	}
	if hasFeedback {
		if rest, err = restoreRows(p.feedback, rest); err != nil {
			return nil, err
		}
	}
	if len(rest) < len(p.excitations) {
		return nil, invalidState("excitations truncated")
	}
	rest = rest[copy(p.excitations, rest):]
	for _, est := range []*diameter.Estimator{p.directEst, p.selfEst, p.feedbackEst} {
		if rest, err = est.RestoreState(rest); err != nil {
			return nil, invalidState("diameter: %v", err)
		}
	}
	return rest, nil
}

// ClonePolicy keeps the reference to the partner layer; the partner is not
// coupled back to the clone.
func (p *layerPolicy) ClonePolicy(*som.Map) som.Policy {
	return &layerPolicy{
		alpha:       p.alpha,
		nhRange:     p.nhRange,
		predict:     p.predict,
		partner:     p.partner,
		self:        cloneRows(p.self),
		feedback:    cloneRows(p.feedback),
		excitations: append([]float64(nil), p.excitations...),
		nu:          append([]float64(nil), p.nu...),
		directEst:   p.directEst.Clone(),
		selfEst:     p.selfEst.Clone(),
		feedbackEst: p.feedbackEst.Clone(),
	}
}

// Layer is one layer of a multilayer recursive PLSOM2. Besides its direct and
// self-feedback weights it owns feedback weights towards a partner layer once
// the two are joined with Couple. Terms are compared with squared Euclidean
// distance and excitations are the softmax of exp(−dist).
type Layer struct {
	*som.Map
	policy *layerPolicy
}

// NewLayer creates an uncoupled layer. The input metric is squared Euclidean
// unless overridden through WithMapOptions. Recovery and softmax options do
// not apply to layers.
func NewLayer(alpha float64, inputDim int, outputDims []int, nhRange float64, opts ...Option) (*Layer, error) {
	o := defaultOptions()
	o.mapOpts = []som.Option{som.WithInputMetric(distance.SquaredEuclidean{})}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	p := &layerPolicy{
		alpha:       alpha,
		nhRange:     nhRange,
		predict:     o.predict,
		directEst:   diameter.New(),
		selfEst:     diameter.New(),
		feedbackEst: diameter.New(),
	}
	m, err := som.NewMap(inputDim, outputDims, p, o.mapOpts...)
	if err != nil {
		return nil, err
	}
	return &Layer{Map: m, policy: p}, nil
}

// Couple joins two layers so that each compares the other's excitations
// against its feedback weights. A layer can be coupled once.
func Couple(a, b *Layer) error {
	if a == b || a.policy.partner != nil || b.policy.partner != nil {
		return ErrAlreadyCoupled
	}
	a.couple(b)
	b.couple(a)
	a.Logger().Debug("layers coupled", "nodes", a.Len(), "partner_nodes", b.Len())
	return nil
}

func (l *Layer) couple(other *Layer) {
	l.policy.partner = other.policy
	l.policy.feedback = randomRows(l.Map, l.Len(), other.Len())
}

// Coupled reports whether the layer has a partner.
func (l *Layer) Coupled() bool { return l.policy.partner != nil }

// Alpha returns the weight of the input term.
func (l *Layer) Alpha() float64 { return l.policy.alpha }

// Predict reports whether the layer ignores its input.
func (l *Layer) Predict() bool { return l.policy.predict }

// SetPredict switches predict mode.
func (l *Layer) SetPredict(predict bool) { l.policy.predict = predict }

// Excitations returns a copy of the excitations of the last step.
func (l *Layer) Excitations() []float64 { return append([]float64(nil), l.policy.excitations...) }

// SelfWeights returns a copy of the self-feedback weights of the node at offset.
func (l *Layer) SelfWeights(offset int) []float64 {
	return append([]float64(nil), l.policy.self[offset]...)
}

// FeedbackWeights returns a copy of the partner feedback weights of the node
// at offset, or nil if the layer is not coupled.
func (l *Layer) FeedbackWeights(offset int) []float64 {
	if l.policy.feedback == nil {
		return nil
	}
	return append([]float64(nil), l.policy.feedback[offset]...)
}

// MaxDiameter returns the share-weighted sum of the diameter estimates that
// normalizes the step error.
func (l *Layer) MaxDiameter() float64 { return l.policy.maxDiameter() }

// Clone returns an independent copy that still reads the excitations of the
// original partner.
func (l *Layer) Clone() (*Layer, error) {
	m, err := l.Map.Clone()
	if err != nil {
		return nil, err
	}
	return &Layer{Map: m, policy: m.Policy().(*layerPolicy)}, nil
}
