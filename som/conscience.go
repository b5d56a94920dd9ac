package som

// Conscience constants from DeSieno's formulation.
const (
	ConscienceB = 0.0001
	ConscienceC = 10.0
)

type consciencePolicy struct {
	fixedRate
	prob []float64
}

func (p *consciencePolicy) Kind() string { return KindConscience }

func (p *consciencePolicy) Bind(m *Map) error {
	p.prob = make([]float64, m.Len())
	for i := range p.prob {
		p.prob[i] = 1 / float64(len(p.prob))
	}
	return nil
}

// Criterion biases the distance against nodes that win more often than 1/n.
func (p *consciencePolicy) Criterion(m *Map, offset int, input []float64) float64 {
	d := m.InputMetric().Distance(m.NodeWeights(offset), input)
	return d - ConscienceC*(1/float64(len(p.prob))-p.prob[offset])
}

// ObserveWinner updates the win probabilities once per search.
func (p *consciencePolicy) ObserveWinner(_ *Map, winner int, _ []float64, _ bool) {
	for i, old := range p.prob {
		y := 0.0
		if i == winner {
			y = 1
		}
		p.prob[i] = old + ConscienceB*(y-old)
	}
}

func (p *consciencePolicy) Rate(*Map) (float64, float64) { return p.learningRate, p.nhSize }

func (p *consciencePolicy) Params() map[string]float64 { return p.params() }

func (p *consciencePolicy) AppendState(dst []float64) []float64 {
	dst = p.appendState(dst)
	return append(dst, p.prob...)
}

func (p *consciencePolicy) RestoreState(src []float64) ([]float64, error) {
	rest, err := p.restoreState(src)
	if err != nil {
		return nil, err
	}
	if len(rest) < len(p.prob) {
		return nil, invalidState("win probabilities truncated")
	}
	copy(p.prob, rest)
	return rest[len(p.prob):], nil
}

func (p *consciencePolicy) ClonePolicy(*Map) Policy {
	c := *p
	c.prob = append([]float64(nil), p.prob...)
	return &c
}

// Conscience is the frequency-balancing SOM. Each node tracks a smoothed win
// probability p and the winner search minimizes dist − C(1/n − p).
type Conscience struct {
	fixedRateMap
	policy *consciencePolicy
}

// NewConscience creates a conscience map with the given initial learning rate
// and neighbourhood size.
func NewConscience(inputDim int, outputDims []int, learningRate, nhSize float64, opts ...Option) (*Conscience, error) {
	p := &consciencePolicy{fixedRate: newFixedRate(learningRate, nhSize)}
	m, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &Conscience{fixedRateMap: newFixedRateMap(m, &p.fixedRate), policy: p}, nil
}

// WinProbability returns the smoothed win probability of the node at offset.
func (c *Conscience) WinProbability(offset int) float64 { return c.policy.prob[offset] }

// Clone returns an independent copy.
func (c *Conscience) Clone() (*Conscience, error) {
	m, err := c.Map.Clone()
	if err != nil {
		return nil, err
	}
	p := m.Policy().(*consciencePolicy)
	return &Conscience{fixedRateMap: c.cloneOnto(m, &p.fixedRate), policy: p}, nil
}
