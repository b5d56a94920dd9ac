package som

import "math"

// BDHEpsilonMax caps the BDH learning rate.
const BDHEpsilonMax = 0.9

type bdhPolicy struct {
	fixedRate
	epsilon0 float64
	d        float64
	m        float64
	counters []float64
}

func (p *bdhPolicy) Kind() string { return KindBDH }

func (p *bdhPolicy) Bind(m *Map) error {
	p.counters = make([]float64, m.Len())
	return nil
}

// Rate advances every time-since-win counter, resets the winner and scales
// ε0 by how long the winner has been idle and how closely it matches.
func (p *bdhPolicy) Rate(m *Map) (float64, float64) {
	for i := range p.counters {
		p.counters[i]++
	}
	w := m.WinnerOffset()
	timeScale := 1 / p.counters[w]
	p.counters[w] = 0

	dist := m.InputMetric().Distance(m.Input(), m.NodeWeights(w))
	diff := 1 / math.Pow(dist, p.d)
	eps := math.Min(p.epsilon0*math.Pow(timeScale*diff, p.m), BDHEpsilonMax)
	if math.IsNaN(eps) {
		m.Guard("bdh_nan")
		eps = 0
	}
	return eps, p.nhSize
}

func (p *bdhPolicy) Params() map[string]float64 {
	params := p.params()
	params["epsilon0"] = p.epsilon0
	params["d"] = p.d
	params["m"] = p.m
	return params
}

func (p *bdhPolicy) AppendState(dst []float64) []float64 {
	dst = p.appendState(dst)
	return append(dst, p.counters...)
}

func (p *bdhPolicy) RestoreState(src []float64) ([]float64, error) {
	rest, err := p.restoreState(src)
	if err != nil {
		return nil, err
	}
	if len(rest) < len(p.counters) {
		return nil, invalidState("bdh counters truncated")
	}
	copy(p.counters, rest)
	return rest[len(p.counters):], nil
}

func (p *bdhPolicy) ClonePolicy(*Map) Policy {
	c := *p
	c.counters = append([]float64(nil), p.counters...)
	return &c
}

// BDH is the time-decay SOM: ε = ε0 · (1/t · 1/dist^d)^m, capped at 0.9,
// where t is the number of steps since the winner last won. The neighbourhood
// size is the externally supplied fixed-rate value.
type BDH struct {
	fixedRateMap
	policy *bdhPolicy
}

// NewBDH creates a BDH map. nhSize is the initial neighbourhood size.
func NewBDH(inputDim int, outputDims []int, epsilon0, d, m, nhSize float64, opts ...Option) (*BDH, error) {
	p := &bdhPolicy{fixedRate: newFixedRate(0, nhSize), epsilon0: epsilon0, d: d, m: m}
	mp, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &BDH{fixedRateMap: newFixedRateMap(mp, &p.fixedRate), policy: p}, nil
}

// TimeSinceWin returns the number of steps since the node at offset last won.
func (b *BDH) TimeSinceWin(offset int) int { return int(b.policy.counters[offset]) }

// Clone returns an independent copy.
func (b *BDH) Clone() (*BDH, error) {
	m, err := b.Map.Clone()
	if err != nil {
		return nil, err
	}
	p := m.Policy().(*bdhPolicy)
	return &BDH{fixedRateMap: b.cloneOnto(m, &p.fixedRate), policy: p}, nil
}
