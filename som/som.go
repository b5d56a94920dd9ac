package som

import (
	"math"
)

// Kind discriminators of the variants in this package.
const (
	KindSOM        = "som"
	KindPLSOM      = "plsom"
	KindPLSOM2     = "plsom2"
	KindBDH        = "bdh-som"
	KindConscience = "conscience-som"
	KindIEPLSOM2   = "ie-plsom2"
)

// Default trainer decay rates.
const (
	DefaultLearningRateDecay = 0.997
	DefaultNeighborhoodDecay = 0.998
)

// fixedRate holds the externally supplied learning rate and neighbourhood
// size shared by SOM, BDH and Conscience maps, plus the trainer decay.
type fixedRate struct {
	learningRate float64
	nhSize       float64
	lrDecay      float64
	nhDecay      float64
	iterations   int
}

func newFixedRate(learningRate, nhSize float64) fixedRate {
	return fixedRate{
		learningRate: learningRate,
		nhSize:       nhSize,
		lrDecay:      DefaultLearningRateDecay,
		nhDecay:      DefaultNeighborhoodDecay,
	}
}

func (f *fixedRate) params() map[string]float64 {
	return map[string]float64{
		"learning_rate":       f.learningRate,
		"neighborhood_size":   f.nhSize,
		"learning_rate_decay": f.lrDecay,
		"neighborhood_decay":  f.nhDecay,
	}
}

func (f *fixedRate) appendState(dst []float64) []float64 {
	return append(dst, f.learningRate, f.nhSize, float64(f.iterations))
}

func (f *fixedRate) restoreState(src []float64) ([]float64, error) {
	if len(src) < 3 {
		return nil, invalidState("fixed rate state truncated")
	}
	f.learningRate, f.nhSize, f.iterations = src[0], src[1], int(src[2])
	return src[3:], nil
}

type somPolicy struct {
	fixedRate
}

func (p *somPolicy) Kind() string { return KindSOM }

func (p *somPolicy) Rate(*Map) (float64, float64) { return p.learningRate, p.nhSize }

func (p *somPolicy) Params() map[string]float64 { return p.params() }

func (p *somPolicy) AppendState(dst []float64) []float64 { return p.appendState(dst) }

func (p *somPolicy) RestoreState(src []float64) ([]float64, error) { return p.restoreState(src) }

func (p *somPolicy) ClonePolicy(*Map) Policy {
	c := *p
	return &c
}

// Trainer decays the learning rate and neighbourhood size of a fixed-rate
// map before every training step: rate *= decay.
type Trainer struct {
	rate *fixedRate
}

// SetLearningRateDecay sets the per-step learning rate factor. Default: 0.997.
func (t *Trainer) SetLearningRateDecay(d float64) { t.rate.lrDecay = d }

// SetNeighborhoodDecay sets the per-step neighbourhood size factor. Default: 0.998.
func (t *Trainer) SetNeighborhoodDecay(d float64) { t.rate.nhDecay = d }

// Iterations returns the number of training steps run through the trainer.
func (t *Trainer) Iterations() int { return t.rate.iterations }

func (t *Trainer) step() {
	t.rate.iterations++
	t.rate.learningRate *= t.rate.lrDecay
	t.rate.nhSize *= t.rate.nhDecay
}

// fixedRateMap carries the Train/TrainWith behaviour shared by the
// fixed-rate variants.
type fixedRateMap struct {
	*Map
	rate    *fixedRate
	trainer *Trainer
}

func newFixedRateMap(m *Map, rate *fixedRate) fixedRateMap {
	return fixedRateMap{Map: m, rate: rate, trainer: &Trainer{rate: rate}}
}

func (f *fixedRateMap) cloneOnto(m *Map, rate *fixedRate) fixedRateMap {
	res := fixedRateMap{Map: m, rate: rate}
	if f.trainer != nil {
		res.trainer = &Trainer{rate: rate}
	}
	return res
}

// Train decays the rate through the trainer, if any, and runs one step.
func (f *fixedRateMap) Train(input []float64) error {
	if err := f.CheckInput(input); err != nil {
		return err
	}
	if f.trainer != nil {
		f.trainer.step()
	}
	return f.Map.Train(input)
}

// TrainWith sets the learning rate and neighbourhood size and runs one step.
func (f *fixedRateMap) TrainWith(input []float64, learningRate, nhSize float64) error {
	f.rate.learningRate = learningRate
	f.rate.nhSize = nhSize
	return f.Map.Train(input)
}

// Trainer returns the attached trainer, or nil.
func (f *fixedRateMap) Trainer() *Trainer { return f.trainer }

// DisableTrainer detaches the trainer; Train then uses the current rate unchanged.
func (f *fixedRateMap) DisableTrainer() { f.trainer = nil }

// LearningRate returns the current learning rate.
func (f *fixedRateMap) LearningRate() float64 { return f.rate.learningRate }

// SetLearningRate sets the learning rate.
func (f *fixedRateMap) SetLearningRate(lr float64) { f.rate.learningRate = lr }

// NeighborhoodSize returns the current neighbourhood size.
func (f *fixedRateMap) NeighborhoodSize() float64 { return f.rate.nhSize }

// SetNeighborhoodSize sets the neighbourhood size.
func (f *fixedRateMap) SetNeighborhoodSize(n float64) { f.rate.nhSize = n }

// SOM is the classic fixed-rate self-organizing map.
//
// Train decays the rate through the attached Trainer and then trains with the
// decayed values. TrainWith trains with explicit values.
type SOM struct {
	fixedRateMap
}

// NewSOM creates a fixed-rate map with the given initial learning rate and
// neighbourhood size.
func NewSOM(inputDim int, outputDims []int, learningRate, nhSize float64, opts ...Option) (*SOM, error) {
	p := &somPolicy{fixedRate: newFixedRate(learningRate, nhSize)}
	m, err := NewMap(inputDim, outputDims, p, opts...)
	if err != nil {
		return nil, err
	}
	return &SOM{newFixedRateMap(m, &p.fixedRate)}, nil
}

// Clone returns an independent copy, trainer settings included.
func (s *SOM) Clone() (*SOM, error) {
	m, err := s.Map.Clone()
	if err != nil {
		return nil, err
	}
	p := m.Policy().(*somPolicy)
	return &SOM{s.cloneOnto(m, &p.fixedRate)}, nil
}

// lnScale maps ε ∈ [0,1] onto [0,1] via ln(1 + ε(e−1)).
func lnScale(epsilon float64) float64 {
	return math.Log(1 + epsilon*(math.E-1))
}

// NeighborhoodSize returns the PLSOM neighbourhood size r·ln(1 + ε(e−1)).
func NeighborhoodSize(epsilon, r float64) float64 {
	return r * lnScale(epsilon)
}
