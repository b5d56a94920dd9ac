package som

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/neighborhood"
	"github.com/hupe1980/plsom/tensor"
	"github.com/hupe1980/plsom/testutil"
)

type constPolicy struct {
	eps, size float64
}

func (p *constPolicy) Kind() string { return "const" }

func (p *constPolicy) Rate(*Map) (float64, float64) { return p.eps, p.size }

func (p *constPolicy) ClonePolicy(*Map) Policy {
	c := *p
	return &c
}

type recordingObserver struct {
	mu         sync.Mutex
	classifies int
	trains     int
	guards     map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{guards: make(map[string]int)}
}

func (r *recordingObserver) OnClassify(time.Duration, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifies++
}

func (r *recordingObserver) OnTrain(time.Duration, float64, float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trains++
}

func (r *recordingObserver) OnGuard(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[name]++
}

func newConstMap(t *testing.T, dims []int, eps, size float64, opts ...Option) *Map {
	t.Helper()
	m, err := NewMap(2, dims, &constPolicy{eps: eps, size: size}, append([]Option{WithSeed(42)}, opts...)...)
	require.NoError(t, err)
	return m
}

func zeroWeights(t *testing.T, m *Map) {
	t.Helper()
	for off := range m.Len() {
		require.NoError(t, m.SetWeights(make([]float64, m.InputDimension()), m.Coord(off)...))
	}
}

func TestNewMap_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		inputDim int
		dims     []int
		policy   Policy
	}{
		{"zero input", 0, []int{2}, &constPolicy{}},
		{"no dimensions", 2, nil, &constPolicy{}},
		{"zero dimension", 2, []int{3, 0}, &constPolicy{}},
		{"nil policy", 2, []int{2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMap(tt.inputDim, tt.dims, tt.policy)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewMap_InitialWeights(t *testing.T) {
	m := newConstMap(t, []int{4, 4}, 0, 0)
	for off := range m.Len() {
		assert.True(t, testutil.InRange(m.NodeWeights(off), -0.1, 0.1))
	}
	assert.Equal(t, []int{4, 4}, m.OutputDimensions())
	assert.Equal(t, 2, m.InputDimension())
	assert.Equal(t, 16, m.Len())
}

func TestNewMap_SeedIsDeterministic(t *testing.T) {
	a := newConstMap(t, []int{3, 3}, 0, 0)
	b := newConstMap(t, []int{3, 3}, 0, 0)
	assert.Equal(t, a.StateVector(), b.StateVector())
	assert.Equal(t, int64(42), a.Config().Seed)
}

func TestMap_ClassifyFirstMinimumWins(t *testing.T) {
	m := newConstMap(t, []int{2, 2}, 0, 0)
	zeroWeights(t, m)

	w, err := m.Classify([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, w)
	assert.InDelta(t, math.Sqrt2, m.LastError(), 1e-12)
}

func TestMap_ClassifyClosestNode(t *testing.T) {
	m := newConstMap(t, []int{2, 2}, 0, 0)
	zeroWeights(t, m)
	require.NoError(t, m.SetWeights([]float64{1, 1}, 1, 0))

	w, err := m.Classify([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, w)
	assert.Equal(t, 2, m.WinnerOffset())
	assert.Equal(t, 0.0, m.LastError())
}

func TestMap_InputValidation(t *testing.T) {
	m := newConstMap(t, []int{2}, 0, 0)

	_, err := m.Classify([]float64{1})
	var dm *ErrDimensionMismatch
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)

	assert.ErrorIs(t, m.Train(nil), ErrNilInput)
	assert.Error(t, m.SetWeights([]float64{1, 2, 3}, 0))

	_, err = m.Weights(5)
	var oob *tensor.ErrOutOfBounds
	assert.True(t, errors.As(err, &oob))
}

func TestMap_GaussianUpdate(t *testing.T) {
	m := newConstMap(t, []int{3}, 0.5, 1)
	zeroWeights(t, m)

	require.NoError(t, m.Train([]float64{1, 1}))

	want := []float64{0.5, 0.5 * math.Exp(-1), 0.5 * math.Exp(-4)}
	for off, v := range want {
		assert.InDelta(t, v, m.NodeWeights(off)[0], 1e-12)
		assert.InDelta(t, v, m.NodeWeights(off)[1], 1e-12)
	}
	assert.Equal(t, 0.5, m.Epsilon())
	assert.Equal(t, 1.0, m.NeighborhoodSize())
}

func TestMap_BinaryUpdate(t *testing.T) {
	m := newConstMap(t, []int{3}, 1, 1, WithNeighborhood(neighborhood.Binary{}))
	zeroWeights(t, m)

	require.NoError(t, m.Train([]float64{1, 1}))

	assert.Equal(t, []float64{1, 1}, m.NodeWeights(0))
	assert.Equal(t, []float64{1, 1}, m.NodeWeights(1))
	assert.Equal(t, []float64{0, 0}, m.NodeWeights(2))
}

func TestMap_ZeroNeighborhoodOnlyMovesWinner(t *testing.T) {
	m := newConstMap(t, []int{2, 2}, 0.5, 0)
	zeroWeights(t, m)
	require.NoError(t, m.SetWeights([]float64{0.5, 0.5}, 1, 1))

	require.NoError(t, m.Train([]float64{1, 1}))

	assert.Equal(t, []float64{0.75, 0.75}, m.NodeWeights(3))
	for off := range 3 {
		assert.Equal(t, []float64{0, 0}, m.NodeWeights(off))
	}
}

func TestMap_WeightsAreCopies(t *testing.T) {
	m := newConstMap(t, []int{2}, 0, 0)
	w, err := m.Weights(0)
	require.NoError(t, err)
	w[0] = 100
	assert.NotEqual(t, 100.0, m.NodeWeights(0)[0])
}

func TestMap_GuardsNonFiniteRate(t *testing.T) {
	obs := newRecordingObserver()
	m := newConstMap(t, []int{2}, math.NaN(), math.Inf(1), WithMetricsObserver(obs))
	before := m.StateVector()

	require.NoError(t, m.Train([]float64{1, 1}))

	assert.Equal(t, 0.0, m.Epsilon())
	assert.Equal(t, 0.0, m.NeighborhoodSize())
	assert.Equal(t, before, m.StateVector())
	assert.Equal(t, 1, obs.guards["epsilon"])
	assert.Equal(t, 1, obs.guards["neighborhood_size"])
	assert.Equal(t, 1, obs.trains)
}

func TestMap_ObserverCounts(t *testing.T) {
	obs := newRecordingObserver()
	m := newConstMap(t, []int{2}, 0.1, 1, WithMetricsObserver(obs))
	for range 3 {
		_, err := m.Classify([]float64{0, 0})
		require.NoError(t, err)
	}
	require.NoError(t, m.Train([]float64{0, 0}))
	assert.Equal(t, 3, obs.classifies)
	assert.Equal(t, 1, obs.trains)
}

func TestMap_ParallelMatchesSequential(t *testing.T) {
	data := testutil.NewRNG(7).UniformVectors(500, 2)

	seq := newConstMap(t, []int{12, 12}, 0.3, 3)
	par := newConstMap(t, []int{12, 12}, 0.3, 3, WithParallelism(4))

	for _, x := range data {
		require.NoError(t, seq.Train(x))
		require.NoError(t, par.Train(x))
		require.Equal(t, seq.WinnerOffset(), par.WinnerOffset())
	}
	assert.Equal(t, seq.StateVector(), par.StateVector())
}

func TestMap_StateVectorRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(3)
	a := newConstMap(t, []int{3, 3}, 0.2, 1)
	for _, x := range rng.UniformVectors(50, 2) {
		require.NoError(t, a.Train(x))
	}

	b := newConstMap(t, []int{3, 3}, 0.2, 1, WithSeed(99))
	require.NoError(t, b.RestoreState(a.StateVector()))
	assert.Equal(t, a.StateVector(), b.StateVector())

	for _, x := range rng.UniformVectors(50, 2) {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
		require.Equal(t, a.Winner(), b.Winner())
	}
	assert.Equal(t, a.StateVector(), b.StateVector())
}

func TestMap_RestoreStateRejectsMalformed(t *testing.T) {
	m := newConstMap(t, []int{2}, 0, 0)
	state := m.StateVector()

	assert.ErrorIs(t, m.RestoreState(state[:3]), ErrInvalidState)
	assert.ErrorIs(t, m.RestoreState(append(state, 1)), ErrInvalidState)
	assert.Equal(t, state, m.StateVector())
}

func TestMap_Clone(t *testing.T) {
	m := newConstMap(t, []int{3}, 0.5, 1)
	c, err := m.Clone()
	require.NoError(t, err)
	assert.Equal(t, m.StateVector(), c.StateVector())

	require.NoError(t, c.Train([]float64{1, 1}))
	assert.NotEqual(t, m.StateVector(), c.StateVector())
}

func TestMap_ConfigAndSetters(t *testing.T) {
	m := newConstMap(t, []int{2, 3}, 0, 0)
	cfg := m.Config()
	assert.Equal(t, "const", cfg.Kind)
	assert.Equal(t, []int{2, 3}, cfg.OutputDims)

	assert.ErrorIs(t, m.SetInputMetric(nil), ErrInvalidConfiguration)
	assert.ErrorIs(t, m.SetOutputMetric(nil), ErrInvalidConfiguration)
	assert.ErrorIs(t, m.SetNeighborhood(nil), ErrInvalidConfiguration)
	require.NoError(t, m.SetNeighborhood(neighborhood.Binary{}))
	assert.Equal(t, neighborhood.KindBinary, m.Config().Neighborhood)
}
