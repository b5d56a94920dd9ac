package som

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/testutil"
)

func TestNeighborhoodSize(t *testing.T) {
	assert.Equal(t, 0.0, NeighborhoodSize(0, 6))
	assert.InDelta(t, 6.0, NeighborhoodSize(1, 6), 1e-12)

	prev := 0.0
	for eps := 0.05; eps <= 1; eps += 0.05 {
		n := NeighborhoodSize(eps, 6)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestPLSOM_FirstStepSetsRho(t *testing.T) {
	m, err := NewPLSOM(2, []int{1}, 4, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{0, 0}, 0))

	require.NoError(t, m.Train([]float64{3, 4}))
	assert.Equal(t, 5.0, m.Rho())
	assert.Equal(t, 1.0, m.Epsilon())
	assert.InDelta(t, 4.0, m.Map.NeighborhoodSize(), 1e-12)
	assert.Equal(t, []float64{3, 4}, m.NodeWeights(0))
}

func TestPLSOM_EpsilonRelativeToRho(t *testing.T) {
	m, err := NewPLSOM(1, []int{1}, 4, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{0}, 0))

	require.NoError(t, m.Train([]float64{4}))
	require.NoError(t, m.Train([]float64{5}))
	assert.Equal(t, 4.0, m.Rho())
	assert.Equal(t, 0.25, m.Epsilon())
	assert.InDelta(t, NeighborhoodSize(0.25, 4), m.Map.NeighborhoodSize(), 1e-12)
}

func TestPLSOM_LearningScale(t *testing.T) {
	m, err := NewPLSOM(1, []int{1}, 4, WithSeed(1))
	require.NoError(t, err)
	m.SetLearningScale(0.5)
	require.NoError(t, m.SetWeights([]float64{0}, 0))

	require.NoError(t, m.Train([]float64{2}))
	assert.Equal(t, 0.5, m.Epsilon())
	// the neighbourhood follows the unscaled ε
	assert.InDelta(t, 4.0, m.Map.NeighborhoodSize(), 1e-12)
	assert.Equal(t, []float64{1}, m.NodeWeights(0))
}

func TestPLSOM_ZeroErrorWithZeroRho(t *testing.T) {
	obs := newRecordingObserver()
	m, err := NewPLSOM(1, []int{1}, 4, WithSeed(1), WithMetricsObserver(obs))
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{1}, 0))

	require.NoError(t, m.Train([]float64{1}))
	assert.Equal(t, 0.0, m.Epsilon())
	assert.Equal(t, 1, obs.guards["plsom_zero_rho"])
	assert.False(t, math.IsNaN(m.NodeWeights(0)[0]))
}

func TestPLSOM2_EpsilonFromDiameter(t *testing.T) {
	m, err := NewPLSOM2(1, []int{1}, 4, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{0}, 0))

	// a single point has diameter 0: ε clamps to 1
	require.NoError(t, m.Train([]float64{2}))
	assert.Equal(t, 1.0, m.Epsilon())
	assert.Equal(t, 0.0, m.Diameter())

	_, err = m.Classify([]float64{-2})
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.Diameter())

	// inside the known span: the diameter stays 4
	require.NoError(t, m.Train([]float64{1}))
	assert.Equal(t, 4.0, m.Diameter())
	assert.Equal(t, 0.25, m.Epsilon())
}

func TestPLSOM2_ZeroError(t *testing.T) {
	m, err := NewPLSOM2(1, []int{1}, 4, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, m.SetWeights([]float64{1}, 0))

	require.NoError(t, m.Train([]float64{1}))
	assert.Equal(t, 0.0, m.Epsilon())
	assert.Equal(t, 0.0, m.Map.NeighborhoodSize())
}

func TestPLSOM2_ConvergesOnUniformData(t *testing.T) {
	rng := testutil.NewRNG(21)
	m, err := NewPLSOM2(2, []int{5, 5}, 6, WithSeed(21))
	require.NoError(t, err)

	for _, x := range rng.UniformVectors(5000, 2) {
		require.NoError(t, m.Train(x))
	}

	var qe float64
	test := rng.UniformVectors(500, 2)
	for _, x := range test {
		_, err := m.Classify(x)
		require.NoError(t, err)
		qe += m.LastError()
	}
	assert.Less(t, qe/float64(len(test)), 0.25)
	for off := range m.Len() {
		assert.True(t, testutil.InRange(m.NodeWeights(off), -0.1, 1.1))
	}
}

func TestPLSOM2_ActivationDoesNotChangeWinners(t *testing.T) {
	rng := testutil.NewRNG(8)
	a, err := NewPLSOM2(2, []int{5, 5}, 6, WithSeed(8))
	require.NoError(t, err)
	b, err := NewPLSOM2(2, []int{5, 5}, 6, WithSeed(8), WithActivation(ActivationNormalized))
	require.NoError(t, err)

	for range 20000 {
		x := []float64{rng.Float64(), rng.Float64()}
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
		require.Equal(t, a.Winner(), b.Winner())
	}
	assert.Len(t, b.Excitations(), 25)
	assert.Nil(t, a.Excitations())
}

func TestPLSOM2_StateRoundTrip(t *testing.T) {
	data := testutil.NewRNG(9).UniformVectors(200, 3)
	a, err := NewPLSOM2(3, []int{4, 4}, 5, WithSeed(1), WithActivation(ActivationSoftmax))
	require.NoError(t, err)
	for _, x := range data[:100] {
		require.NoError(t, a.Train(x))
	}

	b, err := NewPLSOM2(3, []int{4, 4}, 5, WithSeed(2), WithActivation(ActivationSoftmax))
	require.NoError(t, err)
	require.NoError(t, b.RestoreState(a.StateVector()))
	assert.Equal(t, a.Diameter(), b.Diameter())
	assert.Equal(t, a.Excitations(), b.Excitations())

	for _, x := range data[100:] {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
		require.Equal(t, a.Winner(), b.Winner())
	}
	assert.Equal(t, a.StateVector(), b.StateVector())
}

func TestPLSOM2_CloneIsIndependent(t *testing.T) {
	m, err := NewPLSOM2(2, []int{2, 2}, 3, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, m.Train([]float64{0, 0}))

	c, err := m.Clone()
	require.NoError(t, err)
	require.NoError(t, c.Train([]float64{5, 5}))
	assert.Equal(t, 0.0, m.Diameter())
	assert.InDelta(t, math.Sqrt(50), c.Diameter(), 1e-12)
}

func TestFuzzyXor(t *testing.T) {
	tests := []struct {
		x, y, want float64
	}{
		{0, 0, 0},
		{1, 1, 0},
		{0, 1, 1},
		{1, 0, 1},
		{0.5, 0.5, 0.5},
		{0.2, 0.9, 0.8},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, FuzzyXor(tt.x, tt.y), 1e-12)
	}
}

func TestIEPLSOM2_RequiresWeightedMetric(t *testing.T) {
	_, err := NewIEPLSOM2(2, []int{2}, 3, WithInputMetric(distance.Euclidean{}))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	m, err := NewIEPLSOM2(2, []int{2}, 3, WithSeed(1))
	require.NoError(t, err)
	assert.ErrorIs(t, m.SetInputMetric(distance.SquaredEuclidean{}), ErrInvalidConfiguration)
	assert.Equal(t, distance.KindWeightedEuclidean, m.Config().InputMetric)
}

func TestIEPLSOM2_TracksRange(t *testing.T) {
	m, err := NewIEPLSOM2(2, []int{2}, 3, WithSeed(1))
	require.NoError(t, err)

	_, err = m.Classify([]float64{1, -1})
	require.NoError(t, err)
	require.NoError(t, m.Train([]float64{-2, 4}))

	lo, hi := m.Range()
	assert.Equal(t, []float64{-2, -1}, lo)
	assert.Equal(t, []float64{1, 4}, hi)
}

func TestIEPLSOM2_ImportanceUpdate(t *testing.T) {
	m, err := NewIEPLSOM2(2, []int{1}, 3, WithSeed(1))
	require.NoError(t, err)
	for off := range m.Len() {
		assert.Equal(t, []float64{1, 1}, m.Importance(off))
	}

	require.NoError(t, m.SetWeights([]float64{0, 0}, 0))
	_, err = m.Classify([]float64{0, 0})
	require.NoError(t, err)

	// err = diameter = 1, so ε = 1, and h = 1 for the single node
	require.NoError(t, m.Train([]float64{1, 0}))
	assert.Equal(t, []float64{1, 0}, m.NodeWeights(0))

	// dimension 0: nd = 1, fuzzyXor(1, 1) = 0; dimension 1 has no range yet
	imp := m.Importance(0)
	assert.InDelta(t, 1-ImportanceIntegration, imp[0], 1e-12)
	assert.Equal(t, 1.0, imp[1])
}

func TestIEPLSOM2_StateRoundTrip(t *testing.T) {
	data := testutil.NewRNG(5).UniformVectors(120, 2)
	a, err := NewIEPLSOM2(2, []int{3, 3}, 4, WithSeed(1))
	require.NoError(t, err)
	for _, x := range data[:60] {
		require.NoError(t, a.Train(x))
	}

	b, err := NewIEPLSOM2(2, []int{3, 3}, 4, WithSeed(7))
	require.NoError(t, err)
	require.NoError(t, b.RestoreState(a.StateVector()))
	for _, x := range data[60:] {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
		require.Equal(t, a.Winner(), b.Winner())
	}
	assert.Equal(t, a.StateVector(), b.StateVector())
}

func TestPLSOM_RejectedRestoreLeavesMapUntouched(t *testing.T) {
	m, err := NewPLSOM(2, []int{3}, 1, WithSeed(1), WithActivation(ActivationNormalized))
	require.NoError(t, err)
	require.NoError(t, m.Train([]float64{0.3, 0.7}))
	before := m.StateVector()
	rho := m.Rho()

	// rho sits right after the 3x2 weights
	bad := append([]float64(nil), before...)
	bad[0] = 42
	bad[6] = 1234

	assert.ErrorIs(t, m.RestoreState(append(bad, 1)), ErrInvalidState)
	assert.ErrorIs(t, m.RestoreState(bad[:len(bad)-1]), ErrInvalidState)
	assert.Equal(t, before, m.StateVector())
	assert.Equal(t, rho, m.Rho())

	require.NoError(t, m.RestoreState(bad))
	assert.Equal(t, 1234.0, m.Rho())
	assert.Equal(t, 42.0, m.NodeWeights(0)[0])
}
