package recursive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/testutil"
)

func newCoupledLayers(t *testing.T, s int64) (*Layer, *Layer) {
	t.Helper()
	a, err := NewLayer(0.5, 2, []int{3, 3}, 4, seed(s))
	require.NoError(t, err)
	b, err := NewLayer(0.5, 2, []int{2, 2}, 3, seed(s+1))
	require.NoError(t, err)
	require.NoError(t, Couple(a, b))
	return a, b
}

func TestLayer_Defaults(t *testing.T) {
	l, err := NewLayer(0.5, 2, []int{3, 3}, 4, seed(1))
	require.NoError(t, err)

	assert.Equal(t, KindLayer, l.Kind())
	assert.Equal(t, distance.KindSquaredEuclidean, l.Config().InputMetric)
	assert.False(t, l.Coupled())
	assert.Nil(t, l.FeedbackWeights(0))
	for off := range l.Len() {
		assert.True(t, testutil.InRange(l.NodeWeights(off), -0.1, 0.1))
		assert.True(t, testutil.InRange(l.SelfWeights(off), -0.1, 0.1))
	}
}

func TestCouple(t *testing.T) {
	a, b := newCoupledLayers(t, 1)

	assert.True(t, a.Coupled())
	assert.True(t, b.Coupled())
	assert.Len(t, a.FeedbackWeights(0), b.Len())
	assert.Len(t, b.FeedbackWeights(0), a.Len())

	c, err := NewLayer(0.5, 2, []int{2}, 1, seed(3))
	require.NoError(t, err)
	assert.ErrorIs(t, Couple(a, c), ErrAlreadyCoupled)
	assert.ErrorIs(t, Couple(c, c), ErrAlreadyCoupled)
	assert.False(t, c.Coupled())
}

func TestLayer_SoftmaxExcitations(t *testing.T) {
	a, b := newCoupledLayers(t, 2)
	x := []float64{0.3, 0.6}
	require.NoError(t, a.Train(x))
	require.NoError(t, b.Train(x))

	for _, l := range []*Layer{a, b} {
		var sum float64
		for _, v := range l.Excitations() {
			assert.Positive(t, v)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestLayer_ClassifyKeepsExcitations(t *testing.T) {
	a, b := newCoupledLayers(t, 6)
	require.NoError(t, a.Train([]float64{0.1, 0.9}))
	require.NoError(t, b.Train([]float64{0.1, 0.9}))
	ea, eb := a.Excitations(), b.Excitations()

	_, err := a.Classify([]float64{0.9, 0.1})
	require.NoError(t, err)
	assert.Equal(t, ea, a.Excitations())
	assert.Equal(t, eb, b.Excitations())

	require.NoError(t, a.Train([]float64{0.9, 0.1}))
	assert.NotEqual(t, ea, a.Excitations())
}

func TestLayer_CoupledTrainingStaysFinite(t *testing.T) {
	a, b := newCoupledLayers(t, 3)
	for _, x := range testutil.NewRNG(3).UniformVectors(1000, 2) {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(a.Excitations()[:2]))
		require.GreaterOrEqual(t, a.Epsilon(), 0.0)
		require.LessOrEqual(t, a.Epsilon(), 1.0)
	}
	for _, l := range []*Layer{a, b} {
		for _, v := range l.StateVector() {
			require.False(t, math.IsNaN(v))
			require.False(t, math.IsInf(v, 0))
		}
	}
	assert.Positive(t, a.MaxDiameter())
}

func TestLayer_PredictKeepsDirectWeights(t *testing.T) {
	a, b := newCoupledLayers(t, 4)
	for _, x := range testutil.NewRNG(4).UniformVectors(50, 2) {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
	}
	before := a.StateVector()[:a.Len()*2]

	a.SetPredict(true)
	assert.True(t, a.Predict())
	require.NoError(t, a.Train(nil))
	_, err := a.Classify(nil)
	require.NoError(t, err)
	assert.Equal(t, before, a.StateVector()[:a.Len()*2])

	a.SetPredict(false)
	assert.ErrorIs(t, a.Train(nil), som.ErrNilInput)
}

func TestLayer_StateRoundTrip(t *testing.T) {
	data := testutil.NewRNG(5).UniformVectors(100, 2)
	a, b := newCoupledLayers(t, 1)
	for _, x := range data[:50] {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
	}

	a2, b2 := newCoupledLayers(t, 7)
	require.NoError(t, a2.RestoreState(a.StateVector()))
	require.NoError(t, b2.RestoreState(b.StateVector()))

	for _, x := range data[50:] {
		require.NoError(t, a.Train(x))
		require.NoError(t, b.Train(x))
		require.NoError(t, a2.Train(x))
		require.NoError(t, b2.Train(x))
		require.Equal(t, a.Winner(), a2.Winner())
		require.Equal(t, b.Winner(), b2.Winner())
	}
	assert.Equal(t, a.StateVector(), a2.StateVector())
	assert.Equal(t, b.StateVector(), b2.StateVector())
}

func TestLayer_RestoreRejectsCouplingMismatch(t *testing.T) {
	a, _ := newCoupledLayers(t, 1)
	single, err := NewLayer(0.5, 2, []int{3, 3}, 4, seed(1))
	require.NoError(t, err)

	assert.ErrorIs(t, single.RestoreState(a.StateVector()), som.ErrInvalidState)
	assert.ErrorIs(t, a.RestoreState(single.StateVector()), som.ErrInvalidState)
}
