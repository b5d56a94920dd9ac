package recursive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/testutil"
)

func TestSession_Isolation(t *testing.T) {
	m, err := NewStateless(0.5, 2, []int{3, 3}, 4, seed(1), WithRecovery(false))
	require.NoError(t, err)
	for _, x := range testutil.NewRNG(1).UniformVectors(200, 2) {
		require.NoError(t, m.Train(x))
	}
	require.NoError(t, m.SetExcitations(nil))

	ref, err := m.Clone()
	require.NoError(t, err)

	seqA := testutil.NewRNG(2).UniformVectors(20, 2)
	seqB := testutil.NewRNG(3).UniformVectors(20, 2)

	a, b := m.NewSession(), m.NewSession()
	for i := range seqA {
		wa, err := a.Classify(seqA[i])
		require.NoError(t, err)
		_, err = b.Classify(seqB[i])
		require.NoError(t, err)

		// a sequence run alone on an identical map
		wr, err := ref.Classify(seqA[i])
		require.NoError(t, err)
		require.Equal(t, wr, wa)
		require.Equal(t, ref.Excitations(), a.Excitations())
	}
	assert.NotEqual(t, a.Excitations(), b.Excitations())
	assert.Nil(t, m.Excitations())
}

func TestSession_TrainSharesWeights(t *testing.T) {
	m, err := NewStateless(0.5, 2, []int{2, 2}, 3, seed(1))
	require.NoError(t, err)
	before := m.StateVector()[:m.Len()*2]

	s := m.NewSession()
	assert.Nil(t, s.Excitations())
	require.NoError(t, s.Train([]float64{0.9, 0.9}))
	assert.NotEqual(t, before, m.StateVector()[:m.Len()*2])
	assert.Len(t, s.Excitations(), 4)
	assert.Nil(t, m.Excitations())

	s.Reset()
	assert.Nil(t, s.Excitations())
}

func TestSession_ErrorKeepsExcitations(t *testing.T) {
	m, err := NewStateless(0.5, 2, []int{2, 2}, 3, seed(1))
	require.NoError(t, err)
	s := m.NewSession()
	require.NoError(t, s.Train([]float64{0.5, 0.5}))
	exc := s.Excitations()

	var dimErr *som.ErrDimensionMismatch
	require.ErrorAs(t, s.Train([]float64{1}), &dimErr)
	assert.Equal(t, exc, s.Excitations())
	assert.ErrorAs(t, s.SetExcitations([]float64{1, 2}), &dimErr)
}

func TestSession_SetExcitations(t *testing.T) {
	m, err := NewStateless(0.5, 2, []int{2, 2}, 3, seed(1))
	require.NoError(t, err)
	s := m.NewSession()

	exc := []float64{1, 0, 0, 0}
	require.NoError(t, s.SetExcitations(exc))
	exc[0] = 7
	assert.Equal(t, []float64{1, 0, 0, 0}, s.Excitations())

	require.NoError(t, s.SetExcitations(nil))
	assert.Nil(t, s.Excitations())
}
