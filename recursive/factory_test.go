package recursive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/testutil"
)

func TestNewFromConfig_RoundTrip(t *testing.T) {
	build := map[string]func() (som.Model, error){
		KindPLSOM: func() (som.Model, error) {
			return NewPLSOM(0.4, 2, []int{3, 3}, 4, seed(1), WithRecoveryScaling(10))
		},
		KindPLSOM2: func() (som.Model, error) {
			return NewPLSOM2(0.6, 2, []int{3, 3}, 4, seed(1), WithSoftmax(), WithLearningScale(0.5))
		},
		KindStateless: func() (som.Model, error) {
			return NewStateless(0.5, 2, []int{3, 3}, 4, seed(1), WithRecovery(false))
		},
		KindIEStateless: func() (som.Model, error) {
			return NewIEStateless(0.5, 2, []int{3, 3}, 4, seed(1), WithImportanceScaling(0.01))
		},
	}
	require.Len(t, build, len(Kinds()))

	data := testutil.NewRNG(10).UniformVectors(80, 2)
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			a, err := build[kind]()
			require.NoError(t, err)
			for _, x := range data[:40] {
				require.NoError(t, a.Train(x))
			}

			b, err := NewFromConfig(a.Config())
			require.NoError(t, err)
			assert.Equal(t, kind, b.Kind())
			assert.Equal(t, a.Config(), b.Config())
			require.NoError(t, b.RestoreState(a.StateVector()))

			for _, x := range data[40:] {
				require.NoError(t, a.Train(x))
				require.NoError(t, b.Train(x))
			}
			assert.Equal(t, a.StateVector(), b.StateVector())
		})
	}
}

func TestNewFromConfig_UnknownKind(t *testing.T) {
	_, err := NewFromConfig(som.Config{Kind: KindLayer, InputDim: 2, OutputDims: []int{2}})
	assert.ErrorIs(t, err, som.ErrInvalidConfiguration)
}
