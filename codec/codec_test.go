package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type header struct {
	Kind       string             `json:"kind"`
	OutputDims []int              `json:"output_dims"`
	Params     map[string]float64 `json:"params,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreInterchangeable(t *testing.T) {
	in := header{
		Kind:       "plsom2",
		OutputDims: []int{5, 5},
		Params:     map[string]float64{"neighborhood_range": 6},
	}

	for _, tc := range []struct{ enc, dec Codec }{
		{JSON{}, GoJSON{}},
		{GoJSON{}, JSON{}},
	} {
		data, err := tc.enc.Marshal(in)
		require.NoError(t, err)

		var out header
		require.NoError(t, tc.dec.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	}
}

func TestMustMarshal_DefaultCodec(t *testing.T) {
	assert.JSONEq(t, `{"kind":"som","output_dims":[2]}`, string(MustMarshal(nil, header{Kind: "som", OutputDims: []int{2}})))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
