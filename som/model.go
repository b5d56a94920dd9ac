package som

import (
	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/neighborhood"
)

// Model is the contract external collaborators (persistence, rendering,
// labelling) use to drive and inspect a map.
type Model interface {
	// Classify returns the lattice coordinate of the winning node.
	Classify(input []float64) ([]int, error)
	// Train classifies input and adapts the weights.
	Train(input []float64) error
	Weights(coord ...int) ([]float64, error)
	SetWeights(w []float64, coord ...int) error
	// StateVector returns node weights followed by variant state. Together
	// with Config it reproduces identical future behaviour.
	StateVector() []float64
	RestoreState(state []float64) error
	OutputDimensions() []int
	InputDimension() int
	// Kind is the variant discriminator recorded in snapshots.
	Kind() string
	Config() Config
}

// Config records the constructor parameters of a map.
type Config struct {
	Kind         string             `json:"kind"`
	InputDim     int                `json:"input_dim"`
	OutputDims   []int              `json:"output_dims"`
	InputMetric  distance.Kind      `json:"input_metric"`
	OutputMetric distance.Kind      `json:"output_metric"`
	Neighborhood neighborhood.Kind  `json:"neighborhood"`
	Activation   Activation         `json:"activation"`
	Seed         int64              `json:"seed"`
	Params       map[string]float64 `json:"params,omitempty"`
}

// Param returns the named parameter or def if it is not set.
func (c Config) Param(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	return def
}

var _ Model = (*Map)(nil)
