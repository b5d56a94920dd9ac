package stats

import (
	"errors"
	"math"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/tensor"
)

// ErrNoSamples is returned by measures evaluated on an empty sample set.
var ErrNoSamples = errors.New("no samples")

// Codebook is an immutable copy of a map's node weights.
type Codebook struct {
	nodes    *tensor.Tensor[[]float64]
	inputDim int
	metric   distance.Metric
}

// Option configures a Codebook.
type Option func(*Codebook)

// WithMetric sets the metric comparing samples with node weights.
// Default: Euclidean.
func WithMetric(m distance.Metric) Option {
	return func(c *Codebook) {
		if m != nil {
			c.metric = m
		}
	}
}

// NewCodebook copies the node weights of m.
func NewCodebook(m som.Model, opts ...Option) (*Codebook, error) {
	nodes, err := tensor.New[[]float64](m.OutputDimensions()...)
	if err != nil {
		return nil, err
	}
	var werr error
	nodes.Fill(func(offset int) []float64 {
		if werr != nil {
			return nil
		}
		w, err := m.Weights(nodes.Coord(offset)...)
		if err != nil {
			werr = err
			return nil
		}
		return tensor.CloneSlice(w)
	})
	if werr != nil {
		return nil, werr
	}

	c := &Codebook{nodes: nodes, inputDim: m.InputDimension(), metric: distance.Euclidean{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Len returns the number of nodes.
func (c *Codebook) Len() int { return c.nodes.Len() }

// Dimensions returns the lattice dimensions.
func (c *Codebook) Dimensions() []int { return c.nodes.Dimensions() }

// Coord returns the lattice coordinate of offset.
func (c *Codebook) Coord(offset int) []int { return c.nodes.Coord(offset) }

// BestMatches returns the offsets of the closest and second-closest nodes.
// Ties resolve to the lower offset; second is -1 on a single-node lattice.
func (c *Codebook) BestMatches(x []float64) (first, second int, dist float64, err error) {
	if len(x) != c.inputDim {
		return -1, -1, 0, &som.ErrDimensionMismatch{Expected: c.inputDim, Actual: len(x)}
	}
	first, second = -1, -1
	best, next := math.Inf(1), math.Inf(1)
	for off, w := range c.nodes.All() {
		d := c.metric.Distance(w, x)
		switch {
		case d < best:
			second, next = first, best
			first, best = off, d
		case d < next:
			second, next = off, d
		}
	}
	return first, second, best, nil
}

// QuantizationError returns the mean distance between each sample and the
// weights of its best matching node.
func (c *Codebook) QuantizationError(samples [][]float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum float64
	for _, x := range samples {
		_, _, d, err := c.BestMatches(x)
		if err != nil {
			return 0, err
		}
		sum += d
	}
	return sum / float64(len(samples)), nil
}

// TopographicError returns the fraction of samples whose best and
// second-best matching nodes are not lattice neighbours. Nodes are
// neighbours when their coordinates differ by at most one in every
// dimension.
func (c *Codebook) TopographicError(samples [][]float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if c.Len() < 2 {
		return 0, nil
	}
	var errs int
	for _, x := range samples {
		first, second, _, err := c.BestMatches(x)
		if err != nil {
			return 0, err
		}
		if !adjacent(c.nodes.Coord(first), c.nodes.Coord(second)) {
			errs++
		}
	}
	return float64(errs) / float64(len(samples)), nil
}

// HitMap records the best matching node of every sample.
func (c *Codebook) HitMap(samples [][]float64) (*HitMap, error) {
	h := NewHitMap(c.Len())
	for _, x := range samples {
		first, _, _, err := c.BestMatches(x)
		if err != nil {
			return nil, err
		}
		h.Record(first)
	}
	return h, nil
}

func adjacent(a, b []int) bool {
	for i := range a {
		if d := a[i] - b[i]; d > 1 || d < -1 {
			return false
		}
	}
	return true
}
