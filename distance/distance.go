package distance

import (
	"fmt"
	"math"
)

// Kind identifies a metric in persisted configurations.
type Kind int

const (
	KindEuclidean Kind = iota
	KindSquaredEuclidean
	KindWeightedEuclidean
)

func (k Kind) String() string {
	switch k {
	case KindEuclidean:
		return "Euclidean"
	case KindSquaredEuclidean:
		return "SquaredEuclidean"
	case KindWeightedEuclidean:
		return "WeightedEuclidean"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Metric is a symmetric, non-negative distance over equal-length vectors.
// Implementations are stateless and safe for concurrent use.
type Metric interface {
	// Distance compares two real-valued vectors.
	Distance(a, b []float64) float64
	// Lattice compares two integer lattice coordinates.
	Lattice(a, b []int) float64
	Kind() Kind
}

// Weighted is a Metric that also accepts per-dimension weights.
type Weighted interface {
	Metric
	WeightedDistance(a, b, w []float64) float64
}

// ByKind returns the metric for k.
func ByKind(k Kind) (Metric, error) {
	switch k {
	case KindEuclidean:
		return Euclidean{}, nil
	case KindSquaredEuclidean:
		return SquaredEuclidean{}, nil
	case KindWeightedEuclidean:
		return WeightedEuclidean{}, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", k)
	}
}

// SquaredL2 returns Σ(aᵢ-bᵢ)².
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// WeightedSquaredL2 returns Σ wᵢ(aᵢ-bᵢ)².
func WeightedSquaredL2(a, b, w []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += w[i] * d * d
	}
	return sum
}

func squaredLattice(a, b []int) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 { return math.Sqrt(SquaredL2(a, b)) }
func (Euclidean) Lattice(a, b []int) float64      { return math.Sqrt(squaredLattice(a, b)) }
func (Euclidean) Kind() Kind                      { return KindEuclidean }

// SquaredEuclidean is the squared L2 distance.
type SquaredEuclidean struct{}

func (SquaredEuclidean) Distance(a, b []float64) float64 { return SquaredL2(a, b) }
func (SquaredEuclidean) Lattice(a, b []int) float64      { return squaredLattice(a, b) }
func (SquaredEuclidean) Kind() Kind                      { return KindSquaredEuclidean }

// WeightedEuclidean is the L2 distance with per-dimension weights.
// Without weights it behaves like Euclidean.
type WeightedEuclidean struct{}

func (WeightedEuclidean) Distance(a, b []float64) float64 { return math.Sqrt(SquaredL2(a, b)) }
func (WeightedEuclidean) Lattice(a, b []int) float64      { return math.Sqrt(squaredLattice(a, b)) }
func (WeightedEuclidean) Kind() Kind                      { return KindWeightedEuclidean }

// WeightedDistance returns sqrt(Σ wᵢ(aᵢ-bᵢ)²). A nil w means unit weights.
func (WeightedEuclidean) WeightedDistance(a, b, w []float64) float64 {
	if w == nil {
		return math.Sqrt(SquaredL2(a, b))
	}
	return math.Sqrt(WeightedSquaredL2(a, b, w))
}
