// Package neighborhood maps an output-space distance and a neighbourhood
// size to a weight-update scaling factor.
package neighborhood

import (
	"fmt"
	"math"
)

// Kind identifies a neighbourhood function in persisted configurations.
type Kind int

const (
	KindGaussian Kind = iota
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindGaussian:
		return "Gaussian"
	case KindBinary:
		return "Binary"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Func is decreasing in distance, 1 at distance 0 and defined at size 0.
type Func interface {
	Scale(distance, size float64) float64
	Kind() Kind
}

// ByKind returns the neighbourhood function for k.
func ByKind(k Kind) (Func, error) {
	switch k {
	case KindGaussian:
		return Gaussian{}, nil
	case KindBinary:
		return Binary{}, nil
	default:
		return nil, fmt.Errorf("unsupported neighborhood function: %v", k)
	}
}

// Gaussian scales by exp(-d²/N²).
type Gaussian struct{}

func (Gaussian) Scale(distance, size float64) float64 {
	if distance == 0 {
		return 1
	}
	if size == 0 {
		return 0
	}
	return math.Exp(-(distance * distance) / (size * size))
}

func (Gaussian) Kind() Kind { return KindGaussian }

// Binary scales by 1 inside the neighbourhood and 0 outside it.
type Binary struct{}

func (Binary) Scale(distance, size float64) float64 {
	if distance <= size {
		return 1
	}
	return 0
}

func (Binary) Kind() Kind { return KindBinary }
