package som

import (
	"fmt"
	"math"
)

// Activation selects how per-node activations are derived from the
// winner-search distances.
type Activation int

const (
	// ActivationNone disables tracking.
	ActivationNone Activation = iota
	// ActivationRaw is 1 - d. Unbounded below.
	ActivationRaw
	// ActivationNormalized is 1 - (d-min)/(max-min), so the winner has 1.
	ActivationNormalized
	// ActivationSoftmax normalizes exp(-ln d) = 1/d to sum to 1.
	ActivationSoftmax
)

func (a Activation) String() string {
	switch a {
	case ActivationNone:
		return "None"
	case ActivationRaw:
		return "Raw"
	case ActivationNormalized:
		return "Normalized"
	case ActivationSoftmax:
		return "Softmax"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// activate fills dst from the per-node distances. It reports whether a
// degenerate range had to be guarded.
func activate(a Activation, dst, dist []float64) (guarded bool) {
	switch a {
	case ActivationRaw:
		for i, d := range dist {
			dst[i] = 1 - d
		}

	case ActivationNormalized:
		lo, hi := math.Inf(1), 0.0
		for _, d := range dist {
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		diff := hi - lo
		if !(diff > 0) {
			for i := range dst {
				dst[i] = 1
			}
			return true
		}
		for i, d := range dist {
			dst[i] = 1 - (d-lo)/diff
		}

	case ActivationSoftmax:
		zeros := 0
		for _, d := range dist {
			if d == 0 {
				zeros++
			}
		}
		if zeros > 0 {
			// exact matches take all of the mass
			for i, d := range dist {
				if d == 0 {
					dst[i] = 1 / float64(zeros)
				} else {
					dst[i] = 0
				}
			}
			return true
		}
		var sum float64
		for i, d := range dist {
			dst[i] = math.Exp(-math.Log(d))
			sum += dst[i]
		}
		for i := range dst {
			dst[i] /= sum
		}
	}
	return false
}
