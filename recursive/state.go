package recursive

import (
	"math"

	"github.com/hupe1980/plsom/som"
)

// recurrent is the state shared by every recursive variant: blend factor,
// predict flag, recovery, recursive weights and the excitations of the
// previous (excitations) and current (nu) step.
type recurrent struct {
	alpha           float64
	nhRange         float64
	predict         bool
	useRecovery     bool
	recoveryScaling float64
	learningScale   float64

	recovery    []float64
	weights     [][]float64
	excitations []float64
	nu          []float64
}

func newRecurrent(alpha, nhRange float64, o options) recurrent {
	return recurrent{
		alpha:           alpha,
		nhRange:         nhRange,
		predict:         o.predict,
		useRecovery:     o.useRecovery,
		recoveryScaling: o.recoveryScaling,
		learningScale:   o.learningScale,
	}
}

// bind allocates per-node state. Recursive weights are drawn after the
// direct weights from the same seeded source.
func (r *recurrent) bind(m *som.Map, withExcitations bool) {
	n := m.Len()
	r.recovery = make([]float64, n)
	for i := range r.recovery {
		r.recovery[i] = 1
	}
	r.nu = make([]float64, n)
	if withExcitations {
		r.excitations = make([]float64, n)
	}
	rng := m.Rand()
	r.weights = make([][]float64, n)
	for i := range r.weights {
		w := make([]float64, n)
		for j := range w {
			w[j] = 0.01 * (rng.Float64()*2 - 1)
		}
		r.weights[i] = w
	}
}

func (r *recurrent) InputOptional() bool { return r.predict }

func (r *recurrent) scale(offset int) float64 {
	if r.useRecovery {
		return r.recovery[offset]
	}
	return 1
}

// recover lets every node recover towards 1 and inhibits the winner.
func (r *recurrent) recover(winner int) {
	if !r.useRecovery {
		return
	}
	for i, v := range r.recovery {
		r.recovery[i] = v + (1-v)/r.recoveryScaling
	}
	r.recovery[winner] = 0
}

// normalize rescales nu to [0,1] using the given bounds. A flat excitation
// pattern is only shifted.
func (r *recurrent) normalize(m *som.Map, lo, hi float64) {
	diff := hi - lo
	if diff <= 0 {
		m.Guard("excitation_range")
		diff = 1
	}
	for i, v := range r.nu {
		r.nu[i] = (v - lo) / diff
	}
}

// softmaxNu replaces nu with exp(nu)/Σexp(nu).
func (r *recurrent) softmaxNu() {
	var total float64
	for _, v := range r.nu {
		total += math.Exp(v)
	}
	for i, v := range r.nu {
		r.nu[i] = math.Exp(v) / total
	}
}

// updateNode moves the direct weights towards the input (unless predicting)
// and the recursive weights towards the previous excitations.
func (r *recurrent) updateNode(m *som.Map, offset int, scale float64) {
	if !r.predict {
		w := m.NodeWeights(offset)
		input := m.Input()
		for i := range w {
			w[i] += scale * (input[i] - w[i])
		}
	}
	if r.excitations == nil {
		return
	}
	rw := r.weights[offset]
	for i := range rw {
		rw[i] += scale * (r.excitations[i] - rw[i])
	}
}

// commit publishes the excitations of the current step.
func (r *recurrent) commit() {
	if r.excitations == nil {
		r.excitations = append([]float64(nil), r.nu...)
		return
	}
	copy(r.excitations, r.nu)
}

func (r *recurrent) params() map[string]float64 {
	return map[string]float64{
		"alpha":              r.alpha,
		"neighborhood_range": r.nhRange,
		"predict":            boolParam(r.predict),
		"recovery":           boolParam(r.useRecovery),
		"recovery_scaling":   r.recoveryScaling,
		"learning_scale":     r.learningScale,
	}
}

// appendState writes [recovery, recursive weights, hasExcitations, excitations].
func (r *recurrent) appendState(dst []float64) []float64 {
	dst = append(dst, r.recovery...)
	for _, w := range r.weights {
		dst = append(dst, w...)
	}
	if r.excitations == nil {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	return append(dst, r.excitations...)
}

func (r *recurrent) restoreState(src []float64) ([]float64, error) {
	n := len(r.recovery)
	if len(src) < n+n*n+1 {
		return nil, invalidState("recursive state needs at least %d values, got %d", n+n*n+1, len(src))
	}
	has := src[n+n*n] != 0
	if has && len(src) < n+n*n+1+n {
		return nil, invalidState("excitations truncated")
	}
	src = src[copy(r.recovery, src):]
	for _, w := range r.weights {
		src = src[copy(w, src):]
	}
	src = src[1:]
	if !has {
		r.excitations = nil
		return src, nil
	}
	r.excitations = append(r.excitations[:0], src[:n]...)
	return src[n:], nil
}

func (r *recurrent) clone() recurrent {
	c := *r
	c.recovery = append([]float64(nil), r.recovery...)
	c.nu = append([]float64(nil), r.nu...)
	if r.excitations != nil {
		c.excitations = append([]float64(nil), r.excitations...)
	}
	c.weights = cloneRows(r.weights)
	return c
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	res := make([][]float64, len(rows))
	for i, row := range rows {
		res[i] = append([]float64(nil), row...)
	}
	return res
}

func appendRows(dst []float64, rows [][]float64) []float64 {
	for _, row := range rows {
		dst = append(dst, row...)
	}
	return dst
}

func restoreRows(rows [][]float64, src []float64) ([]float64, error) {
	for _, row := range rows {
		if len(src) < len(row) {
			return nil, invalidState("weight rows truncated")
		}
		src = src[copy(row, src):]
	}
	return src, nil
}

func clampEpsilon(m *som.Map, eps float64) float64 {
	switch {
	case math.IsNaN(eps):
		m.Guard("recursive_epsilon_nan")
		return 0
	case eps > 1:
		return 1
	case eps < 0:
		m.Guard("recursive_epsilon_negative")
		return 0
	}
	return eps
}
