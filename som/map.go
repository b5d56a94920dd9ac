package som

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/neighborhood"
	"github.com/hupe1980/plsom/tensor"
)

// minParallelNodes is the node count below which fan-out is not worth the
// goroutine overhead.
const minParallelNodes = 64

// Map is the shared map engine. Variants are composed by supplying a Policy.
type Map struct {
	inputDim int
	weights  *tensor.Tensor[[]float64]

	inputMetric  distance.Metric
	outputMetric distance.Metric
	neighborhood neighborhood.Func

	policy    Policy
	criterion Criterion
	inputObs  InputObserver
	winnerObs WinnerObserver
	updater   NodeUpdater
	committer Committer

	input     []float64
	winner    int
	lastError float64
	epsilon   float64
	nhSize    float64
	criteria  []float64

	activation  Activation
	excitations []float64

	seed        int64
	rng         *rand.Rand
	parallelism int
	logger      *slog.Logger
	metrics     MetricsObserver
}

// NewMap creates a map with inputDim inputs and a lattice of outputDims
// nodes driven by policy. Weights are initialized uniformly in [-0.1, 0.1].
func NewMap(inputDim int, outputDims []int, policy Policy, opts ...Option) (*Map, error) {
	if inputDim <= 0 {
		return nil, invalidConfig("input dimension must be positive, got %d", inputDim)
	}
	if policy == nil {
		return nil, invalidConfig("policy is required")
	}
	weights, err := tensor.New[[]float64](outputDims...)
	if err != nil {
		return nil, invalidConfig("%v", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	seed := o.resolveSeed()

	m := &Map{
		inputDim:     inputDim,
		weights:      weights,
		inputMetric:  o.inputMetric,
		outputMetric: o.outputMetric,
		neighborhood: o.neighborhood,
		criteria:     make([]float64, weights.Len()),
		activation:   o.activation,
		seed:         seed,
		rng:          rand.New(rand.NewSource(seed)),
		parallelism:  o.parallelism,
		logger:       o.logger,
		metrics:      o.metrics,
	}
	if m.activation != ActivationNone {
		m.excitations = make([]float64, weights.Len())
	}

	weights.Fill(func(int) []float64 {
		w := make([]float64, inputDim)
		for i := range w {
			w[i] = 0.1 * (m.rng.Float64()*2 - 1)
		}
		return w
	})

	if err := m.setPolicy(policy); err != nil {
		return nil, err
	}
	if b, ok := policy.(Binder); ok {
		if err := b.Bind(m); err != nil {
			return nil, err
		}
	}

	m.logger.Debug("map created",
		"kind", policy.Kind(),
		"input_dim", inputDim,
		"output_dims", outputDims,
		"nodes", weights.Len(),
		"seed", seed,
	)
	return m, nil
}

func (m *Map) setPolicy(p Policy) error {
	if v, ok := p.(MetricValidator); ok {
		if err := v.ValidateInputMetric(m.inputMetric); err != nil {
			return err
		}
	}
	m.policy = p
	m.criterion, _ = p.(Criterion)
	m.inputObs, _ = p.(InputObserver)
	m.winnerObs, _ = p.(WinnerObserver)
	m.updater, _ = p.(NodeUpdater)
	m.committer, _ = p.(Committer)
	return nil
}

// Classify selects the winning node for input and returns its coordinate.
func (m *Map) Classify(input []float64) ([]int, error) {
	start := time.Now()
	if err := m.checkInput(input); err != nil {
		return nil, err
	}
	m.setInput(input, false)
	m.selectWinner(false)
	if m.committer != nil {
		m.committer.Commit(m, false)
	}
	m.metrics.OnClassify(time.Since(start), m.lastError)
	return m.Winner(), nil
}

// Train runs one full training step on input.
func (m *Map) Train(input []float64) error {
	start := time.Now()
	if err := m.checkInput(input); err != nil {
		return err
	}
	m.setInput(input, true)
	m.selectWinner(true)

	eps, size := m.policy.Rate(m)
	if math.IsNaN(eps) || math.IsInf(eps, 0) {
		m.guard("epsilon")
		eps = 0
	}
	if math.IsNaN(size) || math.IsInf(size, 0) {
		m.guard("neighborhood_size")
		size = 0
	}
	m.epsilon, m.nhSize = eps, size

	m.update(eps, size)
	if m.committer != nil {
		m.committer.Commit(m, true)
	}
	m.metrics.OnTrain(time.Since(start), m.lastError, eps, size)
	return nil
}

// CheckInput validates input against the map without running a step.
func (m *Map) CheckInput(input []float64) error {
	return m.checkInput(input)
}

func (m *Map) checkInput(input []float64) error {
	if input == nil {
		if o, ok := m.policy.(InputOptional); ok && o.InputOptional() {
			return nil
		}
		return ErrNilInput
	}
	if len(input) != m.inputDim {
		return &ErrDimensionMismatch{Expected: m.inputDim, Actual: len(input)}
	}
	return nil
}

func (m *Map) setInput(input []float64, training bool) {
	m.input = input
	if m.inputObs != nil {
		m.inputObs.ObserveInput(m, input, training)
	}
}

func (m *Map) selectWinner(training bool) {
	input := m.input
	m.parallelFor(func(lo, hi int) {
		for off := lo; off < hi; off++ {
			if m.criterion != nil {
				m.criteria[off] = m.criterion.Criterion(m, off, input)
			} else {
				m.criteria[off] = m.inputMetric.Distance(m.weights.At(off), input)
			}
		}
	})

	winner, best := 0, math.Inf(1)
	for off, c := range m.criteria {
		if c < best {
			best = c
			winner = off
		}
	}
	m.winner = winner
	m.lastError = best

	if m.activation != ActivationNone {
		if activate(m.activation, m.excitations, m.criteria) {
			m.guard("activation_range")
		}
	}
	if m.winnerObs != nil {
		m.winnerObs.ObserveWinner(m, winner, m.criteria, training)
	}
}

func (m *Map) update(eps, size float64) {
	winner := m.weights.Coord(m.winner)
	m.parallelFor(func(lo, hi int) {
		for off := lo; off < hi; off++ {
			h := m.neighborhood.Scale(m.outputMetric.Lattice(m.weights.Coord(off), winner), size)
			if m.updater != nil {
				m.updater.UpdateNode(m, off, eps, h)
				continue
			}
			scale := eps * h
			w := m.weights.At(off)
			for i := range w {
				w[i] += scale * (m.input[i] - w[i])
			}
		}
	})
}

// parallelFor splits the node range into chunks. Each offset is visited by
// exactly one goroutine.
func (m *Map) parallelFor(fn func(lo, hi int)) {
	n := m.weights.Len()
	if m.parallelism <= 1 || n < minParallelNodes {
		fn(0, n)
		return
	}

	chunk := (n + m.parallelism - 1) / m.parallelism
	var g errgroup.Group
	g.SetLimit(m.parallelism)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Map) guard(name string) {
	m.logger.Debug("numeric guard", "guard", name, "kind", m.policy.Kind())
	m.metrics.OnGuard(name)
}

// Guard reports a numeric guard hit on behalf of a policy.
func (m *Map) Guard(name string) { m.guard(name) }

// Weights returns a copy of the weight vector of the node at coord.
func (m *Map) Weights(coord ...int) ([]float64, error) {
	w, err := m.weights.Get(coord...)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), w...), nil
}

// SetWeights replaces the weight vector of the node at coord with a copy of w.
func (m *Map) SetWeights(w []float64, coord ...int) error {
	if len(w) != m.inputDim {
		return &ErrDimensionMismatch{Expected: m.inputDim, Actual: len(w)}
	}
	off, err := m.weights.Offset(coord...)
	if err != nil {
		return err
	}
	copy(m.weights.At(off), w)
	return nil
}

// StateVector returns all node weights in offset order followed by policy
// state and tracked activations.
func (m *Map) StateVector() []float64 {
	res := make([]float64, 0, m.weights.Len()*m.inputDim)
	for _, w := range m.weights.All() {
		res = append(res, w...)
	}
	if s, ok := m.policy.(Stateful); ok {
		res = s.AppendState(res)
	}
	if m.activation != ActivationNone {
		res = append(res, m.excitations...)
	}
	return res
}

// RestoreState loads a vector produced by StateVector on a map created with
// the same Config.
func (m *Map) RestoreState(state []float64) error {
	n := m.weights.Len() * m.inputDim
	if len(state) < n {
		return invalidState("need at least %d values for weights, got %d", n, len(state))
	}

	weights := m.weights.Clone(tensor.CloneSlice[float64])
	for off := 0; off < weights.Len(); off++ {
		copy(weights.At(off), state[off*m.inputDim:(off+1)*m.inputDim])
	}
	rest := state[n:]

	// The policy state is validated on a copy first; nothing on m changes
	// unless the whole vector is accepted.
	s, stateful := m.policy.(Stateful)
	if stateful {
		target := s
		if c, ok := m.policy.(Cloner); ok {
			if cs, ok := c.ClonePolicy(m).(Stateful); ok {
				target = cs
			}
		}
		var err error
		if rest, err = target.RestoreState(rest); err != nil {
			return err
		}
	}
	var excitations []float64
	if m.activation != ActivationNone {
		if len(rest) < len(m.excitations) {
			return invalidState("activations truncated")
		}
		excitations = rest[:len(m.excitations)]
		rest = rest[len(m.excitations):]
	}
	if len(rest) != 0 {
		return invalidState("%d trailing values", len(rest))
	}

	if stateful {
		if _, err := s.RestoreState(state[n:]); err != nil {
			return err
		}
	}
	copy(m.excitations, excitations)
	m.weights = weights
	m.logger.Info("state restored", "kind", m.policy.Kind(), "values", len(state))
	return nil
}

// Clone returns an independent copy of the map, including policy state.
func (m *Map) Clone() (*Map, error) {
	c, ok := m.policy.(Cloner)
	if !ok {
		return nil, invalidConfig("policy %s cannot be cloned", m.policy.Kind())
	}
	res := *m
	res.weights = m.weights.Clone(tensor.CloneSlice[float64])
	res.criteria = make([]float64, len(m.criteria))
	res.excitations = tensor.CloneSlice(m.excitations)
	res.input = tensor.CloneSlice(m.input)
	res.rng = rand.New(rand.NewSource(m.seed))
	if err := res.setPolicy(c.ClonePolicy(&res)); err != nil {
		return nil, err
	}
	return &res, nil
}

// Config returns the constructor parameters of the map.
func (m *Map) Config() Config {
	cfg := Config{
		Kind:         m.policy.Kind(),
		InputDim:     m.inputDim,
		OutputDims:   m.weights.Dimensions(),
		InputMetric:  m.inputMetric.Kind(),
		OutputMetric: m.outputMetric.Kind(),
		Neighborhood: m.neighborhood.Kind(),
		Activation:   m.activation,
		Seed:         m.seed,
	}
	if p, ok := m.policy.(Parameterized); ok {
		cfg.Params = p.Params()
	}
	return cfg
}

// OutputDimensions returns the lattice shape.
func (m *Map) OutputDimensions() []int { return m.weights.Dimensions() }

// InputDimension returns the input vector length.
func (m *Map) InputDimension() int { return m.inputDim }

// Len returns the number of nodes.
func (m *Map) Len() int { return m.weights.Len() }

// Winner returns the coordinate of the last winner.
func (m *Map) Winner() []int { return append([]int(nil), m.weights.Coord(m.winner)...) }

// WinnerOffset returns the offset of the last winner.
func (m *Map) WinnerOffset() int { return m.winner }

// SetWinnerError overrides the error of the current step. Policies whose
// criterion is not a distance use it from ObserveWinner.
func (m *Map) SetWinnerError(err float64) { m.lastError = err }

// LastError returns the criterion of the last winner.
func (m *Map) LastError() float64 { return m.lastError }

// Epsilon returns the learning rate applied by the last training step.
func (m *Map) Epsilon() float64 { return m.epsilon }

// NeighborhoodSize returns the neighbourhood size applied by the last training step.
func (m *Map) NeighborhoodSize() float64 { return m.nhSize }

// Excitations returns a copy of the tracked activations, or nil if tracking
// is disabled.
func (m *Map) Excitations() []float64 { return tensor.CloneSlice(m.excitations) }

// Input returns the input of the current step. Policies must not modify it.
func (m *Map) Input() []float64 { return m.input }

// NodeWeights returns the live weight vector at offset for use by policies.
func (m *Map) NodeWeights(offset int) []float64 { return m.weights.At(offset) }

// Coord returns the cached lattice coordinate of offset. It must not be modified.
func (m *Map) Coord(offset int) []int { return m.weights.Coord(offset) }

// Offset converts a lattice coordinate into an offset.
func (m *Map) Offset(coord ...int) (int, error) { return m.weights.Offset(coord...) }

// Rand returns the seeded source used for initialization.
func (m *Map) Rand() *rand.Rand { return m.rng }

// Kind returns the discriminator of the active policy.
func (m *Map) Kind() string { return m.policy.Kind() }

// Policy returns the active policy.
func (m *Map) Policy() Policy { return m.policy }

// Logger returns the map logger.
func (m *Map) Logger() *slog.Logger { return m.logger }

// InputMetric returns the metric comparing inputs with weights.
func (m *Map) InputMetric() distance.Metric { return m.inputMetric }

// SetInputMetric replaces the input metric. Policies may reject it.
func (m *Map) SetInputMetric(metric distance.Metric) error {
	if metric == nil {
		return invalidConfig("input metric is nil")
	}
	if v, ok := m.policy.(MetricValidator); ok {
		if err := v.ValidateInputMetric(metric); err != nil {
			return err
		}
	}
	m.inputMetric = metric
	return nil
}

// OutputMetric returns the lattice metric.
func (m *Map) OutputMetric() distance.Metric { return m.outputMetric }

// SetOutputMetric replaces the lattice metric.
func (m *Map) SetOutputMetric(metric distance.Metric) error {
	if metric == nil {
		return invalidConfig("output metric is nil")
	}
	m.outputMetric = metric
	return nil
}

// Neighborhood returns the neighbourhood function.
func (m *Map) Neighborhood() neighborhood.Func { return m.neighborhood }

// SetNeighborhood replaces the neighbourhood function.
func (m *Map) SetNeighborhood(fn neighborhood.Func) error {
	if fn == nil {
		return invalidConfig("neighborhood function is nil")
	}
	m.neighborhood = fn
	return nil
}
