package som

import "github.com/hupe1980/plsom/distance"

// Policy derives the learning rate and neighbourhood size of a training step.
//
// Rate is called after the winner has been selected, so m.LastError and
// m.WinnerOffset describe the current step.
type Policy interface {
	// Kind is the stable discriminator recorded in snapshots.
	Kind() string
	Rate(m *Map) (epsilon, size float64)
}

// Binder is implemented by policies that allocate per-node state when the map
// is created. Bind runs after the node weights have been initialized, so any
// draws from m.Rand continue the same seeded sequence.
type Binder interface {
	Bind(m *Map) error
}

// Criterion replaces the winner-search criterion. The node with the lowest
// criterion wins. Implementations must be safe for concurrent calls on
// distinct offsets.
type Criterion interface {
	Criterion(m *Map, offset int, input []float64) float64
}

// InputObserver sees every input before the winner search.
type InputObserver interface {
	ObserveInput(m *Map, input []float64, training bool)
}

// WinnerObserver sees the winner and the per-node criteria of each search.
type WinnerObserver interface {
	ObserveWinner(m *Map, winner int, criteria []float64, training bool)
}

// NodeUpdater replaces the default per-node weight update. h is the
// neighbourhood scaling of the node for this step. Implementations must be
// safe for concurrent calls on distinct offsets.
type NodeUpdater interface {
	UpdateNode(m *Map, offset int, epsilon, h float64)
}

// Committer runs at the end of every Classify and Train.
type Committer interface {
	Commit(m *Map, training bool)
}

// InputOptional is implemented by policies that accept a nil input, e.g. in
// predict mode.
type InputOptional interface {
	InputOptional() bool
}

// Stateful policies carry state that must survive a state-vector round trip.
type Stateful interface {
	AppendState(dst []float64) []float64
	// RestoreState consumes its part of src and returns the remainder.
	RestoreState(src []float64) ([]float64, error)
}

// Cloner policies can be copied onto a cloned map.
type Cloner interface {
	ClonePolicy(m *Map) Policy
}

// Parameterized policies expose the parameters needed to reconstruct them.
type Parameterized interface {
	Params() map[string]float64
}

// MetricValidator policies restrict the input metric.
type MetricValidator interface {
	ValidateInputMetric(metric distance.Metric) error
}
