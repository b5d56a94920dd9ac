package som

import (
	"log/slog"
	"time"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/neighborhood"
)

type options struct {
	inputMetric  distance.Metric
	outputMetric distance.Metric
	neighborhood neighborhood.Func
	seed         int64
	seedSet      bool
	logger       *slog.Logger
	metrics      MetricsObserver
	parallelism  int
	activation   Activation
}

func defaultOptions() options {
	return options{
		inputMetric:  distance.Euclidean{},
		outputMetric: distance.Euclidean{},
		neighborhood: neighborhood.Gaussian{},
		logger:       slog.New(slog.DiscardHandler),
		metrics:      NoopMetricsObserver{},
		parallelism:  1,
	}
}

// Option configures a Map at construction time.
type Option func(*options)

// WithInputMetric sets the metric comparing inputs with node weights.
// Default: Euclidean.
func WithInputMetric(m distance.Metric) Option {
	return func(o *options) {
		if m != nil {
			o.inputMetric = m
		}
	}
}

// WithOutputMetric sets the metric comparing lattice coordinates.
// Default: Euclidean.
func WithOutputMetric(m distance.Metric) Option {
	return func(o *options) {
		if m != nil {
			o.outputMetric = m
		}
	}
}

// WithNeighborhood sets the neighbourhood function. Default: Gaussian.
func WithNeighborhood(fn neighborhood.Func) Option {
	return func(o *options) {
		if fn != nil {
			o.neighborhood = fn
		}
	}
}

// WithSeed makes weight initialization deterministic.
// Without a seed the current time is used and recorded in the Config.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsObserver sets the observer notified after each step.
func WithMetricsObserver(mo MetricsObserver) Option {
	return func(o *options) {
		if mo != nil {
			o.metrics = mo
		}
	}
}

// WithParallelism sets the number of goroutines used for winner search and
// weight update within a single step. Values <= 1 keep the step sequential.
// Results are identical regardless of the setting.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithActivation enables per-node activation tracking.
func WithActivation(a Activation) Option {
	return func(o *options) {
		o.activation = a
	}
}

func (o *options) resolveSeed() int64 {
	if !o.seedSet {
		o.seed = time.Now().UnixNano()
		o.seedSet = true
	}
	return o.seed
}

// OptionsFromConfig returns the options that reproduce the strategies and
// seed recorded in cfg.
func OptionsFromConfig(cfg Config) ([]Option, error) {
	in, err := distance.ByKind(cfg.InputMetric)
	if err != nil {
		return nil, invalidConfig("input metric: %v", err)
	}
	out, err := distance.ByKind(cfg.OutputMetric)
	if err != nil {
		return nil, invalidConfig("output metric: %v", err)
	}
	nh, err := neighborhood.ByKind(cfg.Neighborhood)
	if err != nil {
		return nil, invalidConfig("neighborhood: %v", err)
	}
	return []Option{
		WithInputMetric(in),
		WithOutputMetric(out),
		WithNeighborhood(nh),
		WithSeed(cfg.Seed),
		WithActivation(cfg.Activation),
	}, nil
}
