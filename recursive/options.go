package recursive

import (
	"fmt"

	"github.com/hupe1980/plsom/som"
)

// Defaults.
const (
	DefaultRecoveryScaling   = 15.0
	DefaultImportanceScaling = 0.00005
)

type options struct {
	mapOpts           []som.Option
	useRecovery       bool
	recoveryScaling   float64
	softmax           bool
	predict           bool
	learningScale     float64
	importanceScaling float64
}

func defaultOptions() options {
	return options{
		useRecovery:       true,
		recoveryScaling:   DefaultRecoveryScaling,
		learningScale:     1,
		importanceScaling: DefaultImportanceScaling,
	}
}

func (o *options) validate() error {
	if o.recoveryScaling <= 0 {
		return fmt.Errorf("%w: recovery scaling must be positive, got %v", som.ErrInvalidConfiguration, o.recoveryScaling)
	}
	return validateImportanceScaling(o.importanceScaling)
}

func validateImportanceScaling(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("%w: importance scaling must be in [0,1], got %v", som.ErrInvalidConfiguration, f)
	}
	return nil
}

// Option configures a recursive map at construction time.
type Option func(*options)

// WithMapOptions passes options through to the underlying som.Map
// (metrics, neighbourhood, seed, logger, parallelism).
func WithMapOptions(opts ...som.Option) Option {
	return func(o *options) {
		o.mapOpts = append(o.mapOpts, opts...)
	}
}

// WithRecovery enables or disables recovery inhibition. Default: enabled.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.useRecovery = enabled
	}
}

// WithRecoveryScaling sets how many steps a node needs to recover after
// winning: r += (1−r)/scaling. Default: 15.
func WithRecoveryScaling(s float64) Option {
	return func(o *options) {
		o.recoveryScaling = s
	}
}

// WithSoftmax switches PLSOM2 excitations from min–max normalization to
// softmax.
func WithSoftmax() Option {
	return func(o *options) {
		o.softmax = true
	}
}

// WithPredict starts the map in predict mode.
func WithPredict(predict bool) Option {
	return func(o *options) {
		o.predict = predict
	}
}

// WithLearningScale sets the factor applied to ε in the weight update. Default: 1.
func WithLearningScale(s float64) Option {
	return func(o *options) {
		o.learningScale = s
	}
}

// WithImportanceScaling sets the time-integration factor of the importance
// update of IEStateless maps. Must be in [0,1]. Default: 5e-5.
func WithImportanceScaling(f float64) Option {
	return func(o *options) {
		o.importanceScaling = f
	}
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
