package recursive

import (
	"fmt"

	"github.com/hupe1980/plsom/som"
)

// Kinds lists the discriminators NewFromConfig understands. Layers are not
// included: a layer is only meaningful together with its coupled partner.
func Kinds() []string {
	return []string{KindPLSOM, KindPLSOM2, KindStateless, KindIEStateless}
}

// NewFromConfig constructs the recursive variant recorded in cfg. mapOpts are
// applied after the strategies and seed stored in cfg.
func NewFromConfig(cfg som.Config, mapOpts ...som.Option) (som.Model, error) {
	base, err := som.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithMapOptions(append(base, mapOpts...)...),
		WithPredict(cfg.Param("predict", 0) != 0),
		WithRecovery(cfg.Param("recovery", 1) != 0),
		WithRecoveryScaling(cfg.Param("recovery_scaling", DefaultRecoveryScaling)),
		WithLearningScale(cfg.Param("learning_scale", 1)),
	}
	if cfg.Param("softmax", 0) != 0 {
		opts = append(opts, WithSoftmax())
	}

	alpha := cfg.Param("alpha", 0.5)
	nhRange := cfg.Param("neighborhood_range", 0)
	switch cfg.Kind {
	case KindPLSOM:
		m, err := NewPLSOM(alpha, cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindPLSOM2:
		m, err := NewPLSOM2(alpha, cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindStateless:
		m, err := NewStateless(alpha, cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindIEStateless:
		opts = append(opts, WithImportanceScaling(cfg.Param("importance_scaling", DefaultImportanceScaling)))
		m, err := NewIEStateless(alpha, cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown recursive kind %q", som.ErrInvalidConfiguration, cfg.Kind)
	}
}
