package som

// Kinds lists the discriminators NewFromConfig understands.
func Kinds() []string {
	return []string{KindSOM, KindPLSOM, KindPLSOM2, KindBDH, KindConscience, KindIEPLSOM2}
}

// NewFromConfig constructs the variant recorded in cfg. The strategies and
// seed in cfg come first, so opts can only add logging, metrics or
// parallelism on top.
func NewFromConfig(cfg Config, opts ...Option) (Model, error) {
	base, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(base, opts...)

	nhRange := cfg.Param("neighborhood_range", 0)
	switch cfg.Kind {
	case KindSOM:
		m, err := NewSOM(cfg.InputDim, cfg.OutputDims, cfg.Param("learning_rate", 0), cfg.Param("neighborhood_size", 0), opts...)
		if err != nil {
			return nil, err
		}
		applyDecay(m.Trainer(), cfg)
		return m, nil
	case KindPLSOM:
		m, err := NewPLSOM(cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		m.SetLearningScale(cfg.Param("learning_scale", 1))
		return m, nil
	case KindPLSOM2:
		m, err := NewPLSOM2(cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindBDH:
		m, err := NewBDH(cfg.InputDim, cfg.OutputDims,
			cfg.Param("epsilon0", 0), cfg.Param("d", 0), cfg.Param("m", 0),
			cfg.Param("neighborhood_size", 0), opts...)
		if err != nil {
			return nil, err
		}
		m.SetLearningRate(cfg.Param("learning_rate", 0))
		applyDecay(m.Trainer(), cfg)
		return m, nil
	case KindConscience:
		m, err := NewConscience(cfg.InputDim, cfg.OutputDims, cfg.Param("learning_rate", 0), cfg.Param("neighborhood_size", 0), opts...)
		if err != nil {
			return nil, err
		}
		applyDecay(m.Trainer(), cfg)
		return m, nil
	case KindIEPLSOM2:
		m, err := NewIEPLSOM2(cfg.InputDim, cfg.OutputDims, nhRange, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, invalidConfig("unknown kind %q", cfg.Kind)
	}
}

func applyDecay(t *Trainer, cfg Config) {
	t.SetLearningRateDecay(cfg.Param("learning_rate_decay", DefaultLearningRateDecay))
	t.SetNeighborhoodDecay(cfg.Param("neighborhood_decay", DefaultNeighborhoodDecay))
}
