// Package plsom provides self-organizing maps with parameter-less learning.
//
// This file implements the fluent builder API for creating maps.
// Builders are immutable - each method returns a new builder with the updated configuration.
package plsom

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hupe1980/plsom/distance"
	"github.com/hupe1980/plsom/neighborhood"
	"github.com/hupe1980/plsom/recursive"
	"github.com/hupe1980/plsom/som"
)

// Builder is an immutable fluent builder for maps of every kind.
// Each method returns a new builder with the updated configuration.
//
// Setters that do not apply to the selected kind are recorded but ignored
// by its constructor.
type Builder struct {
	kind         string
	inputDim     int
	outputDims   []int
	inputMetric  distance.Kind
	outputMetric distance.Kind
	neighborhood neighborhood.Kind
	activation   som.Activation
	params       map[string]float64
	randomSeed   *int64
	parallelism  int
	logger       *Logger
	metrics      MetricsCollector
}

func newBuilder(kind string, inputDim int, outputDims []int, params map[string]float64) Builder {
	return Builder{
		kind:       kind,
		inputDim:   inputDim,
		outputDims: slices.Clone(outputDims),
		params:     params,
	}
}

func defaultNeighborhood(outputDims []int) float64 {
	if len(outputDims) == 0 {
		return 1
	}
	return float64(slices.Max(outputDims)) / 2
}

// =============================================================================
// Constructors
// =============================================================================

// SOM creates a builder for a classic fixed-rate map. The learning rate and
// neighbourhood size decay on every training step.
//
// Example:
//
//	m, err := plsom.SOM(3, 20, 20).
//	    LearningRate(0.5).
//	    NeighborhoodSize(10).
//	    Build()
func SOM(inputDim int, outputDims ...int) Builder {
	return newBuilder(som.KindSOM, inputDim, outputDims, map[string]float64{
		"learning_rate":       0.5,
		"neighborhood_size":   defaultNeighborhood(outputDims),
		"learning_rate_decay": som.DefaultLearningRateDecay,
		"neighborhood_decay":  som.DefaultNeighborhoodDecay,
	})
}

// PLSOM creates a builder for a parameter-less map whose learning rate is the
// winner error normalised by the largest error seen so far.
func PLSOM(inputDim int, outputDims ...int) Builder {
	return newBuilder(som.KindPLSOM, inputDim, outputDims, map[string]float64{
		"neighborhood_range": defaultNeighborhood(outputDims),
		"learning_scale":     1,
	})
}

// PLSOM2 creates a builder for a parameter-less map whose learning rate is the
// winner error normalised by the estimated input-space diameter.
//
// Example:
//
//	m, err := plsom.PLSOM2(2, 10, 10).
//	    NeighborhoodRange(8).
//	    RandomSeed(42).
//	    Build()
func PLSOM2(inputDim int, outputDims ...int) Builder {
	return newBuilder(som.KindPLSOM2, inputDim, outputDims, map[string]float64{
		"neighborhood_range": defaultNeighborhood(outputDims),
	})
}

// BDH creates a builder for a map with a per-node win-age learning rate.
func BDH(inputDim int, outputDims ...int) Builder {
	return newBuilder(som.KindBDH, inputDim, outputDims, map[string]float64{
		"epsilon0":            0.1,
		"d":                   0.01,
		"m":                   10,
		"learning_rate":       0,
		"neighborhood_size":   defaultNeighborhood(outputDims),
		"learning_rate_decay": som.DefaultLearningRateDecay,
		"neighborhood_decay":  som.DefaultNeighborhoodDecay,
	})
}

// Conscience creates a builder for a fixed-rate map biased against frequent
// winners.
func Conscience(inputDim int, outputDims ...int) Builder {
	b := SOM(inputDim, outputDims...)
	b.kind = som.KindConscience
	return b
}

// IEPLSOM2 creates a builder for a PLSOM2 map that learns a per-node,
// per-dimension importance. The input metric is weighted Euclidean.
func IEPLSOM2(inputDim int, outputDims ...int) Builder {
	b := PLSOM2(inputDim, outputDims...)
	b.kind = som.KindIEPLSOM2
	b.inputMetric = distance.KindWeightedEuclidean
	return b
}

func recursiveBuilder(kind string, inputDim int, outputDims []int) Builder {
	return newBuilder(kind, inputDim, outputDims, map[string]float64{
		"alpha":              0.5,
		"neighborhood_range": defaultNeighborhood(outputDims),
		"predict":            0,
		"recovery":           1,
		"recovery_scaling":   recursive.DefaultRecoveryScaling,
		"learning_scale":     1,
		"softmax":            0,
	})
}

// RecursivePLSOM creates a builder for a recursive map whose learning rate is
// normalised by the largest combined error seen so far.
func RecursivePLSOM(inputDim int, outputDims ...int) Builder {
	return recursiveBuilder(recursive.KindPLSOM, inputDim, outputDims)
}

// RecursivePLSOM2 creates a builder for a recursive map that normalises input
// and excitation errors by their estimated diameters.
//
// Example:
//
//	m, err := plsom.RecursivePLSOM2(1, 30).
//	    Alpha(0.3).
//	    NeighborhoodRange(15).
//	    Build()
func RecursivePLSOM2(inputDim int, outputDims ...int) Builder {
	return recursiveBuilder(recursive.KindPLSOM2, inputDim, outputDims)
}

// StatelessRecursivePLSOM2 creates a builder for a RecursivePLSOM2 that keeps
// excitations outside the map, so independent sequences can share it.
func StatelessRecursivePLSOM2(inputDim int, outputDims ...int) Builder {
	return recursiveBuilder(recursive.KindStateless, inputDim, outputDims)
}

// IEStatelessRecursivePLSOM2 creates a builder for a stateless recursive map
// with importance estimation on both the input and the recursive term.
func IEStatelessRecursivePLSOM2(inputDim int, outputDims ...int) Builder {
	b := recursiveBuilder(recursive.KindIEStateless, inputDim, outputDims)
	b.params["importance_scaling"] = recursive.DefaultImportanceScaling
	b.inputMetric = distance.KindWeightedEuclidean
	return b
}

// MultilayerRecursivePLSOM2 creates a builder for a pair of mutually coupled
// recursive layers. Use BuildLayers; Build rejects this kind.
func MultilayerRecursivePLSOM2(inputDim int, outputDims ...int) Builder {
	b := newBuilder(recursive.KindLayer, inputDim, outputDims, map[string]float64{
		"alpha":              0.5,
		"neighborhood_range": defaultNeighborhood(outputDims),
		"predict":            0,
	})
	b.inputMetric = distance.KindSquaredEuclidean
	return b
}

// =============================================================================
// Setters
// =============================================================================

func (b Builder) with(name string, v float64) Builder {
	b.params = maps.Clone(b.params)
	b.params[name] = v
	return b
}

// Param sets a named constructor parameter directly.
func (b Builder) Param(name string, v float64) Builder {
	return b.with(name, v)
}

// NeighborhoodRange sets the neighbourhood range of the parameter-less kinds.
func (b Builder) NeighborhoodRange(r float64) Builder {
	return b.with("neighborhood_range", r)
}

// LearningRate sets the initial learning rate of the fixed-rate kinds.
func (b Builder) LearningRate(lr float64) Builder {
	return b.with("learning_rate", lr)
}

// NeighborhoodSize sets the initial neighbourhood size of the fixed-rate kinds.
func (b Builder) NeighborhoodSize(n float64) Builder {
	return b.with("neighborhood_size", n)
}

// Decay sets the per-step learning rate and neighbourhood size factors of
// the fixed-rate kinds. 1 disables decay.
func (b Builder) Decay(learningRate, neighborhoodSize float64) Builder {
	return b.with("learning_rate_decay", learningRate).with("neighborhood_decay", neighborhoodSize)
}

// WinAge sets the BDH learning rate parameters ε₀, d and m.
func (b Builder) WinAge(epsilon0, d, m float64) Builder {
	return b.with("epsilon0", epsilon0).with("d", d).with("m", m)
}

// LearningScale multiplies the computed learning rate.
func (b Builder) LearningScale(s float64) Builder {
	return b.with("learning_scale", s)
}

// Alpha sets the weight of the input term of the recursive kinds.
func (b Builder) Alpha(alpha float64) Builder {
	return b.with("alpha", alpha)
}

// Predict lets the recursive kinds run without input.
func (b Builder) Predict(enabled bool) Builder {
	return b.with("predict", boolParam(enabled))
}

// Recovery toggles the recovery of recently winning nodes.
func (b Builder) Recovery(enabled bool) Builder {
	return b.with("recovery", boolParam(enabled))
}

// RecoveryScaling sets the recovery scaling factor.
func (b Builder) RecoveryScaling(s float64) Builder {
	return b.with("recovery_scaling", s)
}

// Softmax switches excitations to the softmax of the recursive distances.
func (b Builder) Softmax(enabled bool) Builder {
	return b.with("softmax", boolParam(enabled))
}

// ImportanceScaling sets the importance learning factor.
func (b Builder) ImportanceScaling(f float64) Builder {
	return b.with("importance_scaling", f)
}

// Activation enables per-node activation tracking.
func (b Builder) Activation(a som.Activation) Builder {
	b.activation = a
	return b
}

// InputMetric sets the weight-space metric.
func (b Builder) InputMetric(k distance.Kind) Builder {
	b.inputMetric = k
	return b
}

// OutputMetric sets the lattice metric.
func (b Builder) OutputMetric(k distance.Kind) Builder {
	b.outputMetric = k
	return b
}

// Neighborhood sets the neighbourhood function.
func (b Builder) Neighborhood(k neighborhood.Kind) Builder {
	b.neighborhood = k
	return b
}

// RandomSeed makes weight initialization deterministic.
func (b Builder) RandomSeed(seed int64) Builder {
	b.randomSeed = &seed
	return b
}

// Parallelism sets the number of goroutines per step.
func (b Builder) Parallelism(n int) Builder {
	b.parallelism = n
	return b
}

// Logger sets the logger.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// =============================================================================
// Build
// =============================================================================

// Config returns the configuration Build constructs the map from. Without a
// RandomSeed the seed is derived from the current time.
func (b Builder) Config() Config {
	seed := time.Now().UnixNano()
	if b.randomSeed != nil {
		seed = *b.randomSeed
	}
	return Config{
		Kind:         b.kind,
		InputDim:     b.inputDim,
		OutputDims:   slices.Clone(b.outputDims),
		InputMetric:  b.inputMetric,
		OutputMetric: b.outputMetric,
		Neighborhood: b.neighborhood,
		Activation:   b.activation,
		Seed:         seed,
		Params:       maps.Clone(b.params),
	}
}

func (b Builder) options() []Option {
	var opts []Option
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.parallelism > 0 {
		opts = append(opts, WithParallelism(b.parallelism))
	}
	return opts
}

// Build creates the map.
func (b Builder) Build() (Model, error) {
	if b.kind == recursive.KindLayer {
		return nil, fmt.Errorf("%w: %s maps are built in pairs with BuildLayers", ErrInvalidConfiguration, b.kind)
	}
	return New(b.Config(), b.options()...)
}

// MustBuild creates the map, panicking on error.
func (b Builder) MustBuild() Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// BuildLayers creates two coupled multilayer recursive layers with the same
// configuration. The second layer is seeded with seed+1 so the layers start
// from different weights.
func (b Builder) BuildLayers() (*recursive.Layer, *recursive.Layer, error) {
	if b.kind != recursive.KindLayer {
		return nil, nil, fmt.Errorf("%w: BuildLayers requires %s, got %s", ErrInvalidConfiguration, recursive.KindLayer, b.kind)
	}
	cfg := b.Config()
	first, err := b.layer(cfg)
	if err != nil {
		return nil, nil, err
	}
	cfg.Seed++
	second, err := b.layer(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := recursive.Couple(first, second); err != nil {
		return nil, nil, translateError(err)
	}
	return first, second, nil
}

func (b Builder) layer(cfg Config) (*recursive.Layer, error) {
	base, err := som.OptionsFromConfig(cfg)
	if err != nil {
		return nil, translateError(err)
	}
	o := applyOptions(b.options())
	l, err := recursive.NewLayer(
		cfg.Param("alpha", 0.5), cfg.InputDim, cfg.OutputDims, cfg.Param("neighborhood_range", 0),
		recursive.WithMapOptions(append(base, o.mapOptions()...)...),
		recursive.WithPredict(cfg.Param("predict", 0) != 0),
	)
	if err != nil {
		return nil, translateError(err)
	}
	return l, nil
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
