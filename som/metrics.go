package som

import "time"

// MetricsObserver defines the interface for observing map steps.
type MetricsObserver interface {
	// OnClassify is called after each classification.
	OnClassify(duration time.Duration, quantizationError float64)

	// OnTrain is called after each training step with the rate that was applied.
	OnTrain(duration time.Duration, quantizationError, epsilon, neighborhoodSize float64)

	// OnGuard is called when a numeric guard replaced a degenerate value.
	OnGuard(name string)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnClassify(time.Duration, float64)                {}
func (NoopMetricsObserver) OnTrain(time.Duration, float64, float64, float64) {}
func (NoopMetricsObserver) OnGuard(string)                                   {}
