package persistence

import "time"

// MetricsObserver receives checkpoint events.
type MetricsObserver interface {
	// OnCheckpoint is called after every checkpoint write attempt.
	OnCheckpoint(duration time.Duration, bytes int, err error)

	// OnRestore is called after a checkpoint was read back.
	OnRestore(duration time.Duration, bytes int, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnCheckpoint(time.Duration, int, error) {}
func (NoopMetricsObserver) OnRestore(time.Duration, int, error)    {}
