package plsom

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/som"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package ships a Prometheus implementation of the underlying
// observers.
type MetricsCollector interface {
	// RecordClassify is called after each winner search that did not train.
	// quantizationError is the distance of the winner to the input.
	RecordClassify(duration time.Duration, quantizationError float64)

	// RecordTrain is called after each training step with the learning rate
	// and neighbourhood size that were applied.
	RecordTrain(duration time.Duration, quantizationError, epsilon, neighborhoodSize float64)

	// RecordGuard is called when a numeric guard replaced a degenerate value.
	RecordGuard(name string)

	// RecordCheckpoint is called after each checkpoint write attempt.
	RecordCheckpoint(duration time.Duration, bytes int, err error)

	// RecordRestore is called after each checkpoint read attempt.
	RecordRestore(duration time.Duration, bytes int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordClassify(time.Duration, float64)                {}
func (NoopMetricsCollector) RecordTrain(time.Duration, float64, float64, float64) {}
func (NoopMetricsCollector) RecordGuard(string)                                   {}
func (NoopMetricsCollector) RecordCheckpoint(time.Duration, int, error)           {}
func (NoopMetricsCollector) RecordRestore(time.Duration, int, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ClassifyCount      atomic.Int64
	ClassifyTotalNanos atomic.Int64
	TrainCount         atomic.Int64
	TrainTotalNanos    atomic.Int64
	GuardCount         atomic.Int64
	CheckpointCount    atomic.Int64
	CheckpointErrors   atomic.Int64
	CheckpointBytes    atomic.Int64
	RestoreCount       atomic.Int64
	RestoreErrors      atomic.Int64

	lastError   atomic.Uint64
	lastEpsilon atomic.Uint64
}

// RecordClassify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClassify(duration time.Duration, qe float64) {
	b.ClassifyCount.Add(1)
	b.ClassifyTotalNanos.Add(duration.Nanoseconds())
	b.lastError.Store(math.Float64bits(qe))
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(duration time.Duration, qe, epsilon, _ float64) {
	b.TrainCount.Add(1)
	b.TrainTotalNanos.Add(duration.Nanoseconds())
	b.lastError.Store(math.Float64bits(qe))
	b.lastEpsilon.Store(math.Float64bits(epsilon))
}

// RecordGuard implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGuard(string) {
	b.GuardCount.Add(1)
}

// RecordCheckpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpoint(_ time.Duration, bytes int, err error) {
	b.CheckpointCount.Add(1)
	if err != nil {
		b.CheckpointErrors.Add(1)
		return
	}
	b.CheckpointBytes.Add(int64(bytes))
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(_ time.Duration, _ int, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ClassifyCount:     b.ClassifyCount.Load(),
		ClassifyAvgNanos:  avgNanos(b.ClassifyTotalNanos.Load(), b.ClassifyCount.Load()),
		TrainCount:        b.TrainCount.Load(),
		TrainAvgNanos:     avgNanos(b.TrainTotalNanos.Load(), b.TrainCount.Load()),
		GuardCount:        b.GuardCount.Load(),
		CheckpointCount:   b.CheckpointCount.Load(),
		CheckpointErrors:  b.CheckpointErrors.Load(),
		CheckpointBytes:   b.CheckpointBytes.Load(),
		RestoreCount:      b.RestoreCount.Load(),
		RestoreErrors:     b.RestoreErrors.Load(),
		QuantizationError: math.Float64frombits(b.lastError.Load()),
		Epsilon:           math.Float64frombits(b.lastEpsilon.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ClassifyCount    int64
	ClassifyAvgNanos int64
	TrainCount       int64
	TrainAvgNanos    int64
	GuardCount       int64
	CheckpointCount  int64
	CheckpointErrors int64
	CheckpointBytes  int64
	RestoreCount     int64
	RestoreErrors    int64

	// QuantizationError is the winner distance of the most recent step.
	QuantizationError float64
	// Epsilon is the learning rate of the most recent training step.
	Epsilon float64
}

// collectorObserver forwards map and checkpoint events to a MetricsCollector.
type collectorObserver struct {
	mc MetricsCollector
}

var (
	_ som.MetricsObserver         = collectorObserver{}
	_ persistence.MetricsObserver = collectorObserver{}
)

func (o collectorObserver) OnClassify(d time.Duration, qe float64) { o.mc.RecordClassify(d, qe) }

func (o collectorObserver) OnTrain(d time.Duration, qe, eps, nh float64) {
	o.mc.RecordTrain(d, qe, eps, nh)
}

func (o collectorObserver) OnGuard(name string) { o.mc.RecordGuard(name) }

func (o collectorObserver) OnCheckpoint(d time.Duration, bytes int, err error) {
	o.mc.RecordCheckpoint(d, bytes, err)
}

func (o collectorObserver) OnRestore(d time.Duration, bytes int, err error) {
	o.mc.RecordRestore(d, bytes, err)
}
