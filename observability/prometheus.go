// Package observability exports map and checkpoint metrics to Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/som"
)

var (
	_ som.MetricsObserver         = (*PrometheusObserver)(nil)
	_ persistence.MetricsObserver = (*PrometheusObserver)(nil)
)

// PrometheusObserver implements som.MetricsObserver and
// persistence.MetricsObserver.
type PrometheusObserver struct {
	stepLatency      *prometheus.HistogramVec
	steps            *prometheus.CounterVec
	quantization     prometheus.Gauge
	epsilon          prometheus.Gauge
	neighborhood     prometheus.Gauge
	guards           *prometheus.CounterVec
	checkpointTime   *prometheus.HistogramVec
	checkpointBytes  prometheus.Gauge
	checkpointErrors *prometheus.CounterVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. constLabels are attached to
// every metric, e.g. {"map": "speech-l1"}.
func NewPrometheusObserver(reg prometheus.Registerer, constLabels prometheus.Labels) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "plsom_step_latency_seconds",
			Help:        "Latency of map steps",
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
			ConstLabels: constLabels,
		}, []string{"op"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "plsom_steps_total",
			Help:        "Total map steps processed",
			ConstLabels: constLabels,
		}, []string{"op"}),
		quantization: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "plsom_quantization_error",
			Help:        "Distance between the last input and its winning node",
			ConstLabels: constLabels,
		}),
		epsilon: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "plsom_learning_rate",
			Help:        "Learning rate applied by the last training step",
			ConstLabels: constLabels,
		}),
		neighborhood: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "plsom_neighborhood_size",
			Help:        "Neighbourhood size applied by the last training step",
			ConstLabels: constLabels,
		}),
		guards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "plsom_numeric_guards_total",
			Help:        "Degenerate values replaced by numeric guards",
			ConstLabels: constLabels,
		}, []string{"guard"}),
		checkpointTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "plsom_checkpoint_duration_seconds",
			Help:        "Duration of checkpoint writes and restores",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"op", "status"}),
		checkpointBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "plsom_checkpoint_size_bytes",
			Help:        "Size of the last written checkpoint",
			ConstLabels: constLabels,
		}),
		checkpointErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "plsom_checkpoint_errors_total",
			Help:        "Failed checkpoint writes and restores",
			ConstLabels: constLabels,
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{
		o.stepLatency, o.steps, o.quantization, o.epsilon, o.neighborhood,
		o.guards, o.checkpointTime, o.checkpointBytes, o.checkpointErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnClassify(d time.Duration, quantizationError float64) {
	o.stepLatency.WithLabelValues("classify").Observe(d.Seconds())
	o.steps.WithLabelValues("classify").Inc()
	o.quantization.Set(quantizationError)
}

func (o *PrometheusObserver) OnTrain(d time.Duration, quantizationError, epsilon, neighborhoodSize float64) {
	o.stepLatency.WithLabelValues("train").Observe(d.Seconds())
	o.steps.WithLabelValues("train").Inc()
	o.quantization.Set(quantizationError)
	o.epsilon.Set(epsilon)
	o.neighborhood.Set(neighborhoodSize)
}

func (o *PrometheusObserver) OnGuard(name string) {
	o.guards.WithLabelValues(name).Inc()
}

func (o *PrometheusObserver) OnCheckpoint(d time.Duration, bytes int, err error) {
	o.observeCheckpoint("write", d, err)
	if err == nil {
		o.checkpointBytes.Set(float64(bytes))
	}
}

func (o *PrometheusObserver) OnRestore(d time.Duration, _ int, err error) {
	o.observeCheckpoint("restore", d, err)
}

func (o *PrometheusObserver) observeCheckpoint(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		o.checkpointErrors.WithLabelValues(op).Inc()
	}
	o.checkpointTime.WithLabelValues(op, status).Observe(d.Seconds())
}
