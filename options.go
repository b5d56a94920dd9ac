package plsom

import (
	"log/slog"

	"github.com/hupe1980/plsom/codec"
	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/resource"
	"github.com/hupe1980/plsom/som"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	parallelism      int
	codec            codec.Codec
	compression      persistence.Compression
	compressionSet   bool

	checkpointInterval uint64
	checkpointKeep     int
	checkpointAsync    bool
	resources          *resource.Controller
}

func defaultOptions() options {
	return options{
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
		codec:              codec.Default,
		checkpointInterval: 1000,
		checkpointKeep:     3,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures New, Load, Save and NewCheckpointer.
type Option func(*options)

// WithLogger configures structured logging for construction, persistence and
// the maps themselves. Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := plsom.NewJSONLogger(slog.LevelInfo)
//	m, _ := plsom.Load(ctx, store, "run/final.psom", plsom.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel replaces the logger with a text logger at level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for map and checkpoint
// events. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &plsom.BasicMetricsCollector{}
//	m, _ := plsom.PLSOM2(2, 10, 10).Metrics(metrics).Build()
//	// ... train ...
//	stats := metrics.GetStats()
//	fmt.Printf("Steps: %d, eps: %.3f\n", stats.TrainCount, stats.Epsilon)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithParallelism sets the number of goroutines used for winner search and
// weight updates. Values below 2 keep the maps single-threaded.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithCodec configures the codec used for snapshot headers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the snapshot payload compression.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
		o.compressionSet = true
	}
}

// WithCheckpointInterval sets the number of training steps between periodic
// checkpoints. 0 disables them.
func WithCheckpointInterval(steps uint64) Option {
	return func(o *options) {
		o.checkpointInterval = steps
	}
}

// WithCheckpointKeep sets how many checkpoints are retained. 0 keeps all.
func WithCheckpointKeep(n int) Option {
	return func(o *options) {
		o.checkpointKeep = n
	}
}

// WithAsyncCheckpoints uploads checkpoints on background workers.
func WithAsyncCheckpoints(async bool) Option {
	return func(o *options) {
		o.checkpointAsync = async
	}
}

// WithResourceController bounds checkpoint workers, buffered bytes and upload
// rate.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func (o options) mapOptions() []som.Option {
	opts := []som.Option{
		som.WithLogger(o.logger.Logger),
		som.WithMetricsObserver(collectorObserver{mc: o.metricsCollector}),
	}
	if o.parallelism > 0 {
		opts = append(opts, som.WithParallelism(o.parallelism))
	}
	return opts
}

func (o options) snapshotOptions() []persistence.Option {
	opts := []persistence.Option{persistence.WithCodec(o.codec)}
	if o.compressionSet {
		opts = append(opts, persistence.WithCompression(o.compression))
	}
	return opts
}

func (o options) checkpointOptions() []persistence.CheckpointOption {
	return []persistence.CheckpointOption{
		persistence.WithInterval(o.checkpointInterval),
		persistence.WithKeep(o.checkpointKeep),
		persistence.WithAsync(o.checkpointAsync),
		persistence.WithResourceController(o.resources),
		persistence.WithCheckpointLogger(o.logger.Logger),
		persistence.WithMetricsObserver(collectorObserver{mc: o.metricsCollector}),
		persistence.WithSnapshotOptions(o.snapshotOptions()...),
	}
}
