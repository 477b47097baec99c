package kdgo

import (
	"log/slog"

	"github.com/hupe1980/kdgo/codec"
	"github.com/hupe1980/kdgo/kdtree"
	"github.com/hupe1980/kdgo/persistence"
	"github.com/hupe1980/kdgo/resource"
)

type options struct {
	codec             codec.Codec
	compression       persistence.CompressionType
	metricsCollector  MetricsCollector
	logger            *Logger
	workers           int
	parallelThreshold int
	controller        *resource.Controller
}

// Option configures Build, Open and OpenCurrent.
type Option func(*options)

// WithCodec configures the payload codec for snapshots written by Save.
// Snapshots are always read with the codec named in their header.
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

// WithCompression configures block compression for snapshots written by Save.
func WithCompression(c persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithWorkers bounds the extra goroutines used to partition large inputs.
// Zero uses GOMAXPROCS-1. Ignored when a resource controller is set.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallelThreshold sets the smallest range partitioned on its own
// goroutine. Values <= 0 build sequentially.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.parallelThreshold = n
	}
}

// WithResourceController shares memory, worker and IO limits with other
// indexes. The controller's background slots bound build parallelism, its
// memory budget is charged for coordinate arenas and its IO rate throttles
// snapshot transfers.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kdgo.BasicMetricsCollector{}
//	idx, _ := kdgo.Build(ctx, entries, 3, kdgo.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:             codec.Default,
		compression:       persistence.CompressionZSTD,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		parallelThreshold: kdtree.DefaultParallelThreshold,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o *options) buildOptions(bo *kdtree.BuildOptions) {
	bo.ParallelThreshold = o.parallelThreshold
	bo.Workers = o.workers
	if o.controller != nil {
		bo.Limiter = o.controller
	}
}
