package segreduce

import (
	"log/slog"

	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/internal/segment"
	"github.com/hupe1980/segreduce/policy"
)

// OffsetWidth is the integer width used to index input elements.
type OffsetWidth = segment.Width

const (
	// NarrowOffsets index up to math.MaxUint32 elements.
	NarrowOffsets = segment.Narrow
	// WideOffsets index up to math.MaxInt64 elements.
	WideOffsets = segment.Wide
)

// SizeThresholds separates the size classes. A segment of exactly Small
// elements is Small; of exactly Medium elements, Medium.
type SizeThresholds struct {
	Small  int64
	Medium int64
}

type options struct {
	backend          device.Backend
	chain            *policy.Chain
	arch             policy.Arch
	thresholds       *SizeThresholds
	maxElements      int64
	maxWidth         OffsetWidth
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Reducer.
type Option func(*options)

// WithBackend configures the execution backend.
//
// If nil is passed, a CPU backend with default settings is used.
func WithBackend(b device.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithCatalog replaces the built-in policy catalog.
//
// If nil is passed, policy.Default is used.
func WithCatalog(c *policy.Chain) Option {
	return func(o *options) {
		o.chain = c
	}
}

// WithArch resolves policies for arch instead of the backend's generation.
func WithArch(arch policy.Arch) Option {
	return func(o *options) {
		o.arch = arch
	}
}

// WithSizeThresholds overrides the size class thresholds derived from the
// resolved policy tiles.
func WithSizeThresholds(small, medium int64) Option {
	return func(o *options) {
		o.thresholds = &SizeThresholds{Small: small, Medium: medium}
	}
}

// WithMaxElements rejects requests with more than n input elements with
// ErrProblemTooLarge. If n <= 0, only the offset width limits the input.
func WithMaxElements(n int64) Option {
	return func(o *options) {
		o.maxElements = n
	}
}

// WithMaxOffsetWidth caps the offset width. Inputs the cap cannot index
// fail with an OverflowError.
func WithMaxOffsetWidth(w OffsetWidth) Option {
	return func(o *options) {
		o.maxWidth = w
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &segreduce.BasicMetricsCollector{}
//	r, _ := segreduce.New[float32](segreduce.WithMetricsCollector(metrics))
//	// ... dispatch ...
//	stats := metrics.GetStats()
//	fmt.Printf("Dispatches: %d, Avg latency: %dns\n", stats.DispatchCount, stats.DispatchAvgNanos)
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
//
// Example with JSON logging:
//
//	logger := segreduce.NewJSONLogger(slog.LevelDebug)
//	r, _ := segreduce.New[int64](segreduce.WithLogger(logger))
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
	return WithLogger(NewTextLogger(level))
}

func applyOptions(optFns []Option) options {
	o := options{
		maxWidth:         WideOffsets,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.backend == nil {
		o.backend = device.NewCPU(device.CPUConfig{})
	}
	if o.chain == nil {
		o.chain = policy.Default()
	}
	if o.arch == 0 {
		o.arch = o.backend.Arch()
	}
	return o
}
