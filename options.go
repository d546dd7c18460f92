package vecmem

import (
	"runtime"
	"time"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	dimension        int
	ownerKey         string
	typeKey          string
	pointCacheSize   int
	queryCacheSize   int
	cacheTTL         time.Duration
	ioWorkers        int
	computeWorkers   int
}

// Option configures Store construction.
//
// Caches, worker pools, logger and metrics are constructed explicitly per
// store instance; there is no process-global state, so multiple isolated
// stores can coexist in one process (and tests can inject doubles).
type Option func(*options)

// WithDimension enforces a fixed embedding dimensionality for all inserts,
// updates and queries. By default the store is permissive and records of
// different dimensionality may coexist.
func WithDimension(dimension int) Option {
	return func(o *options) {
		o.dimension = dimension
	}
}

// WithOwnerKey sets the properties key under which records are partitioned
// per owner/user. Defaults to "user_id".
func WithOwnerKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.ownerKey = key
		}
	}
}

// WithTypeKey sets the properties key used by GetMemoryTypeDistribution.
// Defaults to "memory_type".
func WithTypeKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.typeKey = key
		}
	}
}

// WithPointCacheSize bounds the number of entries in the point (by-id) cache.
// Defaults to 1024. A size <= 0 disables the tier.
func WithPointCacheSize(size int) Option {
	return func(o *options) {
		o.pointCacheSize = size
	}
}

// WithQueryCacheSize bounds the number of entries in the query-result cache.
// Defaults to 256. A size <= 0 disables the tier.
func WithQueryCacheSize(size int) Option {
	return func(o *options) {
		o.queryCacheSize = size
	}
}

// WithCacheTTL sets the per-entry time-to-live for both cache tiers.
// Defaults to 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithIOWorkers sizes the pool serving point operations (get, insert,
// update, delete). These are cheap and latency-sensitive, so the default is
// 2x GOMAXPROCS.
func WithIOWorkers(n int) Option {
	return func(o *options) {
		o.ioWorkers = n
	}
}

// WithComputeWorkers sizes the pool serving CPU-bound work (search, batch
// scoring). Defaults to GOMAXPROCS.
func WithComputeWorkers(n int) Option {
	return func(o *options) {
		o.computeWorkers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
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

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		ownerKey:         "user_id",
		typeKey:          "memory_type",
		pointCacheSize:   1024,
		queryCacheSize:   256,
		cacheTTL:         5 * time.Minute,
		ioWorkers:        2 * runtime.GOMAXPROCS(0),
		computeWorkers:   runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
