package purgecache

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/pkg/backend"
)

// Config is a struct that wraps all the configuration options to setup `Cache` and its backend.
type Config struct {
	// BackendType is the name of the backend registered in the `BackendManager`.
	BackendType string
	// InMemoryOptions is a slice of options that can be used to configure the `InMemory`.
	InMemoryOptions []backend.Option[backend.InMemory]
	// RedisOptions is a slice of options that can be used to configure the `Redis`.
	RedisOptions []backend.Option[backend.Redis]
	// CacheOptions is a slice of options that can be used to configure `Cache`.
	CacheOptions []Option
}

// NewConfig returns a new `Config` for the given backend type with no options set.
// An empty backend type selects the in-memory backend.
func NewConfig(backendType string) *Config {
	if backendType == "" {
		backendType = constants.InMemoryBackend
	}

	return &Config{
		BackendType:     backendType,
		InMemoryOptions: []backend.Option[backend.InMemory]{},
		RedisOptions:    []backend.Option[backend.Redis]{},
		CacheOptions:    []Option{},
	}
}

// Option is a function type that can be used to configure the `Cache` struct.
type Option func(*Cache)

// ApplyOptions applies the given options to the given cache.
func ApplyOptions(cache *Cache, options ...Option) {
	for _, option := range options {
		option(cache)
	}
}

// WithMaxSize is an option that sets the maximum number of items of the cache.
// When an insertion leaves more items than this, a purge is scheduled.
// Zero or a negative value means unlimited.
func WithMaxSize(maxSize int) Option {
	return func(cache *Cache) {
		// If the max size is less than 0, set it to 0.
		if maxSize < 0 {
			maxSize = 0
		}

		cache.maxSize = maxSize
	}
}

// WithFillFactor is an option that sets the fraction of the maximum size kept by a purge.
func WithFillFactor(fillFactor float64) Option {
	return func(cache *Cache) {
		cache.fillFactor = fillFactor
	}
}

// WithDebug is an option that enables the diagnostic trace of the cache operations.
func WithDebug(debug bool) Option {
	return func(cache *Cache) {
		cache.debug = debug
	}
}

// WithLogger is an option that sets the logger used for the diagnostic trace and
// for reporting failed removal callbacks.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cache *Cache) {
		cache.logger = logger
	}
}

// WithTimeSource is an option that replaces the clock used for expiration and access times.
func WithTimeSource(now func() time.Time) Option {
	return func(cache *Cache) {
		if now != nil {
			cache.now = now
		}
	}
}

// WithManagementHTTP enables the optional management HTTP server on addr.
func WithManagementHTTP(addr string, opts ...ManagementHTTPOption) Option {
	return func(cache *Cache) {
		cache.mgmtAddr = addr
		cache.mgmtOpts = opts
	}
}
