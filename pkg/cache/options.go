package cache

import "time"

// RemovalCallback is invoked with the key and value of an item after it left the cache.
type RemovalCallback func(key string, value any)

// Options holds the per-item configuration.
type Options struct {
	// ExpirationAbsolute expires the item once the current time is past it. Zero means unset.
	ExpirationAbsolute time.Time
	// ExpirationSliding expires the item when it was not read for longer than this. Zero means unset.
	ExpirationSliding time.Duration
	// Priority ranks the item for purge eviction. Zero means PriorityNormal.
	Priority Priority
	// Callback, when set, runs asynchronously after the item is removed for any reason.
	Callback RemovalCallback

	expiresIn time.Duration // resolved against the creation time by NewItem
}

// Option configures the Options of an item.
type Option func(*Options)

// ApplyOptions applies the given options to o.
func ApplyOptions(o *Options, opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithAbsoluteExpiration expires the item at the given instant.
func WithAbsoluteExpiration(at time.Time) Option {
	return func(o *Options) {
		o.ExpirationAbsolute = at
	}
}

// WithExpiresIn expires the item d after its creation. It is ignored when an
// absolute expiration is also given.
func WithExpiresIn(d time.Duration) Option {
	return func(o *Options) {
		o.expiresIn = d
	}
}

// WithSlidingExpiration expires the item when it was not read for longer than d.
func WithSlidingExpiration(d time.Duration) Option {
	return func(o *Options) {
		o.ExpirationSliding = d
	}
}

// WithPriority sets the eviction priority of the item.
func WithPriority(p Priority) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithCallback sets the function invoked after the item is removed.
func WithCallback(fn RemovalCallback) Option {
	return func(o *Options) {
		o.Callback = fn
	}
}
