// Package redis builds the redis handle injected into the persistent backend.
// A single address yields a plain client, several addresses a cluster client and a
// master name a sentinel-backed failover client, as decided by redis.NewUniversalClient.
package redis

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option is a function type that can be used to configure the redis handle.
type Option func(*redis.UniversalOptions)

// ApplyOptions applies the given options to opt.
func ApplyOptions(opt *redis.UniversalOptions, options ...Option) {
	for _, option := range options {
		option(opt)
	}
}

// WithAddrs sets the seed addresses. More than one address selects cluster mode.
func WithAddrs(addrs ...string) Option {
	return func(opt *redis.UniversalOptions) {
		opt.Addrs = addrs
	}
}

// WithMasterName selects failover mode through the sentinels listed in the addresses.
func WithMasterName(name string) Option {
	return func(opt *redis.UniversalOptions) {
		opt.MasterName = name
	}
}

// WithUsername sets the ACL username.
func WithUsername(username string) Option {
	return func(opt *redis.UniversalOptions) {
		opt.Username = username
	}
}

// WithPassword sets the password.
func WithPassword(password string) Option {
	return func(opt *redis.UniversalOptions) {
		opt.Password = password
	}
}

// WithDB selects the database. Ignored in cluster mode.
func WithDB(db int) Option {
	return func(opt *redis.UniversalOptions) {
		opt.DB = db
	}
}

// WithMaxRetries sets the maximum number of retries before giving up.
func WithMaxRetries(maxRetries int) Option {
	return func(opt *redis.UniversalOptions) {
		opt.MaxRetries = maxRetries
	}
}

// WithDialTimeout sets the dial timeout.
func WithDialTimeout(dialTimeout time.Duration) Option {
	return func(opt *redis.UniversalOptions) {
		opt.DialTimeout = dialTimeout
	}
}

// WithReadTimeout sets the socket read timeout.
func WithReadTimeout(readTimeout time.Duration) Option {
	return func(opt *redis.UniversalOptions) {
		opt.ReadTimeout = readTimeout
	}
}

// WithWriteTimeout sets the socket write timeout.
func WithWriteTimeout(writeTimeout time.Duration) Option {
	return func(opt *redis.UniversalOptions) {
		opt.WriteTimeout = writeTimeout
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(poolSize int) Option {
	return func(opt *redis.UniversalOptions) {
		opt.PoolSize = poolSize
	}
}

// WithTLSConfig enables TLS with the given configuration.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(opt *redis.UniversalOptions) {
		opt.TLSConfig = tlsConfig
	}
}
