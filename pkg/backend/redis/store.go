package redis

import (
	"context"
	"strings"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/purgecache/internal/constants"
)

// Store owns a redis handle built from options.
type Store struct {
	Client redis.UniversalClient
}

// New builds a redis handle with the package defaults overridden by opts.
func New(opts ...Option) (*Store, error) {
	opt := &redis.UniversalOptions{
		MaxRetries:   constants.RedisClientMaxRetries,
		DialTimeout:  constants.RedisDialTimeout,
		ReadTimeout:  constants.RedisClientReadTimeout,
		WriteTimeout: constants.RedisClientWriteTimeout,
		PoolSize:     constants.RedisClientPoolSize,
		MinIdleConns: constants.RedisClientMinIdleConns,
		PoolTimeout:  constants.RedisClientPoolTimeout,
	}

	ApplyOptions(opt, opts...)

	addrs := opt.Addrs[:0]
	for _, addr := range opt.Addrs {
		if strings.TrimSpace(addr) != "" {
			addrs = append(addrs, addr)
		}
	}

	if len(addrs) == 0 {
		return nil, ewrap.New("redis address is empty")
	}

	opt.Addrs = addrs

	return &Store{Client: redis.NewUniversalClient(opt)}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	err := s.Client.Ping(ctx).Err()
	if err != nil {
		return ewrap.Wrap(err, "pinging redis")
	}

	return nil
}

// Close releases the handle.
func (s *Store) Close() error {
	return s.Client.Close()
}
