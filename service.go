package purgecache

import (
	"context"

	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// Service is the service interface for the Cache.
// It enables middleware to be added to the service.
type Service interface {
	crud
	// Count returns the number of items in the cache
	Count(ctx context.Context) int
	// Allocation returns the allocation in bytes of the current cache
	Allocation() int64
	// Purge runs a purge pass of the cache
	Purge(ctx context.Context) error
	// GetStats returns the stats of the cache
	GetStats() stats.Stats
	// Stop drains the deferred work and stops the cache
	Stop(ctx context.Context) error
}

type crud interface {
	// GetItem retrieves a value from the cache using the key
	GetItem(ctx context.Context, key string) (value any, ok bool)
	// GetWithInfo fetches from the cache using the key, and returns a copy of the `cache.Item`
	GetWithInfo(ctx context.Context, key string) (*cache.Item, bool)
	// SetItem stores a value in the cache using the key and the item options
	SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error
	// RemoveItem removes the value stored under the key and returns it
	RemoveItem(ctx context.Context, key string) (value any, ok bool)
	// Clear removes all values from the cache
	Clear(ctx context.Context) error
}

// Middleware describes a service middleware.
type Middleware func(Service) Service

// ApplyMiddleware applies middlewares to a service.
func ApplyMiddleware(svc Service, mw ...Middleware) Service {
	// Apply each middleware in the chain
	for _, m := range mw {
		svc = m(svc)
	}
	// Return the decorated service
	return svc
}
