// Package backend defines the storage contract the cache engine is built on and
// its two implementations: a volatile in-memory map and a Redis-backed persistent map.
//
// A backend is a plain key-value container of *cache.Item records. It knows nothing
// about expiration, statistics or eviction: those belong to the engine, which owns
// exactly one backend instance.
package backend

import (
	"context"

	"github.com/hyp3rd/purgecache/pkg/cache"
)

// IBackend is the storage contract consumed by the cache engine.
//
// Read paths report backend failures as absence; Set reports them as errors so the
// engine can apply its purge-and-retry policy.
type IBackend interface {
	// Get retrieves the item stored under key.
	Get(ctx context.Context, key string) (*cache.Item, bool)
	// Set stores the item under item.Key, replacing any previous record.
	Set(ctx context.Context, item *cache.Item) error
	// Remove deletes the item stored under key and returns it.
	Remove(ctx context.Context, key string) (*cache.Item, bool)
	// Keys returns the stored keys in no particular order.
	Keys(ctx context.Context) []string
	// Size returns the number of stored items.
	Size(ctx context.Context) int
}

// Toucher is implemented by backends that hold copies of the items instead of the
// items themselves. The engine calls Touch after a hit so the updated access
// metadata is persisted.
type Toucher interface {
	Touch(ctx context.Context, item *cache.Item) error
}

// IBackendConstrain restricts the generic backend options to the shipped backends.
type IBackendConstrain interface {
	InMemory | Redis
}
