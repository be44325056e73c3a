package backend

import (
	"context"
	"sync"

	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/cache"
)

// InMemory is a volatile backend storing the items in a sharded concurrent map.
type InMemory struct {
	mu sync.Mutex // serializes inserts so the capacity check and the write are atomic

	items    cache.ConcurrentMap // map to store the items in the cache
	capacity int                 // maximum number of items, 0 means unlimited
}

// NewInMemory creates a new in-memory backend with the given options.
func NewInMemory(opts ...Option[InMemory]) (*InMemory, error) {
	backendInstance := &InMemory{
		items: cache.NewConcurrentMap(),
	}

	ApplyOptions(backendInstance, opts...)

	if backendInstance.capacity < 0 {
		return nil, sentinel.ErrInvalidCapacity
	}

	return backendInstance, nil
}

// Capacity returns the maximum number of items the backend accepts, 0 if unlimited.
func (cacheBackend *InMemory) Capacity() int {
	return cacheBackend.capacity
}

// Get retrieves the item stored under key.
func (cacheBackend *InMemory) Get(_ context.Context, key string) (*cache.Item, bool) {
	return cacheBackend.items.Get(key)
}

// Set stores the item. New keys are refused with sentinel.ErrCacheFull once the
// capacity is reached; replacing an existing key always succeeds.
func (cacheBackend *InMemory) Set(_ context.Context, item *cache.Item) error {
	err := item.Valid()
	if err != nil {
		return err
	}

	cacheBackend.mu.Lock()
	defer cacheBackend.mu.Unlock()

	if cacheBackend.capacity > 0 &&
		!cacheBackend.items.Has(item.Key) &&
		cacheBackend.items.Count() >= cacheBackend.capacity {
		return sentinel.ErrCacheFull
	}

	cacheBackend.items.Set(item.Key, item)

	return nil
}

// Remove deletes the item stored under key and returns it.
func (cacheBackend *InMemory) Remove(_ context.Context, key string) (*cache.Item, bool) {
	return cacheBackend.items.Pop(key)
}

// Keys returns the stored keys in no particular order.
func (cacheBackend *InMemory) Keys(_ context.Context) []string {
	return cacheBackend.items.Keys()
}

// Size returns the number of stored items.
func (cacheBackend *InMemory) Size(_ context.Context) int {
	return cacheBackend.items.Count()
}
