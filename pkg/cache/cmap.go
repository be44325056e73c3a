// Package cache provides the item model of purgecache and the sharded map the
// in-memory backend stores items in.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ShardCount is the number of shards of a ConcurrentMap. It must be a power of two.
const ShardCount = 32

// ConcurrentMap is a "thread" safe map of string keys to *Item.
// To avoid lock bottlenecks the map is divided into ShardCount shards.
type ConcurrentMap struct {
	shards []*ConcurrentMapShard
}

// ConcurrentMapShard is one lock-protected partition of a ConcurrentMap.
type ConcurrentMapShard struct {
	sync.RWMutex

	items map[string]*Item
}

// NewConcurrentMap creates an empty map.
func NewConcurrentMap() ConcurrentMap {
	shards := make([]*ConcurrentMapShard, ShardCount)
	for i := range ShardCount {
		shards[i] = &ConcurrentMapShard{items: make(map[string]*Item)}
	}

	return ConcurrentMap{shards: shards}
}

// shardIndex maps a key to its shard.
func shardIndex(key string) uint64 {
	return xxhash.Sum64String(key) & (ShardCount - 1)
}

// GetShard returns the shard holding key.
func (cm ConcurrentMap) GetShard(key string) *ConcurrentMapShard {
	return cm.shards[shardIndex(key)]
}

// Set stores item under key.
func (cm ConcurrentMap) Set(key string, item *Item) {
	shard := cm.GetShard(key)
	shard.Lock()

	shard.items[key] = item
	shard.Unlock()
}

// Get returns the item stored under key.
func (cm ConcurrentMap) Get(key string) (*Item, bool) {
	shard := cm.GetShard(key)
	shard.RLock()

	item, ok := shard.items[key]
	shard.RUnlock()

	return item, ok
}

// Has reports whether key is present.
func (cm ConcurrentMap) Has(key string) bool {
	_, ok := cm.Get(key)

	return ok
}

// Pop removes key and returns the item it held.
func (cm ConcurrentMap) Pop(key string) (*Item, bool) {
	shard := cm.GetShard(key)
	shard.Lock()
	defer shard.Unlock()

	item, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}

	return item, ok
}

// Keys returns a snapshot of the keys, in no particular order.
func (cm ConcurrentMap) Keys() []string {
	keys := make([]string, 0, cm.Count())

	for _, shard := range cm.shards {
		shard.RLock()

		for key := range shard.items {
			keys = append(keys, key)
		}

		shard.RUnlock()
	}

	return keys
}

// Count returns the number of items in the map.
func (cm ConcurrentMap) Count() int {
	count := 0

	for _, shard := range cm.shards {
		shard.RLock()

		count += len(shard.items)
		shard.RUnlock()
	}

	return count
}

// Clear removes all items.
func (cm ConcurrentMap) Clear() {
	for _, shard := range cm.shards {
		shard.Lock()

		shard.items = make(map[string]*Item)
		shard.Unlock()
	}
}
