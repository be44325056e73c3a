// Package purgecache is an in-process object cache with expiration, priorities and
// capacity-triggered purges over a pluggable storage backend.
//
// The engine behaves as a single logical thread of control: public operations are
// serialized, and the work they defer (purges after an insert, removal callbacks) runs
// in order on one worker. A deferred purge always completes before the next operation
// is processed.
package purgecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/sirupsen/logrus"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/introspect"
	"github.com/hyp3rd/purgecache/internal/queue"
	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/backend"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// Cache is the cache engine. It owns exactly one storage backend.
type Cache struct {
	mu sync.Mutex // serializes every engine operation and deferred purge

	storage        backend.IBackend
	toucher        backend.Toucher // non-nil when the backend stores copies of the items
	statsCollector *stats.Collector
	deferred       *queue.Queue

	maxSize    int
	fillFactor float64
	debug      bool
	logger     logrus.FieldLogger
	now        func() time.Time

	// callbacks holds the removal callbacks by key. Backends storing copies of the
	// items cannot keep functions, so the engine tracks them for every backend.
	callbacks    map[string]cache.RemovalCallback
	allocation   atomic.Int64
	purgePending bool

	mgmtAddr string
	mgmtOpts []ManagementHTTPOption
	mgmtHTTP *ManagementHTTPServer

	stopOnce sync.Once
}

// New creates a cache engine over storage. The context bounds the start of the
// optional management HTTP server.
func New(ctx context.Context, storage backend.IBackend, opts ...Option) (*Cache, error) {
	if storage == nil {
		return nil, sentinel.ErrBackendNotFound
	}

	c := &Cache{
		storage:        storage,
		statsCollector: stats.NewCollector(),
		fillFactor:     constants.DefaultFillFactor,
		now:            time.Now,
		callbacks:      make(map[string]cache.RemovalCallback),
	}

	ApplyOptions(c, opts...)

	if c.fillFactor <= 0 || c.fillFactor > 1 {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidFillFactor, "got %v", c.fillFactor)
	}

	if c.logger == nil {
		logger := logrus.New()
		if c.debug {
			logger.SetLevel(logrus.DebugLevel)
		}

		c.logger = logger
	}

	if toucher, ok := storage.(backend.Toucher); ok {
		c.toucher = toucher
	}

	c.deferred = queue.New(func(recovered any) {
		c.logger.WithField("panic", recovered).Error("removal callback panicked")
	})

	c.trace("cache initialized", logrus.Fields{
		"backend":    introspect.BackendName(storage),
		"maxSize":    c.maxSize,
		"fillFactor": c.fillFactor,
	})

	if c.mgmtAddr != "" {
		c.mgmtHTTP = NewManagementHTTPServer(c.mgmtAddr, c.mgmtOpts...)

		err := c.mgmtHTTP.Start(ctx, c)
		if err != nil {
			_ = c.deferred.Shutdown(ctx)

			return nil, err
		}
	}

	return c, nil
}

// GetItem returns the value stored under key. Expired items are removed and reported
// as absent. Every call records exactly one hit or one miss.
func (c *Cache) GetItem(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	item, ok := c.read(ctx, key)
	if !ok {
		return nil, false
	}

	return item.Value, true
}

// GetWithInfo is GetItem returning a copy of the whole item record.
func (c *Cache) GetWithInfo(ctx context.Context, key string) (*cache.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	item, ok := c.read(ctx, key)
	if !ok {
		return nil, false
	}

	return item.Clone(), true
}

// SetItem stores value under key, replacing (and firing the callback of) any item
// already stored there. A failed insertion is retried once after a purge. When the
// item count exceeds the maximum size, a purge is scheduled to run after the call.
func (c *Cache) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	item, err := cache.NewItem(key, value, c.now(), opts...)
	if err != nil {
		return err
	}

	err = item.SetSize()
	if err != nil {
		c.trace("value size unknown", logrus.Fields{"key": key, "error": err})
	}

	c.remove(ctx, key)

	err = c.insert(ctx, item)
	if err != nil {
		return err
	}

	c.allocation.Add(item.Size)

	if item.Options.Callback != nil {
		c.callbacks[key] = item.Options.Callback
	}

	c.trace("set", logrus.Fields{"key": key, "priority": item.Options.Priority.String()})

	if c.maxSize > 0 && c.storage.Size(ctx) > c.maxSize {
		c.schedulePurge()
	}

	return nil
}

// RemoveItem removes the item stored under key, expired or not, and returns its value.
// The removal callback of the item is scheduled, not awaited.
func (c *Cache) RemoveItem(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	item, ok := c.remove(ctx, key)
	if !ok {
		return nil, false
	}

	return item.Value, true
}

// Clear removes every item one at a time, so every removal callback fires.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	for _, key := range c.storage.Keys(ctx) {
		if ctx.Err() != nil {
			return sentinel.ErrTimeoutOrCanceled
		}

		c.remove(ctx, key)
	}

	c.trace("cleared", nil)

	return nil
}

// Purge runs a purge pass now: expired items are removed, then live items are evicted
// by priority and recency down to the purge size.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgePending = false

	return c.purge(ctx)
}

// GetStats returns a snapshot of the cache statistics.
func (c *Cache) GetStats() stats.Stats {
	return c.statsCollector.GetStats()
}

// Count returns the number of items held by the backend.
func (c *Cache) Count(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runPendingPurge(ctx)

	return c.storage.Size(ctx)
}

// Allocation returns the encoded size in bytes of the items inserted through this
// cache and not removed yet.
func (c *Cache) Allocation() int64 {
	return max(c.allocation.Load(), 0)
}

// MaxSize returns the maximum number of items before a purge is scheduled, 0 if unlimited.
func (c *Cache) MaxSize() int { return c.maxSize }

// FillFactor returns the fraction of the maximum size retained by a purge.
func (c *Cache) FillFactor() float64 { return c.fillFactor }

// Debug reports whether diagnostic tracing is enabled.
func (c *Cache) Debug() bool { return c.debug }

// ManagementHTTPAddress returns the bound address of the management server, if running.
func (c *Cache) ManagementHTTPAddress() string {
	if c.mgmtHTTP == nil {
		return ""
	}

	return c.mgmtHTTP.Address()
}

// Sync waits until the deferred work scheduled so far has run. Called from a removal
// callback, it cannot complete and returns ErrTimeoutOrCanceled once ctx is done, so
// callbacks must pass a context with a deadline.
func (c *Cache) Sync(ctx context.Context) error {
	return c.deferred.Sync(ctx)
}

// Stop drains the deferred work and stops the worker and the management server.
// Must not be called from a removal callback.
func (c *Cache) Stop(ctx context.Context) error {
	var err error

	c.stopOnce.Do(func() {
		if c.mgmtHTTP != nil {
			err = c.mgmtHTTP.Shutdown(ctx)
		}

		err = errors.Join(err, c.deferred.Shutdown(ctx))

		c.trace("cache stopped", nil)
	})

	return err
}

// read implements the lookup, expiration and accounting of a read. Callers hold c.mu.
func (c *Cache) read(ctx context.Context, key string) (*cache.Item, bool) {
	item, ok := c.storage.Get(ctx, key)
	if !ok {
		c.statsCollector.IncrementMisses()
		c.trace("miss", logrus.Fields{"key": key})

		return nil, false
	}

	now := c.now()

	if item.Expired(now) {
		c.remove(ctx, key)
		c.statsCollector.IncrementExpirations()
		c.statsCollector.IncrementMisses()
		c.trace("miss (expired)", logrus.Fields{"key": key})

		return nil, false
	}

	item.Touch(now)

	if c.toucher != nil {
		err := c.toucher.Touch(ctx, item)
		if err != nil {
			c.trace("access time not persisted", logrus.Fields{"key": key, "error": err})
		}
	}

	c.statsCollector.IncrementHits()
	c.trace("hit", logrus.Fields{"key": key})

	return item, true
}

// insert stores item, purging and retrying once on failure. Callers hold c.mu.
func (c *Cache) insert(ctx context.Context, item *cache.Item) error {
	err := c.storage.Set(ctx, item)
	if err == nil {
		return nil
	}

	c.trace("insert failed, purging before retry", logrus.Fields{"key": item.Key, "error": err})
	c.statsCollector.IncrementInsertRetries()

	purgeErr := c.purge(ctx)
	if purgeErr != nil {
		c.trace("purge before retry interrupted", logrus.Fields{"error": purgeErr})
	}

	err = c.storage.Set(ctx, item)
	if err != nil {
		return ewrap.Wrap(errors.Join(sentinel.ErrInsertFailed, err), "inserting "+item.Key)
	}

	return nil
}

// remove deletes key from the backend and schedules its removal callback. Callers hold c.mu.
func (c *Cache) remove(ctx context.Context, key string) (*cache.Item, bool) {
	item, ok := c.storage.Remove(ctx, key)
	if !ok {
		return nil, false
	}

	c.allocation.Add(-item.Size)

	callback := c.callbacks[key]
	delete(c.callbacks, key)

	if callback == nil {
		callback = item.Options.Callback
	}

	c.trace("removed", logrus.Fields{"key": key})

	if callback != nil {
		value := item.Value

		err := c.deferred.Enqueue(func() { callback(key, value) })
		if err != nil {
			c.trace("removal callback dropped", logrus.Fields{"key": key, "error": err})
		}
	}

	return item, true
}

// schedulePurge defers a purge to the worker. Callers hold c.mu.
func (c *Cache) schedulePurge() {
	if c.purgePending {
		return
	}

	c.purgePending = true

	err := c.deferred.Enqueue(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.runPendingPurge(context.Background())
	})
	if err != nil {
		c.trace("purge deferred to the next operation", logrus.Fields{"error": err})
	}

	c.trace("purge scheduled", nil)
}

// runPendingPurge runs a scheduled purge that has not run yet. Callers hold c.mu.
func (c *Cache) runPendingPurge(ctx context.Context) {
	if !c.purgePending {
		return
	}

	c.purgePending = false

	err := c.purge(context.WithoutCancel(ctx))
	if err != nil {
		c.trace("scheduled purge failed", logrus.Fields{"error": err})
	}
}

// trace emits a diagnostic entry when debugging is enabled.
func (c *Cache) trace(msg string, fields logrus.Fields) {
	if !c.debug {
		return
	}

	c.logger.WithFields(fields).Debug(msg)
}
