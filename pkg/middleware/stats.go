package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// StatsCollectorMiddleware is a middleware that collects call counts and durations.
// Must implement the purgecache.Service interface.
type StatsCollectorMiddleware struct {
	next           purgecache.Service
	statsCollector stats.ICollector
}

// NewStatsCollectorMiddleware returns a new StatsCollectorMiddleware.
func NewStatsCollectorMiddleware(next purgecache.Service, statsCollector stats.ICollector) purgecache.Service {
	return &StatsCollectorMiddleware{next: next, statsCollector: statsCollector}
}

// GetItem collects stats for the GetItem method.
func (mw StatsCollectorMiddleware) GetItem(ctx context.Context, key string) (any, bool) {
	defer mw.collect("get_item", time.Now())

	return mw.next.GetItem(ctx, key)
}

// GetWithInfo collects stats for the GetWithInfo method.
func (mw StatsCollectorMiddleware) GetWithInfo(ctx context.Context, key string) (*cache.Item, bool) {
	defer mw.collect("get_with_info", time.Now())

	return mw.next.GetWithInfo(ctx, key)
}

// SetItem collects stats for the SetItem method.
func (mw StatsCollectorMiddleware) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error {
	defer mw.collect("set_item", time.Now())

	return mw.next.SetItem(ctx, key, value, opts...)
}

// RemoveItem collects stats for the RemoveItem method.
func (mw StatsCollectorMiddleware) RemoveItem(ctx context.Context, key string) (any, bool) {
	defer mw.collect("remove_item", time.Now())

	return mw.next.RemoveItem(ctx, key)
}

// Clear collects stats for the Clear method.
func (mw StatsCollectorMiddleware) Clear(ctx context.Context) error {
	defer mw.collect("clear", time.Now())

	return mw.next.Clear(ctx)
}

// Purge collects stats for the Purge method.
func (mw StatsCollectorMiddleware) Purge(ctx context.Context) error {
	defer mw.collect("purge", time.Now())

	return mw.next.Purge(ctx)
}

// Count returns the count of the items in the cache.
func (mw StatsCollectorMiddleware) Count(ctx context.Context) int {
	return mw.next.Count(ctx)
}

// Allocation returns the size allocation in bytes cache.
func (mw StatsCollectorMiddleware) Allocation() int64 {
	return mw.next.Allocation()
}

// GetStats returns the stats of the cache.
func (mw StatsCollectorMiddleware) GetStats() stats.Stats {
	return mw.next.GetStats()
}

// Stop collects the stats for Stop methods and stops the cache.
func (mw StatsCollectorMiddleware) Stop(ctx context.Context) error {
	defer mw.collect("stop", time.Now())

	return mw.next.Stop(ctx)
}

func (mw StatsCollectorMiddleware) collect(method string, start time.Time) {
	mw.statsCollector.Timing("purgecache_"+method+"_duration", time.Since(start).Nanoseconds())
	mw.statsCollector.Incr("purgecache_"+method+"_count", 1)
}
