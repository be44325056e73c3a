package purgecache

import (
	"context"
	"math"
	"slices"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/cache"
)

// purgeSize returns the number of live items a purge keeps.
func (c *Cache) purgeSize(current int) int {
	base := current
	if c.maxSize > 0 {
		base = c.maxSize
	}

	return int(math.Round(float64(base) * c.fillFactor))
}

// purge removes the expired items, then evicts live items by ascending priority and
// recency until at most purgeSize remain. Callers hold c.mu.
func (c *Cache) purge(ctx context.Context) error {
	c.statsCollector.IncrementPurges()

	keys := c.storage.Keys(ctx)
	slices.Sort(keys)

	target := c.purgeSize(len(keys))
	now := c.now()
	live := make([]*cache.Item, 0, len(keys))
	expired := 0

	for _, key := range keys {
		if ctx.Err() != nil {
			return sentinel.ErrTimeoutOrCanceled
		}

		item, ok := c.storage.Get(ctx, key)
		if !ok {
			continue
		}

		if item.Expired(now) {
			c.remove(ctx, key)
			c.statsCollector.IncrementExpirations()

			expired++

			continue
		}

		live = append(live, item)
	}

	evicted := 0

	if len(live) > target {
		sort.SliceStable(live, func(i, j int) bool {
			if live[i].Options.Priority != live[j].Options.Priority {
				return live[i].Options.Priority < live[j].Options.Priority
			}

			return live[i].LastAccess.Before(live[j].LastAccess)
		})

		for _, item := range live[:len(live)-target] {
			if ctx.Err() != nil {
				return sentinel.ErrTimeoutOrCanceled
			}

			if _, ok := c.remove(ctx, item.Key); ok {
				c.statsCollector.IncrementEvictions()

				evicted++
			}
		}
	}

	c.trace("purged", logrus.Fields{
		"scanned": len(keys),
		"expired": expired,
		"evicted": evicted,
		"target":  target,
	})

	return nil
}
