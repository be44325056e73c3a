// Package stats holds the counters of the cache engine and a histogram collector
// used by the stats middleware to time service calls.
package stats

import "sync/atomic"

// Stats is a snapshot of the engine counters. Every counter only grows for the
// lifetime of a cache instance.
type Stats struct {
	Hits          uint64 `json:"hits"`          // reads that returned a live item
	Misses        uint64 `json:"misses"`        // reads that found nothing or an expired item
	Evictions     uint64 `json:"evictions"`     // live items evicted by purge ordering
	Expirations   uint64 `json:"expirations"`   // expired items removed on read or purge
	Purges        uint64 `json:"purges"`        // purge passes run
	InsertRetries uint64 `json:"insertRetries"` // insertions that needed the purge-and-retry fallback
}

// HitRatio returns hits / (hits + misses), or 0 before the first read.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Collector accumulates the engine counters.
type Collector struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	expirations   atomic.Uint64
	purges        atomic.Uint64
	insertRetries atomic.Uint64
}

// NewCollector creates a collector with every counter at zero.
func NewCollector() *Collector {
	return &Collector{}
}

// IncrementHits increments the number of cache hits.
func (c *Collector) IncrementHits() { c.hits.Add(1) }

// IncrementMisses increments the number of cache misses.
func (c *Collector) IncrementMisses() { c.misses.Add(1) }

// IncrementEvictions increments the number of evictions.
func (c *Collector) IncrementEvictions() { c.evictions.Add(1) }

// IncrementExpirations increments the number of expirations.
func (c *Collector) IncrementExpirations() { c.expirations.Add(1) }

// IncrementPurges increments the number of purge passes.
func (c *Collector) IncrementPurges() { c.purges.Add(1) }

// IncrementInsertRetries increments the number of retried insertions.
func (c *Collector) IncrementInsertRetries() { c.insertRetries.Add(1) }

// GetStats returns a snapshot of the counters.
func (c *Collector) GetStats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		Expirations:   c.expirations.Load(),
		Purges:        c.purges.Load(),
		InsertRetries: c.insertRetries.Load(),
	}
}
