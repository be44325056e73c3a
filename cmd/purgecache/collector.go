package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyp3rd/purgecache/pkg/stats"
)

type statsSource interface {
	GetStats() stats.Stats
	Allocation() int64
}

// statsCollector exports the cache statistics as Prometheus counters.
type statsCollector struct {
	source statsSource

	hits          *prometheus.Desc
	misses        *prometheus.Desc
	evictions     *prometheus.Desc
	expirations   *prometheus.Desc
	purges        *prometheus.Desc
	insertRetries *prometheus.Desc
	allocation    *prometheus.Desc
}

func newStatsCollector(source statsSource) *statsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("purgecache", "", name), help, nil, nil)
	}

	return &statsCollector{
		source:        source,
		hits:          desc("hits_total", "Reads that found a live item."),
		misses:        desc("misses_total", "Reads that found no live item."),
		evictions:     desc("evictions_total", "Items evicted by purges."),
		expirations:   desc("expirations_total", "Expired items removed."),
		purges:        desc("purges_total", "Purge passes run."),
		insertRetries: desc("insert_retries_total", "Insertions retried after a purge."),
		allocation:    desc("allocation_bytes", "Encoded size of the stored values."),
	}
}

// Describe implements prometheus.Collector.
func (sc *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.hits
	ch <- sc.misses
	ch <- sc.evictions
	ch <- sc.expirations
	ch <- sc.purges
	ch <- sc.insertRetries
	ch <- sc.allocation
}

// Collect implements prometheus.Collector.
func (sc *statsCollector) Collect(ch chan<- prometheus.Metric) {
	st := sc.source.GetStats()

	ch <- prometheus.MustNewConstMetric(sc.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(sc.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(sc.evictions, prometheus.CounterValue, float64(st.Evictions))
	ch <- prometheus.MustNewConstMetric(sc.expirations, prometheus.CounterValue, float64(st.Expirations))
	ch <- prometheus.MustNewConstMetric(sc.purges, prometheus.CounterValue, float64(st.Purges))
	ch <- prometheus.MustNewConstMetric(sc.insertRetries, prometheus.CounterValue, float64(st.InsertRetries))
	ch <- prometheus.MustNewConstMetric(sc.allocation, prometheus.GaugeValue, float64(sc.source.Allocation()))
}
