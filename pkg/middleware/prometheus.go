package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// PrometheusMiddleware counts calls, lookups and durations into Prometheus collectors.
type PrometheusMiddleware struct {
	next purgecache.Service

	calls     *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusMiddleware registers the collectors on reg under namespace and wraps next.
// It panics when the collectors are already registered on reg.
func NewPrometheusMiddleware(next purgecache.Service, reg prometheus.Registerer, namespace string) purgecache.Service {
	factory := promauto.With(reg)

	return &PrometheusMiddleware{
		next: next,
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of cache calls.",
		}, []string{"method"}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of cache lookups.",
		}, []string{"status" /* hit | miss */}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of the cache calls.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"method"}),
	}
}

// GetItem implements Service.GetItem with metrics.
func (mw *PrometheusMiddleware) GetItem(ctx context.Context, key string) (any, bool) {
	defer mw.observe("GetItem", time.Now())

	v, ok := mw.next.GetItem(ctx, key)
	mw.lookup(ok)

	return v, ok
}

// GetWithInfo implements Service.GetWithInfo with metrics.
func (mw *PrometheusMiddleware) GetWithInfo(ctx context.Context, key string) (*cache.Item, bool) {
	defer mw.observe("GetWithInfo", time.Now())

	it, ok := mw.next.GetWithInfo(ctx, key)
	mw.lookup(ok)

	return it, ok
}

// SetItem implements Service.SetItem with metrics.
func (mw *PrometheusMiddleware) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error {
	defer mw.observe("SetItem", time.Now())

	return mw.next.SetItem(ctx, key, value, opts...)
}

// RemoveItem implements Service.RemoveItem with metrics.
func (mw *PrometheusMiddleware) RemoveItem(ctx context.Context, key string) (any, bool) {
	defer mw.observe("RemoveItem", time.Now())

	return mw.next.RemoveItem(ctx, key)
}

// Clear implements Service.Clear with metrics.
func (mw *PrometheusMiddleware) Clear(ctx context.Context) error {
	defer mw.observe("Clear", time.Now())

	return mw.next.Clear(ctx)
}

// Purge implements Service.Purge with metrics.
func (mw *PrometheusMiddleware) Purge(ctx context.Context) error {
	defer mw.observe("Purge", time.Now())

	return mw.next.Purge(ctx)
}

// Count returns items count.
func (mw *PrometheusMiddleware) Count(ctx context.Context) int { return mw.next.Count(ctx) }

// Allocation returns allocated size.
func (mw *PrometheusMiddleware) Allocation() int64 { return mw.next.Allocation() }

// GetStats returns stats.
func (mw *PrometheusMiddleware) GetStats() stats.Stats { return mw.next.GetStats() }

// Stop stops the underlying service.
func (mw *PrometheusMiddleware) Stop(ctx context.Context) error { return mw.next.Stop(ctx) }

func (mw *PrometheusMiddleware) observe(method string, start time.Time) {
	mw.calls.WithLabelValues(method).Inc()
	mw.durations.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (mw *PrometheusMiddleware) lookup(hit bool) {
	if hit {
		mw.lookups.WithLabelValues("hit").Inc()

		return
	}

	mw.lookups.WithLabelValues("miss").Inc()
}
