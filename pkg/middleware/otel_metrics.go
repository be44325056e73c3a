package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/internal/telemetry/attrs"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for service methods.
type OTelMetricsMiddleware struct {
	next  purgecache.Service
	meter metric.Meter

	// instruments
	calls     metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next purgecache.Service, meter metric.Meter) (purgecache.Service, error) {
	calls, err := meter.Int64Counter("purgecache.calls")
	if err != nil {
		return nil, ewrap.Wrap(err, "create counter")
	}

	durations, err := meter.Float64Histogram("purgecache.duration.ms")
	if err != nil {
		return nil, ewrap.Wrap(err, "create histogram")
	}

	return &OTelMetricsMiddleware{next: next, meter: meter, calls: calls, durations: durations}, nil
}

// GetItem implements Service.GetItem with metrics.
func (mw *OTelMetricsMiddleware) GetItem(ctx context.Context, key string) (any, bool) {
	start := time.Now()
	v, ok := mw.next.GetItem(ctx, key)
	mw.rec(ctx, "GetItem", start, attribute.Int(attrs.AttrKeyLength, len(key)), attribute.Bool(attrs.AttrHit, ok))

	return v, ok
}

// GetWithInfo implements Service.GetWithInfo with metrics.
func (mw *OTelMetricsMiddleware) GetWithInfo(ctx context.Context, key string) (*cache.Item, bool) {
	start := time.Now()
	it, ok := mw.next.GetWithInfo(ctx, key)
	mw.rec(ctx, "GetWithInfo", start, attribute.Int(attrs.AttrKeyLength, len(key)), attribute.Bool(attrs.AttrHit, ok))

	return it, ok
}

// SetItem implements Service.SetItem with metrics.
func (mw *OTelMetricsMiddleware) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error {
	start := time.Now()
	err := mw.next.SetItem(ctx, key, value, opts...)
	mw.rec(ctx, "SetItem", start,
		attribute.Int(attrs.AttrKeyLength, len(key)),
		attribute.String(attrs.AttrPriority, priorityOf(opts).String()))

	return err
}

// RemoveItem implements Service.RemoveItem with metrics.
func (mw *OTelMetricsMiddleware) RemoveItem(ctx context.Context, key string) (any, bool) {
	start := time.Now()
	v, ok := mw.next.RemoveItem(ctx, key)
	mw.rec(ctx, "RemoveItem", start, attribute.Int(attrs.AttrKeyLength, len(key)), attribute.Bool(attrs.AttrRemoved, ok))

	return v, ok
}

// Clear implements Service.Clear with metrics.
func (mw *OTelMetricsMiddleware) Clear(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Clear(ctx)
	mw.rec(ctx, "Clear", start)

	return err
}

// Purge implements Service.Purge with metrics.
func (mw *OTelMetricsMiddleware) Purge(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Purge(ctx)
	mw.rec(ctx, "Purge", start, attribute.Int(attrs.AttrCount, mw.next.Count(ctx)))

	return err
}

// Count returns items count.
func (mw *OTelMetricsMiddleware) Count(ctx context.Context) int { return mw.next.Count(ctx) }

// Allocation returns allocated size.
func (mw *OTelMetricsMiddleware) Allocation() int64 { return mw.next.Allocation() }

// GetStats returns stats.
func (mw *OTelMetricsMiddleware) GetStats() stats.Stats { return mw.next.GetStats() }

// Stop stops the underlying service.
func (mw *OTelMetricsMiddleware) Stop(ctx context.Context) error { return mw.next.Stop(ctx) }

// rec records call count and duration with attributes.
func (mw *OTelMetricsMiddleware) rec(ctx context.Context, method string, start time.Time, attributes ...attribute.KeyValue) {
	base := []attribute.KeyValue{attribute.String(attrs.AttrMethod, method)}
	if len(attributes) > 0 {
		base = append(base, attributes...)
	}

	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(base...))
}
