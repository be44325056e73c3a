package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/internal/telemetry/attrs"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// OTelTracingMiddleware wraps purgecache.Service methods with OpenTelemetry spans.
type OTelTracingMiddleware struct {
	next   purgecache.Service
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next purgecache.Service, tracer trace.Tracer, opts ...OTelTracingOption) purgecache.Service {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// GetItem implements Service.GetItem with tracing.
func (mw OTelTracingMiddleware) GetItem(ctx context.Context, key string) (any, bool) {
	ctx, span := mw.startSpan(ctx, "purgecache.GetItem", attribute.Int(attrs.AttrKeyLength, len(key)))
	defer span.End()

	v, ok := mw.next.GetItem(ctx, key)
	span.SetAttributes(attribute.Bool(attrs.AttrHit, ok))

	return v, ok
}

// GetWithInfo implements Service.GetWithInfo with tracing.
func (mw OTelTracingMiddleware) GetWithInfo(ctx context.Context, key string) (*cache.Item, bool) {
	ctx, span := mw.startSpan(ctx, "purgecache.GetWithInfo", attribute.Int(attrs.AttrKeyLength, len(key)))
	defer span.End()

	it, ok := mw.next.GetWithInfo(ctx, key)
	span.SetAttributes(attribute.Bool(attrs.AttrHit, ok))

	return it, ok
}

// SetItem implements Service.SetItem with tracing.
func (mw OTelTracingMiddleware) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) error {
	ctx, span := mw.startSpan(
		ctx, "purgecache.SetItem",
		attribute.Int(attrs.AttrKeyLength, len(key)),
		attribute.String(attrs.AttrPriority, priorityOf(opts).String()))
	defer span.End()

	err := mw.next.SetItem(ctx, key, value, opts...)
	recordError(span, err)

	return err
}

// RemoveItem implements Service.RemoveItem with tracing.
func (mw OTelTracingMiddleware) RemoveItem(ctx context.Context, key string) (any, bool) {
	ctx, span := mw.startSpan(ctx, "purgecache.RemoveItem", attribute.Int(attrs.AttrKeyLength, len(key)))
	defer span.End()

	v, ok := mw.next.RemoveItem(ctx, key)
	span.SetAttributes(attribute.Bool(attrs.AttrRemoved, ok))

	return v, ok
}

// Clear implements Service.Clear with tracing.
func (mw OTelTracingMiddleware) Clear(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "purgecache.Clear")
	defer span.End()

	err := mw.next.Clear(ctx)
	recordError(span, err)

	return err
}

// Purge implements Service.Purge with tracing.
func (mw OTelTracingMiddleware) Purge(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "purgecache.Purge")
	defer span.End()

	err := mw.next.Purge(ctx)
	recordError(span, err)

	span.SetAttributes(attribute.Int(attrs.AttrCount, mw.next.Count(ctx)))

	return err
}

// Count returns items count.
func (mw OTelTracingMiddleware) Count(ctx context.Context) int { return mw.next.Count(ctx) }

// Allocation returns allocated size.
func (mw OTelTracingMiddleware) Allocation() int64 { return mw.next.Allocation() }

// GetStats returns stats.
func (mw OTelTracingMiddleware) GetStats() stats.Stats { return mw.next.GetStats() }

// Stop stops the service with a span.
func (mw OTelTracingMiddleware) Stop(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "purgecache.Stop")
	defer span.End()

	err := mw.next.Stop(ctx)
	recordError(span, err)

	return err
}

// startSpan starts a span with common and provided attributes.
func (mw OTelTracingMiddleware) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := mw.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	return ctx, span
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// priorityOf resolves the priority the item options select.
func priorityOf(opts []cache.Option) cache.Priority {
	var o cache.Options

	cache.ApplyOptions(&o, opts...)

	if o.Priority == 0 {
		return cache.PriorityNormal
	}

	return o.Priority
}
