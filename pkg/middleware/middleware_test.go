package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/longbridgeapp/assert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/pkg/backend"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// recordingTracer records the names of the spans it starts.
type recordingTracer struct {
	tracenoop.Tracer

	mu    sync.Mutex
	names []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()

	return r.Tracer.Start(ctx, name, opts...)
}

func newService(t *testing.T, opts ...purgecache.Option) purgecache.Service {
	t.Helper()

	storage, err := backend.NewInMemory()
	assert.NoError(t, err)

	c, err := purgecache.New(context.Background(), storage, opts...)
	assert.NoError(t, err)

	t.Cleanup(func() { _ = c.Stop(context.Background()) })

	return c
}

// exercise runs the same sequence of calls through svc and checks the results
// are those of the undecorated cache.
func exercise(t *testing.T, svc purgecache.Service) {
	t.Helper()

	ctx := context.Background()

	assert.NoError(t, svc.SetItem(ctx, "key", "value", cache.WithPriority(cache.PriorityHigh)))
	assert.True(t, errors.Is(svc.SetItem(ctx, "", "value"), purgecache.ErrInvalidKey))

	value, ok := svc.GetItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	_, ok = svc.GetItem(ctx, "missing")
	assert.False(t, ok)

	item, ok := svc.GetWithInfo(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, cache.PriorityHigh, item.Options.Priority)

	assert.Equal(t, 1, svc.Count(ctx))
	assert.Equal(t, int64(5), svc.Allocation())
	assert.NoError(t, svc.Purge(ctx))

	value, ok = svc.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	assert.NoError(t, svc.SetItem(ctx, "other", 1))
	assert.NoError(t, svc.Clear(ctx))
	assert.Equal(t, 0, svc.Count(ctx))

	st := svc.GetStats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)

	assert.NoError(t, svc.Stop(ctx))
}

func TestLoggingMiddleware(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	svc := purgecache.ApplyMiddleware(newService(t), func(next purgecache.Service) purgecache.Service {
		return NewLoggingMiddleware(next, logger)
	})

	exercise(t, svc)

	var failed, getItems int

	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			failed++

			assert.Equal(t, "SetItem", entry.Data["method"])
		}

		if entry.Data["method"] == "GetItem" {
			getItems++
		}
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, getItems)
}

func TestStatsCollectorMiddleware(t *testing.T) {
	collector := stats.NewHistogramCollector()

	svc := NewStatsCollectorMiddleware(newService(t), collector)
	exercise(t, svc)

	summary := collector.Summary()
	assert.Equal(t, int64(3), summary["purgecache_set_item_count"].Sum)
	assert.Equal(t, int64(2), summary["purgecache_get_item_count"].Sum)
	assert.Equal(t, 3, summary["purgecache_set_item_duration"].Count)
	assert.Equal(t, int64(1), summary["purgecache_stop_count"].Sum)
}

func TestOTelTracingMiddleware(t *testing.T) {
	tracer := &recordingTracer{}

	svc := NewOTelTracingMiddleware(newService(t), tracer, WithCommonAttributes())
	exercise(t, svc)

	assert.Equal(t, []string{
		"purgecache.SetItem",
		"purgecache.SetItem",
		"purgecache.GetItem",
		"purgecache.GetItem",
		"purgecache.GetWithInfo",
		"purgecache.Purge",
		"purgecache.RemoveItem",
		"purgecache.SetItem",
		"purgecache.Clear",
		"purgecache.Stop",
	}, tracer.names)
}

func TestOTelMetricsMiddleware(t *testing.T) {
	svc, err := NewOTelMetricsMiddleware(newService(t), metricnoop.NewMeterProvider().Meter("test"))
	assert.NoError(t, err)

	exercise(t, svc)
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()

	mw := NewPrometheusMiddleware(newService(t), reg, "purgecache")
	exercise(t, mw)

	prom, ok := mw.(*PrometheusMiddleware)
	assert.True(t, ok)

	assert.Equal(t, float64(3), testutil.ToFloat64(prom.calls.WithLabelValues("SetItem")))
	assert.Equal(t, float64(2), testutil.ToFloat64(prom.lookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(prom.lookups.WithLabelValues("miss")))

	count, err := testutil.GatherAndCount(reg, "purgecache_calls_total")
	assert.NoError(t, err)
	assert.True(t, count > 0)
}

func TestPriorityOf(t *testing.T) {
	tests := []struct {
		name     string
		opts     []cache.Option
		expected cache.Priority
	}{
		{name: "default", expected: cache.PriorityNormal},
		{name: "explicit", opts: []cache.Option{cache.WithPriority(cache.PriorityLow)}, expected: cache.PriorityLow},
		{name: "last wins", opts: []cache.Option{cache.WithPriority(cache.PriorityLow), cache.WithPriority(cache.PriorityHigh)}, expected: cache.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, priorityOf(tt.opts))
		})
	}
}
