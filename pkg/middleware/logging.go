// Package middleware provides decorators of the purgecache.Service: logging, stats
// timing, OpenTelemetry tracing and metrics, and Prometheus metrics.
package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/pkg/cache"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// LoggingMiddleware is a middleware that logs every call and the time it took.
// Must implement the purgecache.Service interface.
type LoggingMiddleware struct {
	next   purgecache.Service
	logger logrus.FieldLogger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next purgecache.Service, logger logrus.FieldLogger) purgecache.Service {
	return &LoggingMiddleware{next: next, logger: logger}
}

// GetItem logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) GetItem(ctx context.Context, key string) (value any, ok bool) {
	defer func(begin time.Time) {
		mw.log("GetItem", begin, logrus.Fields{"key": key, "hit": ok})
	}(time.Now())

	return mw.next.GetItem(ctx, key)
}

// GetWithInfo logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) GetWithInfo(ctx context.Context, key string) (item *cache.Item, ok bool) {
	defer func(begin time.Time) {
		mw.log("GetWithInfo", begin, logrus.Fields{"key": key, "hit": ok})
	}(time.Now())

	return mw.next.GetWithInfo(ctx, key)
}

// SetItem logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) SetItem(ctx context.Context, key string, value any, opts ...cache.Option) (err error) {
	defer func(begin time.Time) {
		mw.logErr("SetItem", begin, logrus.Fields{"key": key}, err)
	}(time.Now())

	return mw.next.SetItem(ctx, key, value, opts...)
}

// RemoveItem logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) RemoveItem(ctx context.Context, key string) (value any, ok bool) {
	defer func(begin time.Time) {
		mw.log("RemoveItem", begin, logrus.Fields{"key": key, "removed": ok})
	}(time.Now())

	return mw.next.RemoveItem(ctx, key)
}

// Clear logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) Clear(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		mw.logErr("Clear", begin, nil, err)
	}(time.Now())

	return mw.next.Clear(ctx)
}

// Purge logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) Purge(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		mw.logErr("Purge", begin, nil, err)
	}(time.Now())

	return mw.next.Purge(ctx)
}

// Count returns the number of items in the cache.
func (mw LoggingMiddleware) Count(ctx context.Context) int {
	return mw.next.Count(ctx)
}

// Allocation returns the size allocation in bytes cache.
func (mw LoggingMiddleware) Allocation() int64 {
	return mw.next.Allocation()
}

// GetStats returns the stats of the cache.
func (mw LoggingMiddleware) GetStats() stats.Stats {
	return mw.next.GetStats()
}

// Stop logs the call and the time it takes to execute the next middleware.
func (mw LoggingMiddleware) Stop(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		mw.logErr("Stop", begin, nil, err)
	}(time.Now())

	return mw.next.Stop(ctx)
}

func (mw LoggingMiddleware) log(method string, begin time.Time, fields logrus.Fields) {
	mw.logger.WithFields(fields).
		WithField("method", method).
		WithField("took", time.Since(begin)).
		Debug("cache call")
}

func (mw LoggingMiddleware) logErr(method string, begin time.Time, fields logrus.Fields, err error) {
	if err == nil {
		mw.log(method, begin, fields)

		return
	}

	mw.logger.WithFields(fields).
		WithField("method", method).
		WithField("took", time.Since(begin)).
		WithError(err).
		Warn("cache call failed")
}
