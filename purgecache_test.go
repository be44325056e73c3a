package purgecache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/hyp3rd/purgecache/pkg/backend"
	"github.com/hyp3rd/purgecache/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

type removalRecorder struct {
	mu     sync.Mutex
	keys   []string
	values []any
}

func (r *removalRecorder) callback(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func (r *removalRecorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.keys...)
}

func (r *removalRecorder) Values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]any(nil), r.values...)
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, *fakeClock) {
	t.Helper()

	storage, err := backend.NewInMemory()
	assert.NoError(t, err)

	return newTestCacheWith(t, storage, opts...)
}

func newTestCacheWith(t *testing.T, storage backend.IBackend, opts ...Option) (*Cache, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	logger, _ := logtest.NewNullLogger()

	c, err := New(context.Background(), storage, append([]Option{WithTimeSource(clock.Now), WithLogger(logger)}, opts...)...)
	assert.NoError(t, err)

	t.Cleanup(func() { _ = c.Stop(context.Background()) })

	return c, clock
}

func TestNew(t *testing.T) {
	storage, err := backend.NewInMemory()
	assert.NoError(t, err)

	tests := []struct {
		name       string
		storage    backend.IBackend
		opts       []Option
		wantErr    error
		maxSize    int
		fillFactor float64
	}{
		{name: "defaults", storage: storage, fillFactor: 0.75},
		{name: "max size", storage: storage, opts: []Option{WithMaxSize(10)}, maxSize: 10, fillFactor: 0.75},
		{name: "negative max size", storage: storage, opts: []Option{WithMaxSize(-3)}, fillFactor: 0.75},
		{name: "fill factor", storage: storage, opts: []Option{WithFillFactor(0.5)}, fillFactor: 0.5},
		{name: "zero fill factor", storage: storage, opts: []Option{WithFillFactor(0)}, wantErr: ErrInvalidFillFactor},
		{name: "fill factor above one", storage: storage, opts: []Option{WithFillFactor(1.5)}, wantErr: ErrInvalidFillFactor},
		{name: "nil backend", wantErr: ErrBackendNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.storage, tt.opts...)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, c)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.maxSize, c.MaxSize())
			assert.Equal(t, tt.fillFactor, c.FillFactor())
			assert.False(t, c.Debug())
			assert.Equal(t, "", c.ManagementHTTPAddress())
			assert.NoError(t, c.Stop(context.Background()))
		})
	}
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	assert.NoError(t, c.SetItem(ctx, "alpha", "one"))
	assert.NoError(t, c.SetItem(ctx, "nil", nil))

	value, ok := c.GetItem(ctx, "alpha")
	assert.True(t, ok)
	assert.Equal(t, "one", value)

	value, ok = c.GetItem(ctx, "nil")
	assert.True(t, ok)
	assert.Nil(t, value)

	value, ok = c.GetItem(ctx, "missing")
	assert.False(t, ok)
	assert.Nil(t, value)

	assert.Equal(t, 2, c.Count(ctx))

	st := c.GetStats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestCache_SetItemValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	recorder := &removalRecorder{}
	assert.NoError(t, c.SetItem(ctx, "key", 1, cache.WithCallback(recorder.callback)))

	tests := []struct {
		name    string
		key     string
		opts    []cache.Option
		wantErr error
	}{
		{name: "empty key", key: "", wantErr: ErrInvalidKey},
		{name: "priority too high", key: "key", opts: []cache.Option{cache.WithPriority(9)}, wantErr: ErrInvalidPriority},
		{name: "negative priority", key: "key", opts: []cache.Option{cache.WithPriority(-1)}, wantErr: ErrInvalidPriority},
		{name: "negative sliding", key: "key", opts: []cache.Option{cache.WithSlidingExpiration(-time.Second)}, wantErr: ErrInvalidExpiration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SetItem(ctx, tt.key, 2, tt.opts...)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}

	// the failed writes left the previous item in place
	value, ok := c.GetItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, 0, len(recorder.Keys()))

	// any non-empty key is valid
	assert.NoError(t, c.SetItem(ctx, " \t", 3))

	value, ok = c.GetItem(ctx, " \t")
	assert.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestCache_GetWithInfo(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	assert.NoError(t, c.SetItem(ctx, "key", []byte("abcd"), cache.WithPriority(cache.PriorityHigh)))

	clock.Advance(time.Minute)

	item, ok := c.GetWithInfo(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "key", item.Key)
	assert.Equal(t, []byte("abcd"), item.Value)
	assert.Equal(t, cache.PriorityHigh, item.Options.Priority)
	assert.Equal(t, clock.Now(), item.LastAccess)
	assert.Equal(t, uint32(1), item.AccessCount)
	assert.Equal(t, int64(4), item.Size)

	_, ok = c.GetWithInfo(ctx, "missing")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	first := &removalRecorder{}
	second := &removalRecorder{}

	assert.NoError(t, c.SetItem(ctx, "key", "old", cache.WithCallback(first.callback)))
	assert.NoError(t, c.SetItem(ctx, "key", "new", cache.WithCallback(second.callback)))

	value, ok := c.GetItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "new", value)

	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"key"}, first.Keys())
	assert.Equal(t, []any{"old"}, first.Values())
	assert.Equal(t, 0, len(second.Keys()))
	assert.Equal(t, 1, c.Count(ctx))
}

func TestCache_RemoveItem(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	recorder := &removalRecorder{}

	assert.NoError(t, c.SetItem(ctx, "key", 42,
		cache.WithCallback(recorder.callback),
		cache.WithExpiresIn(time.Second),
	))

	clock.Advance(time.Hour)

	// removal does not check expiration
	value, ok := c.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	value, ok = c.RemoveItem(ctx, "key")
	assert.False(t, ok)
	assert.Nil(t, value)

	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"key"}, recorder.Keys())
	assert.Equal(t, []any{42}, recorder.Values())

	st := c.GetStats()
	assert.Equal(t, uint64(0), st.Hits+st.Misses)
}

func TestCache_AbsoluteExpiration(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	recorder := &removalRecorder{}

	assert.NoError(t, c.SetItem(ctx, "key", "v",
		cache.WithAbsoluteExpiration(clock.Now().Add(5*time.Second)),
		cache.WithCallback(recorder.callback),
	))

	clock.Advance(5 * time.Second)

	_, ok := c.GetItem(ctx, "key")
	assert.True(t, ok)

	clock.Advance(time.Second)

	_, ok = c.GetItem(ctx, "key")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Count(ctx))

	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"key"}, recorder.Keys())

	st := c.GetStats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(1), st.Expirations)
}

func TestCache_SlidingExpiration(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	assert.NoError(t, c.SetItem(ctx, "key", "v", cache.WithSlidingExpiration(10*time.Second)))

	for range 3 {
		clock.Advance(8 * time.Second)

		_, ok := c.GetItem(ctx, "key")
		assert.True(t, ok)
	}

	clock.Advance(11 * time.Second)

	_, ok := c.GetItem(ctx, "key")
	assert.False(t, ok)

	st := c.GetStats()
	assert.Equal(t, uint64(3), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	recorder := &removalRecorder{}

	for _, key := range []string{"a", "b", "c"} {
		assert.NoError(t, c.SetItem(ctx, key, key, cache.WithCallback(recorder.callback)))
	}

	assert.True(t, c.Allocation() > 0)
	assert.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Count(ctx))
	assert.Equal(t, int64(0), c.Allocation())

	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, 3, len(recorder.Keys()))

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	assert.NoError(t, c.SetItem(ctx, "d", 1))
	assert.True(t, errors.Is(c.Clear(canceled), ErrTimeoutOrCanceled))
}

func TestCache_CallbackPanicIsRecovered(t *testing.T) {
	ctx := context.Background()

	storage, err := backend.NewInMemory()
	assert.NoError(t, err)

	logger, hook := logtest.NewNullLogger()

	c, err := New(ctx, storage, WithLogger(logger))
	assert.NoError(t, err)

	defer c.Stop(ctx)

	assert.NoError(t, c.SetItem(ctx, "key", 1, cache.WithCallback(func(string, any) { panic("boom") })))

	_, ok := c.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.NoError(t, c.Sync(ctx))

	entry := hook.LastEntry()
	assert.True(t, entry != nil)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "boom", entry.Data["panic"])

	// the cache is still usable
	assert.NoError(t, c.SetItem(ctx, "key", 2))

	value, ok := c.GetItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestCache_CallbackCanUseCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	assert.NoError(t, c.SetItem(ctx, "key", "v", cache.WithCallback(func(key string, value any) {
		_ = c.SetItem(ctx, "archived:"+key, value)
	})))

	_, ok := c.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.NoError(t, c.Sync(ctx))

	value, ok := c.GetItem(ctx, "archived:key")
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestCache_SyncFromCallbackWaitsForContext(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	syncErr := make(chan error, 1)

	assert.NoError(t, c.SetItem(ctx, "key", "v", cache.WithCallback(func(string, any) {
		syncCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		syncErr <- c.Sync(syncCtx)
	})))

	_, ok := c.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.NoError(t, c.Sync(ctx))

	assert.True(t, errors.Is(<-syncErr, ErrTimeoutOrCanceled))
}

func TestCache_Debug(t *testing.T) {
	ctx := context.Background()

	storage, err := backend.NewInMemory()
	assert.NoError(t, err)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c, err := New(ctx, storage, WithLogger(logger), WithDebug(true))
	assert.NoError(t, err)

	defer c.Stop(ctx)

	assert.True(t, c.Debug())
	assert.NoError(t, c.SetItem(ctx, "key", 1))

	_, _ = c.GetItem(ctx, "key")

	entry := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "hit", entry.Message)
	assert.Equal(t, "key", entry.Data["key"])
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, WithMaxSize(50))

	var wg sync.WaitGroup

	for worker := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 100 {
				key := string(rune('a'+worker)) + string(rune('a'+i%26))
				_ = c.SetItem(ctx, key, i)
				_, _ = c.GetItem(ctx, key)
			}
		}()
	}

	wg.Wait()
	assert.NoError(t, c.Sync(ctx))

	st := c.GetStats()
	assert.Equal(t, uint64(800), st.Hits+st.Misses)
	assert.True(t, c.Count(ctx) <= 50)
}

func TestCache_Stop(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, WithMaxSize(4))

	recorder := &removalRecorder{}

	assert.NoError(t, c.Stop(ctx))
	assert.NoError(t, c.Stop(ctx))

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		assert.NoError(t, c.SetItem(ctx, key, key, cache.WithCallback(recorder.callback)))
	}

	// with the worker gone the pending purge runs at the next operation
	assert.Equal(t, 3, c.Count(ctx))
	assert.Equal(t, 0, len(recorder.Keys()))
}
