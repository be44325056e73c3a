package purgecache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/longbridgeapp/assert"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/introspect"
	"github.com/hyp3rd/purgecache/pkg/backend"
	"github.com/hyp3rd/purgecache/pkg/cache"
)

type customConstructor struct {
	created int
}

func (cc *customConstructor) Create(_ context.Context, _ *Config) (backend.IBackend, error) {
	cc.created++

	return backend.NewInMemory(backend.WithCapacity[backend.InMemory](2))
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("")
	assert.Equal(t, constants.InMemoryBackend, cfg.BackendType)
	assert.Equal(t, 0, len(cfg.CacheOptions))

	cfg = NewConfig(constants.RedisBackend)
	assert.Equal(t, constants.RedisBackend, cfg.BackendType)
}

func TestNewFromConfig_InMemory(t *testing.T) {
	ctx := context.Background()

	cfg := NewConfig(constants.InMemoryBackend)
	cfg.InMemoryOptions = append(cfg.InMemoryOptions, backend.WithCapacity[backend.InMemory](10))
	cfg.CacheOptions = append(cfg.CacheOptions, WithMaxSize(5))

	c, err := NewFromConfig(ctx, nil, cfg)
	assert.NoError(t, err)

	defer c.Stop(ctx)

	assert.True(t, introspect.IsInMemory(c.storage))
	assert.Equal(t, 5, c.MaxSize())
}

func TestNewFromConfig_Redis(t *testing.T) {
	ctx := context.Background()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	defer client.Close()

	cfg := NewConfig(constants.RedisBackend)
	cfg.RedisOptions = append(cfg.RedisOptions, backend.WithRedisClient(client), backend.WithKeysSetName("factory"))

	c, err := NewFromConfig(ctx, GetDefaultManager(), cfg)
	assert.NoError(t, err)

	defer c.Stop(ctx)

	assert.True(t, introspect.IsRedis(c.storage))

	recorder := &removalRecorder{}

	assert.NoError(t, c.SetItem(ctx, "key", "value", cache.WithCallback(recorder.callback)))
	assert.True(t, server.Exists("{factory}:key"))

	value, ok := c.GetItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	assert.NoError(t, c.SetItem(ctx, "count", 1))

	count, ok := c.GetItem(ctx, "count")
	assert.True(t, ok)
	assert.Equal(t, 1, count)

	// callbacks fire even though the records do not carry them
	value, ok = c.RemoveItem(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", value)
	assert.NoError(t, c.Sync(ctx))
	assert.Equal(t, []string{"key"}, recorder.Keys())
}

func TestNewFromConfig_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewFromConfig(ctx, nil, nil)
	assert.True(t, err != nil)

	_, err = NewFromConfig(ctx, nil, NewConfig("memcached"))
	assert.True(t, errors.Is(err, ErrBackendNotFound))

	// redis without a client
	_, err = NewFromConfig(ctx, nil, NewConfig(constants.RedisBackend))
	assert.True(t, err != nil)

	_, err = NewFromConfig(ctx, NewEmptyBackendManager(), NewConfig(constants.InMemoryBackend))
	assert.True(t, errors.Is(err, ErrBackendNotFound))
}

func TestBackendManager_RegisterBackend(t *testing.T) {
	ctx := context.Background()

	constructor := &customConstructor{}

	manager := NewEmptyBackendManager()
	manager.RegisterBackend("custom", constructor)

	c, err := NewFromConfig(ctx, manager, NewConfig("custom"))
	assert.NoError(t, err)

	defer c.Stop(ctx)

	assert.Equal(t, 1, constructor.created)

	assert.NoError(t, c.SetItem(ctx, "a", 1))
	assert.NoError(t, c.SetItem(ctx, "b", 2))

	// the custom backend holds two items and a purge of two items keeps both
	err = c.SetItem(ctx, "c", 3)
	assert.True(t, errors.Is(err, ErrCacheFull))
	assert.Equal(t, uint64(1), c.GetStats().InsertRetries)
}
