package backend

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/libs/serializer"
	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/cache"
)

const recordField = "data"

// Redis is a persistent backend storing serialized item records in redis.
//
// Each record lives in a hash under "{<keysSetName>}:<key>" and every key is tracked
// in the set "{<keysSetName>}", which gives Keys and Size without scanning the
// keyspace. The hash tag keeps a namespace in one cluster slot, so the pipelines stay
// valid on a cluster. The redis handle is injected; the backend never creates or
// closes it.
//
// Values are decoded back into their original Go type when that type is registered:
// the builtin scalars, []byte, time.Time, time.Duration and a few common slices and
// maps are by default, others are added with WithValueTypes. Values of other types
// come back in the generic form of the serializer.
type Redis struct {
	rdb         redis.UniversalClient  // redis handle, single node or cluster
	capacity    int                    // maximum number of items, 0 means unlimited
	keysSetName string                 // namespace, hash tag of every key the backend writes
	valueTypes  valueTypes             // types values are decoded into
	Serializer  serializer.ISerializer // Serializer encodes the records
}

// NewRedis creates a new redis backend with the given options.
func NewRedis(redisOptions ...Option[Redis]) (*Redis, error) {
	rb := &Redis{valueTypes: defaultValueTypes()}

	ApplyOptions(rb, redisOptions...)

	if rb.rdb == nil {
		return nil, sentinel.ErrNilClient
	}

	if rb.capacity < 0 {
		return nil, sentinel.ErrInvalidCapacity
	}

	if rb.keysSetName == "" {
		rb.keysSetName = constants.DefaultKeysSetName
	}

	if rb.Serializer == nil {
		var err error

		rb.Serializer, err = serializer.New(constants.DefaultSerializer)
		if err != nil {
			return nil, err
		}
	}

	return rb, nil
}

// Capacity returns the maximum number of items the backend accepts, 0 if unlimited.
func (cacheBackend *Redis) Capacity() int {
	return cacheBackend.capacity
}

// KeysSetName returns the namespace of the backend.
func (cacheBackend *Redis) KeysSetName() string {
	return cacheBackend.keysSetName
}

func (cacheBackend *Redis) setKey() string {
	return "{" + cacheBackend.keysSetName + "}"
}

func (cacheBackend *Redis) recordKey(key string) string {
	return cacheBackend.setKey() + ":" + key
}

// Get retrieves the item stored under key.
func (cacheBackend *Redis) Get(ctx context.Context, key string) (*cache.Item, bool) {
	data, err := cacheBackend.rdb.HGet(ctx, cacheBackend.recordKey(key), recordField).Bytes()
	if err != nil {
		return nil, false
	}

	return cacheBackend.decode(data)
}

// Set stores the item. New keys are refused with sentinel.ErrCacheFull once the
// capacity is reached.
func (cacheBackend *Redis) Set(ctx context.Context, item *cache.Item) error {
	err := item.Valid()
	if err != nil {
		return err
	}

	if cacheBackend.capacity > 0 {
		err = cacheBackend.checkCapacity(ctx, item.Key)
		if err != nil {
			return err
		}
	}

	return cacheBackend.write(ctx, item)
}

// Touch persists the access metadata of an item after a hit.
func (cacheBackend *Redis) Touch(ctx context.Context, item *cache.Item) error {
	return cacheBackend.write(ctx, item)
}

// Remove deletes the item stored under key and returns it.
func (cacheBackend *Redis) Remove(ctx context.Context, key string) (*cache.Item, bool) {
	pipe := cacheBackend.rdb.TxPipeline()

	get := pipe.HGet(ctx, cacheBackend.recordKey(key), recordField)
	pipe.Del(ctx, cacheBackend.recordKey(key))
	pipe.SRem(ctx, cacheBackend.setKey(), key)

	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false
	}

	data, err := get.Bytes()
	if err != nil {
		return nil, false
	}

	return cacheBackend.decode(data)
}

// Keys returns the stored keys in no particular order.
func (cacheBackend *Redis) Keys(ctx context.Context) []string {
	keys, err := cacheBackend.rdb.SMembers(ctx, cacheBackend.setKey()).Result()
	if err != nil {
		return nil
	}

	return keys
}

// Size returns the number of stored items.
func (cacheBackend *Redis) Size(ctx context.Context) int {
	count, err := cacheBackend.rdb.SCard(ctx, cacheBackend.setKey()).Result()
	if err != nil {
		return 0
	}

	return int(count)
}

func (cacheBackend *Redis) checkCapacity(ctx context.Context, key string) error {
	isMember, err := cacheBackend.rdb.SIsMember(ctx, cacheBackend.setKey(), key).Result()
	if err != nil {
		return ewrap.Wrap(err, "checking key membership")
	}

	if isMember {
		return nil
	}

	count, err := cacheBackend.rdb.SCard(ctx, cacheBackend.setKey()).Result()
	if err != nil {
		return ewrap.Wrap(err, "counting keys")
	}

	if int(count) >= cacheBackend.capacity {
		return sentinel.ErrCacheFull
	}

	return nil
}

func (cacheBackend *Redis) write(ctx context.Context, item *cache.Item) error {
	value, valueType, err := cacheBackend.encodeValue(item.Value)
	if err != nil {
		return err
	}

	data, err := cacheBackend.Serializer.Marshal(newRecord(item, value, valueType))
	if err != nil {
		return err
	}

	pipe := cacheBackend.rdb.TxPipeline()
	pipe.HSet(ctx, cacheBackend.recordKey(item.Key), recordField, data)
	pipe.SAdd(ctx, cacheBackend.setKey(), item.Key)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return ewrap.Wrap(err, "failed to execute redis pipeline")
	}

	return nil
}

func (cacheBackend *Redis) decode(data []byte) (*cache.Item, bool) {
	var rec record

	err := cacheBackend.Serializer.Unmarshal(data, &rec)
	if err != nil {
		return nil, false
	}

	value, err := cacheBackend.decodeValue(rec.Value, rec.ValueType)
	if err != nil {
		return nil, false
	}

	return rec.item(value), true
}
