package backend

import (
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/purgecache/internal/libs/serializer"
)

// iConfigurableBackend is implemented by backends accepting a capacity.
type iConfigurableBackend interface {
	setCapacity(capacity int)
}

// setCapacity sets the `capacity` field of the `InMemory` backend.
func (inm *InMemory) setCapacity(capacity int) {
	inm.capacity = capacity
}

// setCapacity sets the `capacity` field of the `Redis` backend.
func (rb *Redis) setCapacity(capacity int) {
	rb.capacity = capacity
}

// Option is a function type that can be used to configure a backend.
type Option[T IBackendConstrain] func(*T)

// ApplyOptions applies the given options to the given backend.
func ApplyOptions[T IBackendConstrain](backend *T, options ...Option[T]) {
	for _, option := range options {
		option(backend)
	}
}

// WithCapacity limits the number of items the backend accepts. Once full, inserting
// a new key fails with sentinel.ErrCacheFull. Zero means unlimited.
func WithCapacity[T IBackendConstrain](capacity int) Option[T] {
	return func(a *T) {
		if configurable, ok := any(a).(iConfigurableBackend); ok {
			configurable.setCapacity(capacity)
		}
	}
}

// WithRedisClient sets the redis handle the backend stores records through.
// Both *redis.Client and *redis.ClusterClient satisfy redis.UniversalClient.
func WithRedisClient(client redis.UniversalClient) Option[Redis] {
	return func(backend *Redis) {
		backend.rdb = client
	}
}

// WithKeysSetName sets the namespace of the backend. It is used as the hash tag of
// the set holding the keys and of every item record.
func WithKeysSetName(keysSetName string) Option[Redis] {
	return func(backend *Redis) {
		backend.keysSetName = keysSetName
	}
}

// WithSerializer sets the serializer used to encode item records.
//   - The default serializer is `serializer.MsgpackSerializer`.
//   - The `serializer.JSONSerializer` stores the records as JSON.
//   - The interface `serializer.ISerializer` can be implemented to use a custom serializer.
func WithSerializer(ser serializer.ISerializer) Option[Redis] {
	return func(backend *Redis) {
		backend.Serializer = ser
	}
}

// WithValueTypes registers the types of samples, so that stored values of those types
// are decoded back into them instead of the generic form of the serializer.
//
//	backend.WithValueTypes(User{}, &Session{})
func WithValueTypes(samples ...any) Option[Redis] {
	return func(backend *Redis) {
		backend.valueTypes.register(samples...)
	}
}
