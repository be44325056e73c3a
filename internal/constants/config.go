// Package constants defines default configuration values and backend identifiers
// for the purgecache system.
package constants

const (
	// DefaultFillFactor is the fraction of the capacity retained after a purge.
	DefaultFillFactor = 0.75
	// DefaultKeysSetName is the name of the set holding the keys of a persistent backend.
	DefaultKeysSetName = "purgecache"
	// DefaultSerializer is the serializer used by persistent backends when none is configured.
	DefaultSerializer = "msgpack"
	// InMemoryBackend is the in-memory backend type.
	InMemoryBackend = "in-memory"
	// RedisBackend is the name of the Redis backend.
	RedisBackend = "redis"
)
