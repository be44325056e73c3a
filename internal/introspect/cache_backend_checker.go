// Package introspect provides runtime inspection of cache backends, so callers can
// branch on the storage mechanism without type assertions of their own.
package introspect

import (
	"fmt"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/pkg/backend"
)

// IsInMemory returns true if the backend is an InMemory.
func IsInMemory(storage backend.IBackend) bool {
	_, ok := storage.(*backend.InMemory)

	return ok
}

// IsRedis returns true if the backend is a Redis.
func IsRedis(storage backend.IBackend) bool {
	_, ok := storage.(*backend.Redis)

	return ok
}

// BackendName returns the registered name of the backend type, or its Go type
// for backends registered by callers.
func BackendName(storage backend.IBackend) string {
	switch {
	case IsInMemory(storage):
		return constants.InMemoryBackend
	case IsRedis(storage):
		return constants.RedisBackend
	default:
		return fmt.Sprintf("%T", storage)
	}
}
