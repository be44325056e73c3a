// Package sentinel provides the error catalogue shared by the purgecache components.
// Every error is created with ewrap so callers can match it with errors.Is after
// it has been wrapped with additional context.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInvalidKey is returned when an item is built with an empty key.
	ErrInvalidKey = ewrap.New("invalid key")

	// ErrInvalidExpiration is returned when a negative sliding expiration is passed to an item.
	ErrInvalidExpiration = ewrap.New("expiration cannot be negative")

	// ErrInvalidPriority is returned when an item priority is outside the Low..High range.
	ErrInvalidPriority = ewrap.New("invalid priority")

	// ErrInvalidCapacity is returned when a negative capacity is passed to a backend.
	ErrInvalidCapacity = ewrap.New("capacity cannot be negative")

	// ErrInvalidFillFactor is returned when the purge fill factor is not in (0, 1].
	ErrInvalidFillFactor = ewrap.New("fill factor must be in (0, 1]")

	// ErrCacheFull is returned by a backend that refuses new keys once its capacity is reached.
	ErrCacheFull = ewrap.New("cache is full")

	// ErrInsertFailed is returned when an insertion failed again after the purge-and-retry fallback.
	ErrInsertFailed = ewrap.New("insertion failed after purge")

	// ErrNilClient is returned when a nil client is passed to a persistent backend.
	ErrNilClient = ewrap.New("nil client")

	// ErrBackendNotFound is returned when no backend is given, or a backend name is not registered.
	ErrBackendNotFound = ewrap.New("backend not found")

	// ErrParamCannotBeEmpty is returned when a required parameter is empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrInvalidSize is returned when the size of a value cannot be computed.
	ErrInvalidSize = ewrap.New("invalid size")

	// ErrTimeoutOrCanceled is returned when a timeout or cancellation occurs.
	ErrTimeoutOrCanceled = ewrap.New("the operation timed out or was canceled")

	// ErrQueueClosed is returned when work is submitted to a stopped deferred queue.
	ErrQueueClosed = ewrap.New("deferred queue is closed")

	// ErrMgmtHTTPShutdownTimeout is returned when the management HTTP server fails to shutdown before context deadline.
	ErrMgmtHTTPShutdownTimeout = ewrap.New("management http shutdown timeout")

	// ErrInvalidConfig is returned when a configuration file fails validation.
	ErrInvalidConfig = ewrap.New("invalid configuration")
)
