package purgecache

import "github.com/hyp3rd/purgecache/internal/sentinel"

// Errors returned by the cache, usable with errors.Is.
var (
	ErrInvalidKey              = sentinel.ErrInvalidKey
	ErrInvalidExpiration       = sentinel.ErrInvalidExpiration
	ErrInvalidPriority         = sentinel.ErrInvalidPriority
	ErrInvalidFillFactor       = sentinel.ErrInvalidFillFactor
	ErrCacheFull               = sentinel.ErrCacheFull
	ErrInsertFailed            = sentinel.ErrInsertFailed
	ErrBackendNotFound         = sentinel.ErrBackendNotFound
	ErrTimeoutOrCanceled       = sentinel.ErrTimeoutOrCanceled
	ErrMgmtHTTPShutdownTimeout = sentinel.ErrMgmtHTTPShutdownTimeout
)
