// Package attrs defines the telemetry attribute keys shared by the observability middlewares.
package attrs

const (
	// AttrMethod is the engine method a span or a measurement belongs to.
	AttrMethod = "method"
	// AttrKeyLength is the length of the cache key in bytes.
	AttrKeyLength = "key.len"
	// AttrHit reports whether a read found a live item.
	AttrHit = "hit"
	// AttrRemoved reports whether a removal found an item.
	AttrRemoved = "removed"
	// AttrPriority is the priority of an inserted item.
	AttrPriority = "priority"
	// AttrCount is the number of items held by the backend.
	AttrCount = "items.count"
)
