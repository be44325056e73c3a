package backend

import (
	"time"

	"github.com/hyp3rd/purgecache/pkg/cache"
)

// record is the persisted form of an item. Removal callbacks are process-local
// functions and are not part of it.
type record struct {
	Key                string `json:"key"                msgpack:"key"`
	Value              []byte `json:"value"              msgpack:"value"`     // value encoded on its own
	ValueType          string `json:"valueType"          msgpack:"valueType"` // type name of the value, empty for nil
	ExpirationAbsolute int64  `json:"expirationAbsolute" msgpack:"expirationAbsolute"` // unix nanoseconds, 0 when unset
	ExpirationSliding  int64  `json:"expirationSliding"  msgpack:"expirationSliding"`  // nanoseconds
	Priority           int    `json:"priority"           msgpack:"priority"`
	LastAccess         int64  `json:"lastAccess"         msgpack:"lastAccess"` // unix nanoseconds
	AccessCount        uint32 `json:"accessCount"        msgpack:"accessCount"`
	Size               int64  `json:"size"               msgpack:"size"`
}

func newRecord(item *cache.Item, value []byte, valueType string) *record {
	rec := &record{
		Key:               item.Key,
		Value:             value,
		ValueType:         valueType,
		ExpirationSliding: int64(item.Options.ExpirationSliding),
		Priority:          int(item.Options.Priority),
		LastAccess:        item.LastAccess.UnixNano(),
		AccessCount:       item.AccessCount,
		Size:              item.Size,
	}

	if !item.Options.ExpirationAbsolute.IsZero() {
		rec.ExpirationAbsolute = item.Options.ExpirationAbsolute.UnixNano()
	}

	return rec
}

func (rec *record) item(value any) *cache.Item {
	item := &cache.Item{
		Key:   rec.Key,
		Value: value,
		Options: cache.Options{
			ExpirationSliding: time.Duration(rec.ExpirationSliding),
			Priority:          cache.Priority(rec.Priority),
		},
		LastAccess:  time.Unix(0, rec.LastAccess),
		AccessCount: rec.AccessCount,
		Size:        rec.Size,
	}

	if rec.ExpirationAbsolute != 0 {
		item.Options.ExpirationAbsolute = time.Unix(0, rec.ExpirationAbsolute)
	}

	if !item.Options.Priority.Valid() {
		item.Options.Priority = cache.PriorityNormal
	}

	return item
}
