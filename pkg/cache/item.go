package cache

import (
	"bytes"
	"encoding"
	"sync"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/hyp3rd/purgecache/internal/sentinel"
)

const bytesPerKB = 1024

//nolint:gochecknoglobals
var cborHandle = &codec.CborHandle{}

//nolint:gochecknoglobals
var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Item is one entry of the cache: the value plus its expiration and eviction metadata.
type Item struct {
	Key         string    // key of the item
	Value       any       // value of the item, opaque to the cache
	Options     Options   // expiration, priority and removal callback
	LastAccess  time.Time // creation time, then time of the last successful read
	AccessCount uint32    // number of successful reads
	Size        int64     // encoded size of the value in bytes
}

// NewItem builds an item created at now and validates it.
func NewItem(key string, value any, now time.Time, opts ...Option) (*Item, error) {
	item := &Item{
		Key:        key,
		Value:      value,
		LastAccess: now,
	}

	ApplyOptions(&item.Options, opts...)

	if item.Options.Priority == 0 {
		item.Options.Priority = PriorityNormal
	}

	if item.Options.ExpirationAbsolute.IsZero() && item.Options.expiresIn > 0 {
		item.Options.ExpirationAbsolute = now.Add(item.Options.expiresIn)
	}

	err := item.Valid()
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Valid returns an error if the item cannot be stored.
func (it *Item) Valid() error {
	if it.Key == "" {
		return sentinel.ErrInvalidKey
	}

	if it.Options.ExpirationSliding < 0 || it.Options.expiresIn < 0 {
		return sentinel.ErrInvalidExpiration
	}

	if !it.Options.Priority.Valid() {
		return sentinel.ErrInvalidPriority
	}

	return nil
}

// Expired reports whether the item is expired at now. The absolute expiration is
// checked first; the sliding window is only considered when it did not fire.
func (it *Item) Expired(now time.Time) bool {
	if !it.Options.ExpirationAbsolute.IsZero() && it.Options.ExpirationAbsolute.Before(now) {
		return true
	}

	return it.Options.ExpirationSliding > 0 && it.LastAccess.Add(it.Options.ExpirationSliding).Before(now)
}

// Touch records a successful read at now.
func (it *Item) Touch(now time.Time) {
	it.LastAccess = now
	it.AccessCount++
}

// Clone returns a shallow copy of the item. The value itself is shared.
func (it *Item) Clone() *Item {
	out := *it

	return &out
}

// SizeKB returns the size of the Item in kilobytes.
func (it *Item) SizeKB() float64 { return float64(it.Size) / bytesPerKB }

// Sizer allows custom values to report their encoded size without serialization.
type Sizer interface{ SizeBytes() int }

// SetSize computes the encoded size of the value. Common types take a fast path,
// everything else is measured as CBOR.
func (it *Item) SetSize() error {
	switch val := it.Value.(type) {
	case nil:
		it.Size = 0

		return nil
	case []byte:
		it.Size = int64(len(val))

		return nil
	case string:
		it.Size = int64(len(val))

		return nil
	case Sizer:
		it.Size = int64(val.SizeBytes())

		return nil
	case encoding.BinaryMarshaler:
		b, err := val.MarshalBinary()
		if err != nil {
			return sentinel.ErrInvalidSize
		}

		it.Size = int64(len(b))

		return nil
	}

	buf, ok := bufPool.Get().(*bytes.Buffer)
	if !ok {
		buf = new(bytes.Buffer)
	}

	buf.Reset()

	const maxKeepCap = 1 << 20

	defer func() {
		if buf.Cap() <= maxKeepCap {
			bufPool.Put(buf)
		}
	}()

	err := codec.NewEncoder(buf, cborHandle).Encode(it.Value)
	if err != nil {
		return sentinel.ErrInvalidSize
	}

	it.Size = int64(buf.Len())

	return nil
}
