// Package serializer converts item records to and from bytes for the persistent backends.
//
// Two codecs are registered by default: "msgpack" (shamaton/msgpack) and "json"
// (goccy/go-json). Custom codecs can be added to a Registry.
package serializer

import (
	"slices"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/purgecache/internal/sentinel"
)

// ISerializer is the interface that wraps the basic serializer methods.
type ISerializer interface {
	// Marshal serializes the given value into a byte slice.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes the given byte slice into the value pointed to by v.
	Unmarshal(data []byte, v any) error
}

// Registry manages serializer constructors by name.
type Registry struct {
	serializers map[string]func() ISerializer
}

// NewSerializerRegistry creates a registry with the default serializers pre-registered.
func NewSerializerRegistry() *Registry {
	registry := NewEmptySerializerRegistry()

	registry.Register("msgpack", func() ISerializer { return &MsgpackSerializer{} })
	registry.Register("json", func() ISerializer { return &JSONSerializer{} })

	return registry
}

// NewEmptySerializerRegistry creates a registry without serializers.
func NewEmptySerializerRegistry() *Registry {
	return &Registry{
		serializers: make(map[string]func() ISerializer),
	}
}

// Register registers a serializer constructor under the given name, replacing any previous one.
func (r *Registry) Register(name string, createFunc func() ISerializer) {
	r.serializers[name] = createFunc
}

// Names returns the registered serializer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.serializers))
	for name := range r.serializers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// New returns a new serializer registered under name.
func (r *Registry) New(name string) (ISerializer, error) {
	if name == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "serializer name")
	}

	createFunc, ok := r.serializers[name]
	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrSerializerNotFound, name)
	}

	return createFunc(), nil
}

// New returns a serializer from the default registry.
func New(name string) (ISerializer, error) {
	return NewSerializerRegistry().New(name)
}
