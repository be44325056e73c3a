package backend

import (
	"reflect"
	"time"
)

// valueTypes maps type names to the Go types stored values are decoded into.
type valueTypes map[string]reflect.Type

func defaultValueTypes() valueTypes {
	types := make(valueTypes)
	types.register(
		false, "", []byte(nil),
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		time.Duration(0), time.Time{},
		[]string(nil), []int(nil), []float64(nil), map[string]string(nil),
	)

	return types
}

func (types valueTypes) register(samples ...any) {
	for _, sample := range samples {
		if sample == nil {
			continue
		}

		t := reflect.TypeOf(sample)
		types[valueTypeName(t)] = t
	}
}

// valueTypeName qualifies named types with their package path so that two types
// with the same name in different packages do not collide.
func valueTypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + valueTypeName(t.Elem())
	}

	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}

// encodeValue serializes value on its own and names its type. A nil value has no type.
func (cacheBackend *Redis) encodeValue(value any) ([]byte, string, error) {
	if value == nil {
		return nil, "", nil
	}

	data, err := cacheBackend.Serializer.Marshal(value)
	if err != nil {
		return nil, "", err
	}

	return data, valueTypeName(reflect.TypeOf(value)), nil
}

// decodeValue restores a value into its registered type. Values of unregistered types
// come back in the generic form of the serializer (maps, slices of any, widest numbers).
func (cacheBackend *Redis) decodeValue(data []byte, typeName string) (any, error) {
	if typeName == "" {
		return nil, nil
	}

	if t, ok := cacheBackend.valueTypes[typeName]; ok {
		ptr := reflect.New(t)

		err := cacheBackend.Serializer.Unmarshal(data, ptr.Interface())
		if err != nil {
			return nil, err
		}

		return ptr.Elem().Interface(), nil
	}

	var value any

	err := cacheBackend.Serializer.Unmarshal(data, &value)
	if err != nil {
		return nil, err
	}

	return value, nil
}
