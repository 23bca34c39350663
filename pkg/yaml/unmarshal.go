package yaml

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
)

// Unmarshaler is the interface implemented by types that can unmarshal a
// YAML value of themselves. UnmarshalYAML receives the parsed value in the
// form Parse returns it.
type Unmarshaler interface {
	UnmarshalYAML(value any) error
}

var unmarshalerType = reflect.TypeFor[Unmarshaler]()

// Unmarshal parses the YAML-encoded data and stores the result in the value
// pointed to by v. The data must hold a single well-formed document; the
// first parse error is returned as a *Error.
//
// Unmarshal uses the inverse of the encodings that Marshal uses, allocating
// maps, slices, and pointers as necessary, with the following additional
// rules:
//
// To unmarshal YAML into a pointer, Unmarshal first handles the case of the
// YAML being null. In that case, Unmarshal sets the pointer to nil.
// Otherwise it unmarshals into the value pointed at by the pointer,
// allocating it when the pointer is nil.
//
// To unmarshal a mapping into a struct, Unmarshal matches keys to the names
// Marshal uses, preferring an exact match but also accepting a
// case-insensitive match. Keys without a matching field are ignored.
//
// To unmarshal YAML into an interface value, Unmarshal stores one of these
// in the interface value:
//
//	bool, for YAML booleans
//	int64 or *big.Int, for YAML integers
//	float64, for YAML floats
//	string, for YAML strings
//	[]byte, for !!binary scalars
//	[]any, for YAML sequences
//	map[string]any, for YAML mappings
//	nil for YAML null
//
// A MapSlice target keeps mapping order.
//
// Example:
//
//	type Config struct {
//	    Name string
//	    Port int
//	}
//	var cfg Config
//	err := yaml.Unmarshal([]byte("name: server\nport: 8080"), &cfg)
func Unmarshal(data []byte, v any, opts ...Option) error {
	value, err := Parse(string(data), opts...)
	if err != nil {
		return err
	}
	return Decode(value, v)
}

// Decode stores a parsed value in the value pointed to by v, following the
// rules of Unmarshal.
func Decode(value, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return errors.New("yaml: Decode(nil)")
	}
	if rv.Kind() != reflect.Pointer {
		return errors.New("yaml: Decode(non-pointer " + rv.Type().String() + ")")
	}
	if rv.IsNil() {
		return errors.New("yaml: Decode(nil " + rv.Type().String() + ")")
	}
	return decodeValue(value, rv.Elem())
}

// decodeValue stores a parsed value into rv.
func decodeValue(val any, rv reflect.Value) error {
	if rv.CanAddr() && rv.Kind() != reflect.Pointer && rv.Addr().Type().Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalYAML(val)
	}

	// Handle null
	if val == nil {
		rv.SetZero()
		return nil
	}

	switch rv.Type() {
	case mapSliceType:
		m, ok := val.(MapSlice)
		if !ok {
			return mismatch(val, rv)
		}
		rv.Set(reflect.ValueOf(m))
		return nil
	case bigIntType:
		n, err := toBigInt(val)
		if err != nil {
			return mismatch(val, rv)
		}
		rv.Set(reflect.ValueOf(*n))
		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeValue(val, rv.Elem())
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return mismatch(val, rv)
		}
		plain := ToInterface(val)
		rv.Set(reflect.ValueOf(plain))
		return nil
	case reflect.String:
		s, ok := val.(string)
		if !ok {
			return mismatch(val, rv)
		}
		rv.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := val.(bool)
		if !ok {
			return mismatch(val, rv)
		}
		rv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decodeInt(val, rv)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return decodeUint(val, rv)
	case reflect.Float32, reflect.Float64:
		return decodeFloat(val, rv)
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if b, ok := val.([]byte); ok {
				rv.SetBytes(append([]byte(nil), b...))
				return nil
			}
		}
		return decodeSequence(val, rv)
	case reflect.Array:
		return decodeSequence(val, rv)
	case reflect.Map:
		return decodeMap(val, rv)
	case reflect.Struct:
		return decodeStruct(val, rv)
	}
	return fmt.Errorf("yaml: unsupported type %s", rv.Type())
}

func mismatch(val any, rv reflect.Value) error {
	return fmt.Errorf("yaml: cannot unmarshal %s into Go value of type %s", describeValue(val), rv.Type())
}

func toBigInt(val any) (*big.Int, error) {
	switch v := val.(type) {
	case int64:
		return big.NewInt(v), nil
	case *big.Int:
		return v, nil
	}
	return nil, errors.New("not an integer")
}

func decodeInt(val any, rv reflect.Value) error {
	var n int64
	switch v := val.(type) {
	case int64:
		n = v
	case *big.Int:
		if !v.IsInt64() {
			return fmt.Errorf("yaml: value %s overflows %s", v, rv.Type())
		}
		n = v.Int64()
	case float64:
		// Allow conversion from float to int if it's a whole number
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return fmt.Errorf("yaml: cannot unmarshal number %v into Go value of type %s", v, rv.Type())
		}
		n = int64(v)
	default:
		return mismatch(val, rv)
	}
	if rv.OverflowInt(n) {
		return fmt.Errorf("yaml: value %d overflows %s", n, rv.Type())
	}
	rv.SetInt(n)
	return nil
}

func decodeUint(val any, rv reflect.Value) error {
	var u uint64
	switch v := val.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("yaml: value %d overflows %s", v, rv.Type())
		}
		u = uint64(v)
	case *big.Int:
		if !v.IsUint64() {
			return fmt.Errorf("yaml: value %s overflows %s", v, rv.Type())
		}
		u = v.Uint64()
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
			return fmt.Errorf("yaml: cannot unmarshal number %v into Go value of type %s", v, rv.Type())
		}
		u = uint64(v)
	default:
		return mismatch(val, rv)
	}
	if rv.OverflowUint(u) {
		return fmt.Errorf("yaml: value %d overflows %s", u, rv.Type())
	}
	rv.SetUint(u)
	return nil
}

func decodeFloat(val any, rv reflect.Value) error {
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	case *big.Int:
		f, _ = new(big.Float).SetInt(v).Float64()
	default:
		return mismatch(val, rv)
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && rv.OverflowFloat(f) {
		return fmt.Errorf("yaml: value %v overflows %s", f, rv.Type())
	}
	rv.SetFloat(f)
	return nil
}

func decodeSequence(val any, rv reflect.Value) error {
	seq, ok := val.([]any)
	if !ok {
		return mismatch(val, rv)
	}

	switch rv.Kind() {
	case reflect.Slice:
		slice := reflect.MakeSlice(rv.Type(), len(seq), len(seq))
		for i, item := range seq {
			if err := decodeValue(item, slice.Index(i)); err != nil {
				return fmt.Errorf("sequence element %d: %w", i, err)
			}
		}
		rv.Set(slice)
		return nil
	default:
		if len(seq) > rv.Len() {
			return fmt.Errorf("yaml: sequence length %d exceeds target array length %d", len(seq), rv.Len())
		}
		for i, item := range seq {
			if err := decodeValue(item, rv.Index(i)); err != nil {
				return fmt.Errorf("sequence element %d: %w", i, err)
			}
		}
		return nil
	}
}

func decodeMap(val any, rv reflect.Value) error {
	m, ok := val.(MapSlice)
	if !ok {
		return mismatch(val, rv)
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(rv.Type(), len(m)))
	}

	keyType, elemType := rv.Type().Key(), rv.Type().Elem()
	for _, item := range m {
		key := reflect.New(keyType).Elem()
		if keyType.Kind() == reflect.String {
			key.SetString(KeyString(item.Key))
		} else if err := decodeValue(item.Key, key); err != nil {
			return fmt.Errorf("mapping key %s: %w", KeyString(item.Key), err)
		}
		if key.Kind() == reflect.Interface && !key.IsNil() && !key.Elem().Type().Comparable() {
			return fmt.Errorf("yaml: mapping key %s cannot be used as a Go map key", KeyString(item.Key))
		}

		elem := reflect.New(elemType).Elem()
		if err := decodeValue(item.Value, elem); err != nil {
			return fmt.Errorf("mapping property %s: %w", KeyString(item.Key), err)
		}
		rv.SetMapIndex(key, elem)
	}
	return nil
}

func decodeStruct(val any, rv reflect.Value) error {
	m, ok := val.(MapSlice)
	if !ok {
		return mismatch(val, rv)
	}
	fields := structFields(rv.Type())
	for _, item := range m {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		f, ok := fieldByName(fields, name)
		if !ok {
			continue
		}
		if err := decodeValue(item.Value, rv.FieldByIndex(f.index)); err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
	}
	return nil
}
