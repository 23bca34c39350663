package yaml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/shapestone/shape-yaml-strict/internal/composer"
)

// maxMarshalDepth bounds nesting while marshaling so that cyclic values
// fail instead of recursing forever.
const maxMarshalDepth = 1000

// bufferPool is a pool of bytes.Buffer instances to reduce allocations during marshaling.
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool if it's not too large.
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= 64*1024 {
		bufferPool.Put(buf)
	}
}

// Marshaler is the interface implemented by types that can marshal
// themselves. MarshalYAML returns a value that is marshaled in place of the
// receiver.
type Marshaler interface {
	MarshalYAML() (any, error)
}

var (
	marshalerType = reflect.TypeFor[Marshaler]()
	mapSliceType  = reflect.TypeFor[MapSlice]()
	bigIntType    = reflect.TypeFor[big.Int]()
)

// Marshal returns the YAML encoding of v in block style.
//
// Marshal accepts the values produced by Parse as well as Go values:
//
// Booleans, integers, floats and strings encode as scalars. Strings are
// double-quoted when their plain form would read back as another type or
// would not be a valid plain scalar.
//
// *big.Int encodes as an integer and []byte as a !!binary scalar.
//
// Slices and arrays encode as sequences; a nil slice encodes as null.
//
// MapSlice encodes as a mapping in its own order. Maps encode as mappings
// with keys sorted by their string form.
//
// Struct values encode as mappings with one key per exported field in
// declaration order. The "yaml" struct tag sets the key name and accepts
// the options "omitempty" and "inline"; a tag of "-" skips the field.
// Fields without a tag use the lower-cased field name.
//
// Channel, complex, and function values cannot be encoded, and neither can
// cyclic data structures.
//
// Example:
//
//	type Config struct {
//	    Name string
//	    Port int
//	}
//	data, err := yaml.Marshal(Config{Name: "server", Port: 8080})
//	// data is []byte("name: server\nport: 8080\n")
//
// Parse(Marshal(v)) reproduces any value returned by Parse, key order
// included.
func Marshal(v any) ([]byte, error) {
	value, err := normalize(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}

	buf := getBuffer()
	defer putBuffer(buf)
	e := emitter{buf: buf}
	e.block(value, 0, false)

	// Must copy since buffer will be returned to pool
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// marshalFlow renders v on a single line in flow style.
func marshalFlow(v any) ([]byte, error) {
	value, err := normalize(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}
	buf := getBuffer()
	defer putBuffer(buf)
	e := emitter{buf: buf}
	e.flow(value)
	return bytes.Clone(buf.Bytes()), nil
}

// normalize converts a Go value into the value model of this package:
// nil, bool, int64, *big.Int, float64, string, []byte, []any and MapSlice.
func normalize(rv reflect.Value, depth int) (any, error) {
	if depth > maxMarshalDepth {
		return nil, fmt.Errorf("yaml: value nested deeper than %d levels (cyclic data?)", maxMarshalDepth)
	}
	if !rv.IsValid() {
		return nil, nil
	}

	if rv.Type().Implements(marshalerType) {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, nil
		}
		out, err := rv.Interface().(Marshaler).MarshalYAML()
		if err != nil {
			return nil, fmt.Errorf("yaml: %s.MarshalYAML: %w", rv.Type(), err)
		}
		return normalize(reflect.ValueOf(out), depth+1)
	}
	if rv.Kind() != reflect.Pointer && rv.CanAddr() && rv.Addr().Type().Implements(marshalerType) {
		return normalize(rv.Addr(), depth)
	}

	switch rv.Type() {
	case mapSliceType:
		m := rv.Interface().(MapSlice)
		out := make(MapSlice, len(m))
		for i, item := range m {
			k, err := normalize(reflect.ValueOf(item.Key), depth+1)
			if err != nil {
				return nil, err
			}
			val, err := normalize(reflect.ValueOf(item.Value), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = MapItem{Key: k, Value: val}
		}
		return out, nil
	case bigIntType:
		n := rv.Interface().(big.Int)
		return new(big.Int).Set(&n), nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem(), depth+1)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return new(big.Int).SetUint64(u), nil
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return bytes.Clone(rv.Bytes()), nil
		}
		return normalizeSeq(rv, depth)
	case reflect.Array:
		return normalizeSeq(rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeMap(rv, depth)
	case reflect.Struct:
		return normalizeStruct(rv, depth)
	}
	return nil, fmt.Errorf("yaml: unsupported type %s", rv.Type())
}

func normalizeSeq(rv reflect.Value, depth int) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		v, err := normalize(rv.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalizeMap(rv reflect.Value, depth int) (any, error) {
	type entry struct {
		sortKey string
		item    MapItem
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := normalize(iter.Key(), depth+1)
		if err != nil {
			return nil, err
		}
		v, err := normalize(iter.Value(), depth+1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{sortKey: KeyString(k), item: MapItem{Key: k, Value: v}})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sortKey < entries[j].sortKey
	})
	out := make(MapSlice, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out, nil
}

func normalizeStruct(rv reflect.Value, depth int) (any, error) {
	fields := structFields(rv.Type())
	out := make(MapSlice, 0, len(fields))
	for _, f := range fields {
		fv := rv.FieldByIndex(f.index)
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		v, err := normalize(fv, depth+1)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.name, err)
		}
		out = append(out, MapItem{Key: f.name, Value: v})
	}
	return out, nil
}

// emitter writes normalized values.
type emitter struct {
	buf *bytes.Buffer
}

func (e *emitter) indent(n int) {
	for range n {
		e.buf.WriteByte(' ')
	}
}

// block writes v starting at the current line. inline reports that the
// indentation of the first line has already been written, as after "- ".
func (e *emitter) block(v any, indent int, inline bool) {
	switch v := v.(type) {
	case MapSlice:
		if len(v) == 0 {
			e.buf.WriteString("{}\n")
			return
		}
		for i, item := range v {
			if i > 0 || !inline {
				e.indent(indent)
			}
			e.mapItem(item, indent)
		}
	case []any:
		if len(v) == 0 {
			e.buf.WriteString("[]\n")
			return
		}
		for i, item := range v {
			if i > 0 || !inline {
				e.indent(indent)
			}
			e.buf.WriteByte('-')
			e.nested(item, indent+2, true)
		}
	default:
		e.scalar(v)
		e.buf.WriteByte('\n')
	}
}

func (e *emitter) mapItem(item MapItem, indent int) {
	if isCollection(item.Key) {
		e.buf.WriteString("? ")
		e.flow(item.Key)
		e.buf.WriteByte('\n')
		e.indent(indent)
	} else {
		e.scalar(item.Key)
	}
	e.buf.WriteByte(':')
	e.nested(item.Value, indent+2, false)
}

// nested writes a value that follows "key:" or "-" on the same line.
// Sequence entries can start a compact collection on that line; mapping
// values that are collections begin on the next line.
func (e *emitter) nested(v any, indent int, compact bool) {
	if !isCollection(v) {
		e.buf.WriteByte(' ')
		e.block(v, indent, true)
		return
	}
	if compact {
		e.buf.WriteByte(' ')
		e.block(v, indent, true)
		return
	}
	e.buf.WriteByte('\n')
	e.block(v, indent, false)
}

func (e *emitter) flow(v any) {
	switch v := v.(type) {
	case MapSlice:
		e.buf.WriteByte('{')
		for i, item := range v {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			if isCollection(item.Key) {
				e.buf.WriteString("? ")
			}
			e.flow(item.Key)
			e.buf.WriteString(": ")
			e.flow(item.Value)
		}
		e.buf.WriteByte('}')
	case []any:
		e.buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			e.flow(item)
		}
		e.buf.WriteByte(']')
	default:
		e.scalar(v)
	}
}

func (e *emitter) scalar(v any) {
	switch v := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		e.buf.WriteString(strconv.FormatBool(v))
	case int64:
		e.buf.WriteString(strconv.FormatInt(v, 10))
	case *big.Int:
		e.buf.WriteString(v.String())
	case float64:
		e.buf.WriteString(formatFloat(v))
	case []byte:
		e.buf.WriteString("!!binary ")
		if len(v) == 0 {
			e.buf.WriteString(`""`)
			return
		}
		e.buf.WriteString(base64.StdEncoding.EncodeToString(v))
	case string:
		if canBePlain(v) {
			e.buf.WriteString(v)
			return
		}
		e.buf.WriteByte('"')
		e.buf.Write(appendEscaped(nil, v))
		e.buf.WriteByte('"')
	default:
		panic(fmt.Sprintf("yaml: unexpected normalized value %T", v))
	}
}

func isCollection(v any) bool {
	switch v := v.(type) {
	case MapSlice:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return false
}

// canBePlain reports whether s can be written as a plain scalar in both
// block and flow context and read back as the same string.
func canBePlain(s string) bool {
	if s == "" || s == "<<" || !composer.PlainIsString(s) {
		return false
	}
	if strings.HasPrefix(s, "...") {
		return false
	}
	switch s[0] {
	case '-', '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`', ' ':
		return false
	}
	if s[len(s)-1] == ' ' {
		return false
	}
	for _, r := range s {
		switch {
		case strings.ContainsRune(":#,[]{}", r):
			return false
		case r < 0x20 || r == 0x7f || r == 0xFEFF || r == utf8.RuneError:
			return false
		case r >= 0x80 && r <= 0x9f, r == 0x2028, r == 0x2029:
			return false
		}
	}
	return true
}

// appendEscaped appends s escaped for a double-quoted scalar, without the
// surrounding quotes.
func appendEscaped(buf []byte, s string) []byte {
	for i, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case 0:
			buf = append(buf, '\\', '0')
		case 0x85:
			buf = append(buf, '\\', 'N')
		case 0x2028:
			buf = append(buf, '\\', 'L')
		case 0x2029:
			buf = append(buf, '\\', 'P')
		case 0xFEFF:
			buf = append(buf, `\uFEFF`...)
		case utf8.RuneError:
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				buf = fmt.Appendf(buf, `\x%02X`, s[i])
				continue
			}
			buf = utf8.AppendRune(buf, r)
		default:
			if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
				buf = fmt.Appendf(buf, `\x%02X`, r)
				continue
			}
			buf = utf8.AppendRune(buf, r)
		}
	}
	return buf
}
