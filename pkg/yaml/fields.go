package yaml

import (
	"reflect"
	"strings"
	"sync"
)

// fieldInfo describes one struct field as seen by Marshal and Unmarshal.
type fieldInfo struct {
	name      string
	index     []int
	omitEmpty bool
}

// structFieldCache maps reflect.Type to []fieldInfo.
var structFieldCache sync.Map

// structFields returns the encodable fields of t in declaration order.
// Fields of embedded structs without a name in their tag, and fields
// tagged ",inline", are promoted into the outer struct.
func structFields(t reflect.Type) []fieldInfo {
	if cached, ok := structFieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}
	fields := collectFields(t, nil)
	actual, _ := structFieldCache.LoadOrStore(t, fields)
	return actual.([]fieldInfo)
}

func collectFields(t reflect.Type, parent []int) []fieldInfo {
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, opts, skip := parseFieldTag(field)
		if skip {
			continue
		}
		index := append(append([]int(nil), parent...), i)

		ft := field.Type
		inline := opts["inline"] || (field.Anonymous && name == "")
		if inline && ft.Kind() == reflect.Struct {
			fields = append(fields, collectFields(ft, index)...)
			continue
		}
		// Unexported fields, embedded or not, are never encoded.
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		fields = append(fields, fieldInfo{
			name:      name,
			index:     index,
			omitEmpty: opts["omitempty"],
		})
	}
	return fields
}

// parseFieldTag splits the yaml struct tag into its name and options.
// A tag of "-" skips the field.
func parseFieldTag(field reflect.StructField) (name string, opts map[string]bool, skip bool) {
	tag, ok := field.Tag.Lookup("yaml")
	if !ok {
		return "", nil, false
	}
	if tag == "-" {
		return "", nil, true
	}
	parts := strings.Split(tag, ",")
	opts = make(map[string]bool, len(parts)-1)
	for _, opt := range parts[1:] {
		opts[opt] = true
	}
	return parts[0], opts, false
}

// fieldByName finds the field for a mapping key, preferring an exact match
// and falling back to a case-insensitive one.
func fieldByName(fields []fieldInfo, key string) (fieldInfo, bool) {
	for _, f := range fields {
		if f.name == key {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.name, key) {
			return f, true
		}
	}
	return fieldInfo{}, false
}

// isEmptyValue checks if a reflect.Value is considered empty for omitempty.
func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
