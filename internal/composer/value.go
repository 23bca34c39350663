package composer

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// MapItem is one key/value pair of a composed mapping.
type MapItem struct {
	Key   any
	Value any
}

// MapSlice is a composed mapping. Items keep their source order.
type MapSlice []MapItem

// Get returns the value stored under a string key.
func (m MapSlice) Get(key string) (any, bool) {
	for _, item := range m {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (m MapSlice) Keys() []any {
	keys := make([]any, len(m))
	for i, item := range m {
		keys[i] = item.Key
	}
	return keys
}

// KeyIdentity returns the string under which two mapping keys compare equal:
// the resolved type family followed by the value's canonical text. The int 1
// and the int 01 share an identity; the string "1" and the int 1 do not.
// Mappings compare without regard to order, sequences element by element.
func KeyIdentity(v any) string {
	var sb strings.Builder
	writeIdentity(&sb, v)
	return sb.String()
}

func writeIdentity(sb *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("null:")
	case bool:
		sb.WriteString("bool:")
		sb.WriteString(strconv.FormatBool(v))
	case int64:
		sb.WriteString("int:")
		sb.WriteString(strconv.FormatInt(v, 10))
	case *big.Int:
		sb.WriteString("int:")
		sb.WriteString(v.String())
	case float64:
		sb.WriteString("float:")
		switch {
		case math.IsNaN(v):
			sb.WriteString("nan")
		case v == 0:
			// -0 and 0 are the same key.
			sb.WriteString("0")
		default:
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case string:
		sb.WriteString("str:")
		sb.WriteString(strconv.Quote(v))
	case []byte:
		sb.WriteString("binary:")
		sb.WriteString(base64.StdEncoding.EncodeToString(v))
	case []any:
		sb.WriteString("seq:[")
		for i, item := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeIdentity(sb, item)
		}
		sb.WriteByte(']')
	case MapSlice:
		pairs := make([]string, len(v))
		for i, item := range v {
			pairs[i] = KeyIdentity(item.Key) + "=" + KeyIdentity(item.Value)
		}
		sort.Strings(pairs)
		sb.WriteString("map:{")
		sb.WriteString(strings.Join(pairs, ","))
		sb.WriteByte('}')
	default:
		panic(fmt.Sprintf("composer: unexpected value type %T", v))
	}
}

// DeepCopy returns a structural copy of v. It stops with ok=false once more
// than budget values have been copied; budget <= 0 means no limit. The
// number of values copied is returned either way.
func DeepCopy(v any, budget int) (copied any, n int, ok bool) {
	c := copier{budget: budget}
	out := c.copy(v)
	return out, c.n, !c.exceeded
}

type copier struct {
	budget   int
	n        int
	exceeded bool
}

func (c *copier) copy(v any) any {
	if c.exceeded {
		return nil
	}
	c.n++
	if c.budget > 0 && c.n > c.budget {
		c.exceeded = true
		return nil
	}

	switch v := v.(type) {
	case MapSlice:
		out := make(MapSlice, len(v))
		for i, item := range v {
			out[i] = MapItem{Key: c.copy(item.Key), Value: c.copy(item.Value)}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.copy(item)
		}
		return out
	case *big.Int:
		return new(big.Int).Set(v)
	case []byte:
		return append([]byte(nil), v...)
	default:
		// Scalars are immutable values.
		return v
	}
}
