package yaml

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
)

// ToInterface converts a parsed value into plain Go types: MapSlice becomes
// map[string]any and every nested value is converted as well. Non-string
// keys are rendered with KeyString.
//
// Example:
//
//	v, _ := yaml.Parse("name: Alice\ntags:\n  - go\n  - yaml")
//	data := yaml.ToInterface(v)
//	// data is map[string]any{"name": "Alice", "tags": []any{"go", "yaml"}}
func ToInterface(v any) any {
	switch v := v.(type) {
	case MapSlice:
		m := make(map[string]any, len(v))
		for _, item := range v {
			m[KeyString(item.Key)] = ToInterface(item.Value)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ToInterface(item)
		}
		return out
	default:
		return v
	}
}

// ToMap converts a parsed mapping into a map[string]any.
func ToMap(v any) (map[string]any, error) {
	m, ok := v.(MapSlice)
	if !ok {
		return nil, fmt.Errorf("yaml: expected a mapping, got %s", describeValue(v))
	}
	return ToInterface(m).(map[string]any), nil
}

// KeyString renders a mapping key as a string. Strings are returned as is;
// scalars use their canonical YAML form and collections their flow form.
func KeyString(k any) string {
	switch k := k.(type) {
	case string:
		return k
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case *big.Int:
		return k.String()
	case float64:
		return formatFloat(k)
	case []byte:
		return base64.StdEncoding.EncodeToString(k)
	default:
		data, err := marshalFlow(k)
		if err != nil {
			return fmt.Sprint(k)
		}
		return string(data)
	}
}

// ToAST converts a parsed value into shape's unified AST. Mappings and
// sequences become *ast.ObjectNode; sequences use the element indexes "0",
// "1", ... as property names. Scalars become *ast.LiteralNode.
func ToAST(v any) (ast.SchemaNode, error) {
	return toAST(v, ast.ZeroPosition())
}

func toAST(v any, pos ast.Position) (ast.SchemaNode, error) {
	switch val := v.(type) {
	case nil, bool, int64, float64, string, *big.Int, []byte:
		return ast.NewLiteralNode(val, pos), nil
	case int:
		return ast.NewLiteralNode(int64(val), pos), nil
	case MapSlice:
		props := make(map[string]ast.SchemaNode, len(val))
		for _, item := range val {
			key := KeyString(item.Key)
			node, err := toAST(item.Value, ast.ZeroPosition())
			if err != nil {
				return nil, fmt.Errorf("mapping property %s: %w", key, err)
			}
			props[key] = node
		}
		return ast.NewObjectNode(props, pos), nil
	case []any:
		props := make(map[string]ast.SchemaNode, len(val))
		for i, item := range val {
			node, err := toAST(item, ast.ZeroPosition())
			if err != nil {
				return nil, fmt.Errorf("sequence element %d: %w", i, err)
			}
			props[strconv.Itoa(i)] = node
		}
		return ast.NewObjectNode(props, pos), nil
	case map[string]any:
		props := make(map[string]ast.SchemaNode, len(val))
		for key, item := range val {
			node, err := toAST(item, ast.ZeroPosition())
			if err != nil {
				return nil, fmt.Errorf("mapping property %s: %w", key, err)
			}
			props[key] = node
		}
		return ast.NewObjectNode(props, pos), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// FromAST converts an AST produced by ToAST back into plain Go types.
// Object nodes whose properties are exactly "0".."n-1" become []any; other
// object nodes become map[string]any.
func FromAST(node ast.SchemaNode) any {
	switch n := node.(type) {
	case *ast.LiteralNode:
		return n.Value()
	case *ast.ObjectNode:
		props := n.Properties()
		if isSequence(props) {
			arr := make([]any, len(props))
			for i := range arr {
				arr[i] = FromAST(props[strconv.Itoa(i)])
			}
			return arr
		}
		m := make(map[string]any, len(props))
		for key, child := range props {
			m[key] = FromAST(child)
		}
		return m
	default:
		return nil
	}
}

// ReleaseTree returns every node of an AST to shape's node pools. The tree
// must not be used afterwards.
func ReleaseTree(node ast.SchemaNode) {
	switch n := node.(type) {
	case *ast.LiteralNode:
		ast.ReleaseLiteralNode(n)
	case *ast.ObjectNode:
		for _, child := range n.Properties() {
			ReleaseTree(child)
		}
		ast.ReleaseObjectNode(n)
	}
}

// isSequence reports whether the properties are the indexes of a sequence.
func isSequence(props map[string]ast.SchemaNode) bool {
	if len(props) == 0 {
		return false
	}
	for i := 0; i < len(props); i++ {
		if _, ok := props[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case MapSlice:
		return "mapping"
	case []any:
		return "sequence"
	case bool:
		return "bool"
	case int64, *big.Int:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "binary"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a float looking like a float so it resolves back to one.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
