package yaml

import (
	"math"
	"math/big"
	"testing"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInterface(t *testing.T) {
	v, err := Parse("name: Alice\ntags:\n  - go\n  - yaml\n2: two\n? [a, b]\n: pair\n")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":   "Alice",
		"tags":   []any{"go", "yaml"},
		"2":      "two",
		"[a, b]": "pair",
	}, ToInterface(v))
}

func TestToMap(t *testing.T) {
	m, err := ToMap(MapSlice{{Key: "a", Value: MapSlice{{Key: "b", Value: int64(1)}}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": int64(1)}}, m)

	_, err = ToMap([]any{1})
	assert.EqualError(t, err, "yaml: expected a mapping, got sequence")
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  any
		want string
	}{
		{"s", "s"},
		{nil, "null"},
		{true, "true"},
		{int64(-3), "-3"},
		{big.NewInt(12), "12"},
		{2.0, "2.0"},
		{math.NaN(), ".nan"},
		{[]byte("hi"), "aGk="},
		{[]any{"a", int64(1)}, "[a, 1]"},
		{MapSlice{{Key: "k", Value: "v"}}, "{k: v}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyString(tt.key))
	}
}

func TestToAST(t *testing.T) {
	v, err := Parse("name: Alice\nitems: [1, two]\n")
	require.NoError(t, err)

	node, err := ToAST(v)
	require.NoError(t, err)
	defer ReleaseTree(node)

	obj, ok := node.(*ast.ObjectNode)
	require.True(t, ok, "ToAST returned %T", node)

	name, ok := obj.GetProperty("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name.(*ast.LiteralNode).Value())

	items, ok := obj.GetProperty("items")
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), "two"}, FromAST(items))
}

func TestToAST_Unsupported(t *testing.T) {
	_, err := ToAST(MapSlice{{Key: "c", Value: make(chan int)}})
	assert.ErrorContains(t, err, "mapping property c: unsupported type: chan int")
}

func TestFromAST_Empty(t *testing.T) {
	node, err := ToAST(MapSlice{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, FromAST(node))
	assert.Nil(t, FromAST(nil))
}
