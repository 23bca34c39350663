package yaml

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appConfig struct {
	Name     string            `yaml:"name"`
	Port     uint16            `yaml:"port"`
	Debug    bool              `yaml:"debug"`
	Ratio    float32           `yaml:"ratio"`
	Hosts    []string          `yaml:"hosts"`
	Limits   map[string]int    `yaml:"limits"`
	Owner    *person           `yaml:"owner"`
	Backup   *person           `yaml:"backup"`
	Extra    any               `yaml:"extra"`
	Ordered  MapSlice          `yaml:"ordered"`
	Payload  []byte            `yaml:"payload"`
	Fixed    [2]int            `yaml:"fixed"`
	Ignored  string            `yaml:"-"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

type person struct {
	Name string
	Age  int
}

func TestUnmarshal_Struct(t *testing.T) {
	input := `name: api
port: 8080
debug: true
ratio: 0.5
hosts: [a, b]
limits:
  cpu: 2
  mem: 512
owner:
  name: Alice
  AGE: 30
backup: null
extra: {k: [1, x]}
ordered: {z: 1, a: 2}
payload: !!binary aGk=
fixed: [7, 8]
Ignored: nope
unknown: skipped
`
	var cfg appConfig
	require.NoError(t, Unmarshal([]byte(input), &cfg))

	assert.Equal(t, "api", cfg.Name)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, float32(0.5), cfg.Ratio)
	assert.Equal(t, []string{"a", "b"}, cfg.Hosts)
	assert.Equal(t, map[string]int{"cpu": 2, "mem": 512}, cfg.Limits)
	require.NotNil(t, cfg.Owner)
	assert.Equal(t, person{Name: "Alice", Age: 30}, *cfg.Owner)
	assert.Nil(t, cfg.Backup)
	assert.Equal(t, map[string]any{"k": []any{int64(1), "x"}}, cfg.Extra)
	assert.Equal(t, MapSlice{{Key: "z", Value: int64(1)}, {Key: "a", Value: int64(2)}}, cfg.Ordered)
	assert.Equal(t, []byte("hi"), cfg.Payload)
	assert.Equal(t, [2]int{7, 8}, cfg.Fixed)
	assert.Empty(t, cfg.Ignored)
}

func TestUnmarshal_Interface(t *testing.T) {
	var v any
	require.NoError(t, Unmarshal([]byte("a: [1, 2.5, true, ~]\n1: int key\n"), &v))
	assert.Equal(t, map[string]any{
		"a": []any{int64(1), 2.5, true, nil},
		"1": "int key",
	}, v)
}

func TestUnmarshal_MapKeys(t *testing.T) {
	var byInt map[int]string
	require.NoError(t, Unmarshal([]byte("1: one\n2: two\n"), &byInt))
	assert.Equal(t, map[int]string{1: "one", 2: "two"}, byInt)

	var byAny map[any]int
	require.NoError(t, Unmarshal([]byte("a: 1\n2: 2\n"), &byAny))
	assert.Equal(t, map[any]int{"a": 1, int64(2): 2}, byAny)

	err := Unmarshal([]byte("? [a]\n: 1\n"), &byAny)
	assert.ErrorContains(t, err, "cannot be used as a Go map key")
}

func TestUnmarshal_Numbers(t *testing.T) {
	var small struct {
		I8    int8
		U     uint
		F     float64
		Big   *big.Int
		Whole int
	}
	require.NoError(t, Unmarshal([]byte("i8: -128\nu: 0x10\nf: 3\nbig: 99999999999999999999\nwhole: 4.0\n"), &small))
	assert.Equal(t, int8(-128), small.I8)
	assert.Equal(t, uint(16), small.U)
	assert.Equal(t, 3.0, small.F)
	assert.Equal(t, "99999999999999999999", small.Big.String())
	assert.Equal(t, 4, small.Whole)

	tests := []struct {
		name   string
		input  string
		target any
		msg    string
	}{
		{"int overflow", "300", new(int8), "overflows int8"},
		{"negative uint", "-1", new(uint), "overflows uint"},
		{"big into int64", "99999999999999999999", new(int64), "overflows int64"},
		{"fraction into int", "1.5", new(int), "cannot unmarshal number 1.5"},
		{"string into int", "abc", new(int), "cannot unmarshal string into Go value of type int"},
		{"int into string", "12", new(string), "cannot unmarshal int into Go value of type string"},
		{"mapping into slice", "a: 1", new([]string), "cannot unmarshal mapping"},
		{"sequence too long", "[1, 2, 3]", new([2]int), "exceeds target array length 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte(tt.input), tt.target)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestUnmarshal_InvalidTarget(t *testing.T) {
	assert.ErrorContains(t, Unmarshal([]byte("a: 1"), nil), "Decode(nil)")

	var m map[string]any
	assert.ErrorContains(t, Unmarshal([]byte("a: 1"), m), "non-pointer")

	var p *map[string]any
	assert.ErrorContains(t, Unmarshal([]byte("a: 1"), p), "nil *map")
}

func TestUnmarshal_ParseError(t *testing.T) {
	var v any
	err := Unmarshal([]byte("a: 1\na: 2\n"), &v)

	var yerr *Error
	require.ErrorAs(t, err, &yerr)
	assert.Equal(t, DuplicateKey, yerr.Code)
}

func TestUnmarshal_Options(t *testing.T) {
	var flags map[string]bool
	require.NoError(t, Unmarshal([]byte("a: on\nb: no\n"), &flags, WithYAML11Booleans(true)))
	assert.Equal(t, map[string]bool{"a": true, "b": false}, flags)

	err := Unmarshal([]byte("a: on\n"), &flags)
	assert.ErrorContains(t, err, "cannot unmarshal string into Go value of type bool")
}

type upper string

func (u *upper) UnmarshalYAML(value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("upper: not a string")
	}
	*u = upper(strings.ToUpper(s))
	return nil
}

func TestUnmarshal_Unmarshaler(t *testing.T) {
	var v struct {
		Names []upper `yaml:"names"`
		One   *upper  `yaml:"one"`
	}
	require.NoError(t, Unmarshal([]byte("names: [ab, cd]\none: ef\n"), &v))
	assert.Equal(t, []upper{"AB", "CD"}, v.Names)
	require.NotNil(t, v.One)
	assert.Equal(t, upper("EF"), *v.One)

	err := Unmarshal([]byte("names: [1]\n"), &v)
	assert.ErrorContains(t, err, "upper: not a string")
}

func TestDecode(t *testing.T) {
	v, err := Parse("name: Bob\nage: 41\n")
	require.NoError(t, err)

	var p person
	require.NoError(t, Decode(v, &p))
	assert.Equal(t, person{Name: "Bob", Age: 41}, p)
}

func TestMarshalUnmarshal_Struct(t *testing.T) {
	in := appConfig{
		Name:    "svc",
		Port:    443,
		Hosts:   []string{"x", "y: z"},
		Limits:  map[string]int{"cpu": 1},
		Owner:   &person{Name: "Ann", Age: 9},
		Ordered: MapSlice{{Key: "b", Value: int64(1)}, {Key: "a", Value: "text"}},
		Payload: []byte{0, 1, 2},
		Fixed:   [2]int{1, 2},
		Extra:   []any{"a", int64(1)},
	}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out appConfig
	require.NoError(t, Unmarshal(data, &out), "marshaled:\n%s", data)
	assert.Equal(t, in, out)
}
