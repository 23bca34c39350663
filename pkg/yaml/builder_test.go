package yaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingBuilder(t *testing.T) {
	b := NewMapping().
		Set("name", "Alice").
		Set("age", 30).
		SetMapping("address", func(addr *MappingBuilder) {
			addr.Set("city", "NYC").Set("zip", "10001")
		}).
		SetSequence("tags", func(seq *SequenceBuilder) {
			seq.Add("go").Add("yaml")
		}).
		Set("name", "Bob")

	m, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, MapSlice{
		{Key: "name", Value: "Bob"},
		{Key: "age", Value: int64(30)},
		{Key: "address", Value: MapSlice{{Key: "city", Value: "NYC"}, {Key: "zip", Value: "10001"}}},
		{Key: "tags", Value: []any{"go", "yaml"}},
	}, m)

	data, err := b.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, "name: Bob\nage: 30\naddress:\n  city: NYC\n  zip: \"10001\"\ntags:\n  - go\n  - yaml\n", string(data))

	back, err := Parse(string(data))
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestSequenceBuilder(t *testing.T) {
	b := NewSequence().
		Add("apple").
		AddMapping(func(m *MappingBuilder) { m.Set("k", true) }).
		AddSequence(func(s *SequenceBuilder) { s.Add(1).Add(2) }).
		AddMapping(func(*MappingBuilder) {})

	seq, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []any{"apple", MapSlice{{Key: "k", Value: true}}, []any{int64(1), int64(2)}, MapSlice{}}, seq)

	data, err := b.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, "- apple\n- k: true\n- - 1\n  - 2\n- {}\n", string(data))
}

func TestBuilder_ConversionError(t *testing.T) {
	_, err := NewMapping().Set("bad", make(chan int)).Set("ok", 1).Build()
	assert.ErrorContains(t, err, "unsupported type chan int")

	_, err = NewSequence().AddMapping(func(m *MappingBuilder) {
		m.Set("bad", func() {})
	}).ToYAML()
	assert.Error(t, err)
}
