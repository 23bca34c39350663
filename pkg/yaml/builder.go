package yaml

import "reflect"

// MappingBuilder provides a fluent API for building ordered mappings.
// Setting a key that is already present replaces its value in place.
type MappingBuilder struct {
	items MapSlice
	err   error
}

// NewMapping creates a new mapping builder.
func NewMapping() *MappingBuilder {
	return &MappingBuilder{}
}

// Set adds a key-value pair to the mapping. Go values are converted the
// way Marshal converts them.
func (b *MappingBuilder) Set(key string, value any) *MappingBuilder {
	v, err := normalize(reflect.ValueOf(value), 0)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.put(key, v)
	return b
}

// SetMapping adds a nested mapping.
func (b *MappingBuilder) SetMapping(key string, fn func(*MappingBuilder)) *MappingBuilder {
	nested := NewMapping()
	fn(nested)
	m, err := nested.Build()
	if err != nil && b.err == nil {
		b.err = err
	}
	b.put(key, m)
	return b
}

// SetSequence adds a nested sequence.
func (b *MappingBuilder) SetSequence(key string, fn func(*SequenceBuilder)) *MappingBuilder {
	nested := NewSequence()
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	b.put(key, nested.items)
	return b
}

func (b *MappingBuilder) put(key string, v any) {
	for i := range b.items {
		if b.items[i].Key == key {
			b.items[i].Value = v
			return
		}
	}
	b.items = append(b.items, MapItem{Key: key, Value: v})
}

// Build returns the mapping and the first conversion error, if any.
func (b *MappingBuilder) Build() (MapSlice, error) {
	if b.items == nil {
		b.items = MapSlice{}
	}
	return b.items, b.err
}

// ToYAML marshals the mapping.
func (b *MappingBuilder) ToYAML() ([]byte, error) {
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Marshal(m)
}

// SequenceBuilder provides a fluent API for building sequences.
type SequenceBuilder struct {
	items []any
	err   error
}

// NewSequence creates a new sequence builder.
func NewSequence() *SequenceBuilder {
	return &SequenceBuilder{items: []any{}}
}

// Add appends a value to the sequence.
func (b *SequenceBuilder) Add(value any) *SequenceBuilder {
	v, err := normalize(reflect.ValueOf(value), 0)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.items = append(b.items, v)
	return b
}

// AddMapping appends a nested mapping.
func (b *SequenceBuilder) AddMapping(fn func(*MappingBuilder)) *SequenceBuilder {
	nested := NewMapping()
	fn(nested)
	m, err := nested.Build()
	if err != nil && b.err == nil {
		b.err = err
	}
	b.items = append(b.items, m)
	return b
}

// AddSequence appends a nested sequence.
func (b *SequenceBuilder) AddSequence(fn func(*SequenceBuilder)) *SequenceBuilder {
	nested := NewSequence()
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	b.items = append(b.items, nested.items)
	return b
}

// Build returns the sequence and the first conversion error, if any.
func (b *SequenceBuilder) Build() ([]any, error) {
	return b.items, b.err
}

// ToYAML marshals the sequence.
func (b *SequenceBuilder) ToYAML() ([]byte, error) {
	seq, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Marshal(seq)
}
