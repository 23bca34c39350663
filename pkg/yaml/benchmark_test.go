package yaml

import (
	"strings"
	"testing"
	"time"

	yamlv3 "gopkg.in/yaml.v3"
)

var testYAML = "name: BenchmarkTest\nversion: \"1.0\"\nenabled: true\ncount: 42\nitems:\n  - a\n  - b\n"

type BenchConfig struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	Enabled bool     `yaml:"enabled"`
	Count   int      `yaml:"count"`
	Items   []string `yaml:"items"`
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Parse(testYAML); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseReader(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		if _, err := ParseReader(strings.NewReader(testYAML)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseLarge(b *testing.B) {
	var sb strings.Builder
	for i := range 1000 {
		sb.WriteString("key")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString(string(rune('a' + i%26)))
		sb.WriteString(string(rune('a' + (i/26)%26)))
		sb.WriteString(string(rune('a' + i/676)))
		sb.WriteString(": [1, two, {three: 3}]\n")
	}
	input := sb.String()
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Parse(input); err != nil {
			b.Fatal(err)
		}
	}
}

// longLineJSON returns minified JSON of about size bytes on one line.
func longLineJSON(size int) string {
	var sb strings.Builder
	sb.WriteString(`{"items":[`)
	for i := 0; sb.Len() < size; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(`{"id":1,"name":"élan","tags":["a","b"]}`)
	}
	sb.WriteString("]}")
	return sb.String()
}

func TestParse_LongLine(t *testing.T) {
	input := longLineJSON(200 << 10)
	start := time.Now()
	v, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("parsing a %d byte line took %s", len(input), elapsed)
	}
	items, _ := v.(MapSlice).Get("items")
	if n := len(items.([]any)); n < 1000 {
		t.Errorf("expected the whole line to be parsed, got %d items", n)
	}
}

func BenchmarkParseLongLine(b *testing.B) {
	input := longLineJSON(160 << 10)
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Parse(input); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	data := []byte(testYAML)
	b.ReportAllocs()
	for b.Loop() {
		var cfg BenchConfig
		if err := Unmarshal(data, &cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal(b *testing.B) {
	cfg := BenchConfig{Name: "test", Version: "1.0.0", Enabled: true, Count: 42, Items: []string{"a", "b"}}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Marshal(cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// Comparison benchmarks against gopkg.in/yaml.v3.

func BenchmarkYAMLv3_Unmarshal(b *testing.B) {
	data := []byte(testYAML)
	b.ReportAllocs()
	for b.Loop() {
		var cfg BenchConfig
		if err := yamlv3.Unmarshal(data, &cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkYAMLv3_Marshal(b *testing.B) {
	cfg := BenchConfig{Name: "test", Version: "1.0.0", Enabled: true, Count: 42, Items: []string{"a", "b"}}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := yamlv3.Marshal(cfg); err != nil {
			b.Fatal(err)
		}
	}
}
