package parser

import (
	"strings"
	"testing"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// Test helpers

func parseOne(t *testing.T, input string) *Document {
	t.Helper()
	docs := ParseStream(input, Options{})
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	return docs[0]
}

func assertClean(t *testing.T, doc *Document) {
	t.Helper()
	if doc.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", doc.Diagnostics)
	}
}

func assertScalar(t *testing.T, n Node, expected string) *Scalar {
	t.Helper()
	s, ok := n.(*Scalar)
	if !ok {
		t.Fatalf("expected *Scalar, got %T", n)
	}
	if s.Value != expected {
		t.Errorf("expected scalar %q, got %q", expected, s.Value)
	}
	return s
}

func assertMapping(t *testing.T, n Node, pairs int) *Mapping {
	t.Helper()
	m, ok := n.(*Mapping)
	if !ok {
		t.Fatalf("expected *Mapping, got %T", n)
	}
	if len(m.Pairs) != pairs {
		t.Fatalf("expected %d pairs, got %d", pairs, len(m.Pairs))
	}
	return m
}

func assertSequence(t *testing.T, n Node, items int) *Sequence {
	t.Helper()
	s, ok := n.(*Sequence)
	if !ok {
		t.Fatalf("expected *Sequence, got %T", n)
	}
	if len(s.Items) != items {
		t.Fatalf("expected %d items, got %d", items, len(s.Items))
	}
	return s
}

func firstError(t *testing.T, doc *Document) diag.Diagnostic {
	t.Helper()
	d, ok := doc.Diagnostics.FirstError()
	if !ok {
		t.Fatal("expected an error, got none")
	}
	return d
}

func TestParseEmptyStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \n  \n  "},
		{"comments only", "# comment\n# another comment\n"},
		{"byte order mark", "\uFEFF"},
		{"stray document end", "...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := ParseStream(tt.input, Options{})
			if len(docs) != 0 {
				t.Errorf("expected no documents, got %d", len(docs))
			}
		})
	}
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		style    tokenizer.Style
	}{
		{"plain", "hello", "hello", tokenizer.StylePlain},
		{"plain with spaces", "hello world  ", "hello world", tokenizer.StylePlain},
		{"plain multi-line", "one\ntwo\n\nthree", "one two\nthree", tokenizer.StylePlain},
		{"single quoted", "'it''s'", "it's", tokenizer.StyleSingleQuoted},
		{"double quoted escapes", `"a\tb\u00e9\x41"`, "a\tbéA", tokenizer.StyleDoubleQuoted},
		{"double quoted tab", "\"a\tb\"", "a\tb", tokenizer.StyleDoubleQuoted},
		{"quoted folding", "'one\n  two\n\n  three'", "one two\nthree", tokenizer.StyleSingleQuoted},
		{"escaped line break", "\"one\\\n  two\"", "onetwo", tokenizer.StyleDoubleQuoted},
		{"literal", "|\n  line1\n  line2\n", "line1\nline2\n", tokenizer.StyleLiteral},
		{"literal strip", "|-\n  x\n", "x", tokenizer.StyleLiteral},
		{"literal keep", "|+\n  x\n\n", "x\n\n", tokenizer.StyleLiteral},
		{"folded", ">\n  one\n  two\n\n  three\n", "one two\nthree\n", tokenizer.StyleFolded},
		{"folded more indented", ">\n  a\n    b\n  c\n", "a\n  b\nc\n", tokenizer.StyleFolded},
		{"explicit indentation", "|2\n   x\n", " x\n", tokenizer.StyleLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseOne(t, tt.input)
			assertClean(t, doc)
			s := assertScalar(t, doc.Root, tt.expected)
			if s.Style != tt.style {
				t.Errorf("expected style %s, got %s", tt.style, s.Style)
			}
		})
	}
}

func TestParseBlockMapping(t *testing.T) {
	doc := parseOne(t, "name: Alice\nage: 30\n")
	assertClean(t, doc)

	m := assertMapping(t, doc.Root, 2)
	assertScalar(t, m.Pairs[0].Key, "name")
	assertScalar(t, m.Pairs[0].Value, "Alice")
	assertScalar(t, m.Pairs[1].Key, "age")
	assertScalar(t, m.Pairs[1].Value, "30")
	if m.Flow {
		t.Error("expected a block mapping")
	}
}

func TestParseNestedMapping(t *testing.T) {
	input := `parent:
  child: value
  other: x
next: y
`
	doc := parseOne(t, input)
	assertClean(t, doc)

	root := assertMapping(t, doc.Root, 2)
	inner := assertMapping(t, root.Pairs[0].Value, 2)
	assertScalar(t, inner.Pairs[1].Value, "x")
	assertScalar(t, root.Pairs[1].Key, "next")

	if inner.Pos.Line != 2 || inner.Pos.Column != 3 {
		t.Errorf("expected inner mapping at 2:3, got %d:%d", inner.Pos.Line, inner.Pos.Column)
	}
}

func TestParseEmptyValues(t *testing.T) {
	doc := parseOne(t, "a:\nb:\n")
	assertClean(t, doc)

	m := assertMapping(t, doc.Root, 2)
	for i, pair := range m.Pairs {
		s := assertScalar(t, pair.Value, "")
		if !s.Empty {
			t.Errorf("pair %d: expected an empty node", i)
		}
	}
}

func TestParseBlockSequences(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		doc := parseOne(t, "- a\n- b\n")
		assertClean(t, doc)
		seq := assertSequence(t, doc.Root, 2)
		assertScalar(t, seq.Items[1], "b")
	})

	t.Run("indentless under mapping", func(t *testing.T) {
		doc := parseOne(t, "key:\n- a\n- b\nother: c\n")
		assertClean(t, doc)
		m := assertMapping(t, doc.Root, 2)
		assertSequence(t, m.Pairs[0].Value, 2)
		assertScalar(t, m.Pairs[1].Value, "c")
	})

	t.Run("compact nested", func(t *testing.T) {
		doc := parseOne(t, "- - a\n  - b\n- c\n")
		assertClean(t, doc)
		outer := assertSequence(t, doc.Root, 2)
		assertSequence(t, outer.Items[0], 2)
	})

	t.Run("compact mapping", func(t *testing.T) {
		doc := parseOne(t, "- key: v\n  k2: v2\n- x\n")
		assertClean(t, doc)
		outer := assertSequence(t, doc.Root, 2)
		m := assertMapping(t, outer.Items[0], 2)
		assertScalar(t, m.Pairs[1].Key, "k2")
	})

	t.Run("empty entry", func(t *testing.T) {
		doc := parseOne(t, "-\n- b\n")
		assertClean(t, doc)
		seq := assertSequence(t, doc.Root, 2)
		if s := assertScalar(t, seq.Items[0], ""); !s.Empty {
			t.Error("expected an empty first entry")
		}
	})
}

func TestParseExplicitKeys(t *testing.T) {
	doc := parseOne(t, "? a\n: 1\n? b\n")
	assertClean(t, doc)

	m := assertMapping(t, doc.Root, 2)
	assertScalar(t, m.Pairs[0].Key, "a")
	assertScalar(t, m.Pairs[0].Value, "1")
	assertScalar(t, m.Pairs[1].Key, "b")
	if s := assertScalar(t, m.Pairs[1].Value, ""); !s.Empty {
		t.Error("expected the value of '? b' to be empty")
	}
}

func TestParseFlowCollections(t *testing.T) {
	t.Run("sequence", func(t *testing.T) {
		doc := parseOne(t, "[a, b, {c: d}]")
		assertClean(t, doc)
		seq := assertSequence(t, doc.Root, 3)
		if !seq.Flow {
			t.Error("expected a flow sequence")
		}
		m := assertMapping(t, seq.Items[2], 1)
		assertScalar(t, m.Pairs[0].Value, "d")
	})

	t.Run("single pair in sequence", func(t *testing.T) {
		doc := parseOne(t, "[a: 1, b]")
		assertClean(t, doc)
		seq := assertSequence(t, doc.Root, 2)
		assertMapping(t, seq.Items[0], 1)
	})

	t.Run("mapping with trailing comma", func(t *testing.T) {
		doc := parseOne(t, "{a: 1, b: 2,}")
		assertClean(t, doc)
		assertMapping(t, doc.Root, 2)
	})

	t.Run("json style value", func(t *testing.T) {
		doc := parseOne(t, `{"a":1}`)
		assertClean(t, doc)
		m := assertMapping(t, doc.Root, 1)
		assertScalar(t, m.Pairs[0].Value, "1")
	})

	t.Run("multi-line with tabs", func(t *testing.T) {
		doc := parseOne(t, "[\n\ta,\n\tb\n]")
		assertClean(t, doc)
		assertSequence(t, doc.Root, 2)
	})

	t.Run("as mapping value", func(t *testing.T) {
		doc := parseOne(t, "key: [1, 2]\nother: {}\n")
		assertClean(t, doc)
		m := assertMapping(t, doc.Root, 2)
		assertSequence(t, m.Pairs[0].Value, 2)
		assertMapping(t, m.Pairs[1].Value, 0)
	})
}

func TestParseProperties(t *testing.T) {
	doc := parseOne(t, "a: &x 1\nb: *x\nc: !!str 2\nd: !local 3\n")
	assertClean(t, doc)

	m := assertMapping(t, doc.Root, 4)
	a := assertScalar(t, m.Pairs[0].Value, "1")
	if a.Anchor != "x" {
		t.Errorf("expected anchor x, got %q", a.Anchor)
	}
	alias, ok := m.Pairs[1].Value.(*Alias)
	if !ok || alias.Name != "x" {
		t.Fatalf("expected alias *x, got %#v", m.Pairs[1].Value)
	}
	c := assertScalar(t, m.Pairs[2].Value, "2")
	if c.Tag != "tag:yaml.org,2002:str" {
		t.Errorf("expected core str tag, got %q", c.Tag)
	}
	d := assertScalar(t, m.Pairs[3].Value, "3")
	if d.Tag != "!local" {
		t.Errorf("expected local tag, got %q", d.Tag)
	}
}

func TestParsePropertiesOnOwnLine(t *testing.T) {
	doc := parseOne(t, "key: &anchor\n  a: 1\n")
	assertClean(t, doc)

	m := assertMapping(t, doc.Root, 1)
	inner := assertMapping(t, m.Pairs[0].Value, 1)
	if inner.Anchor != "anchor" {
		t.Errorf("expected anchor on the nested mapping, got %q", inner.Anchor)
	}
}

func TestParseDirectives(t *testing.T) {
	t.Run("tag handle", func(t *testing.T) {
		doc := parseOne(t, "%TAG !e! tag:example.com,2000:\n---\n!e!foo bar\n")
		assertClean(t, doc)
		s := assertScalar(t, doc.Root, "bar")
		if s.Tag != "tag:example.com,2000:foo" {
			t.Errorf("expected expanded tag, got %q", s.Tag)
		}
		if !doc.ExplicitStart {
			t.Error("expected an explicit start")
		}
	})

	t.Run("version", func(t *testing.T) {
		doc := parseOne(t, "%YAML 1.2\n---\na\n")
		assertClean(t, doc)
		if doc.Version != "1.2" {
			t.Errorf("expected version 1.2, got %q", doc.Version)
		}
	})

	t.Run("older minor version warns", func(t *testing.T) {
		doc := parseOne(t, "%YAML 1.1\n---\na\n")
		assertClean(t, doc)
		w := doc.Diagnostics.Warnings()
		if len(w) != 1 || w[0].Code != diag.UnsupportedVersion {
			t.Errorf("expected an UnsupportedVersion warning, got %v", w)
		}
	})

	t.Run("unknown directive warns", func(t *testing.T) {
		doc := parseOne(t, "%FOO bar\n---\na\n")
		assertClean(t, doc)
		w := doc.Diagnostics.Warnings()
		if len(w) != 1 || w[0].Code != diag.UnknownDirective {
			t.Errorf("expected an UnknownDirective warning, got %v", w)
		}
	})
}

func TestParseDirectiveErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"duplicate version", "%YAML 1.2\n%YAML 1.2\n---\na\n"},
		{"trailing junk", "%YAML 1.2 foo\n---\na\n"},
		{"major version", "%YAML 2.0\n---\na\n"},
		{"missing document start", "%YAML 1.2\na\n"},
		{"duplicate tag handle", "%TAG !e! a:\n%TAG !e! b:\n---\nx\n"},
		{"directive after content", "a\n%YAML 1.2\n---\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := ParseStream(tt.input, Options{})
			if len(docs) == 0 {
				t.Fatal("expected a document carrying the error")
			}
			d := firstError(t, docs[0])
			if d.Code != diag.InvalidDirective {
				t.Errorf("expected InvalidDirective, got %s: %v", d.Code, d)
			}
		})
	}
}

func TestParseMultipleDocuments(t *testing.T) {
	docs := ParseStream("a: 1\n---\nb: 2\n...\n", Options{})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		assertClean(t, doc)
		assertMapping(t, doc.Root, 1)
	}
	if docs[0].ExplicitStart {
		t.Error("first document has no '---'")
	}
	if !docs[1].ExplicitStart || !docs[1].ExplicitEnd {
		t.Error("second document is explicitly started and ended")
	}
}

func TestParseEmptyExplicitDocuments(t *testing.T) {
	docs := ParseStream("---\n---\n", Options{})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for i, doc := range docs {
		assertClean(t, doc)
		if doc.Root != nil {
			t.Errorf("document %d: expected a nil root, got %T", i, doc.Root)
		}
	}
}

func TestParseRecoversAtNextDocument(t *testing.T) {
	docs := ParseStream("a: [\n---\nb: 1\n", Options{})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if d := firstError(t, docs[0]); d.Code != diag.UnexpectedToken {
		t.Errorf("expected UnexpectedToken, got %s", d.Code)
	}
	if docs[0].Root != nil {
		t.Error("a failed document has no root")
	}
	assertClean(t, docs[1])
	assertMapping(t, docs[1].Root, 1)
}

func TestParsePlainScalarComments(t *testing.T) {
	doc := parseOne(t, "key: one\n  two # c\n# own line\nnext: x # c\nlast: [a, # c\n  b]\n")
	assertClean(t, doc)
	m := assertMapping(t, doc.Root, 3)
	assertScalar(t, m.Pairs[0].Value, "one two")
	assertScalar(t, m.Pairs[1].Value, "x")
	seq := assertSequence(t, m.Pairs[2].Value, 2)
	assertScalar(t, seq.Items[1], "b")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		code   diag.Code
		line   int
		column int
	}{
		{"plain scalar continued by a key", "key:\n  word1 word2\n  no: key", diag.AmbiguousBlockContent, 3, 3},
		{"value continued by a key", "a: b\n  c: d\n", diag.AmbiguousBlockContent, 2, 3},
		{"value continued by an entry", "- a\n  - b\n", diag.AmbiguousBlockContent, 2, 3},
		{"tab indentation", "a:\n\tb: c\n", diag.TabIndentation, 2, 1},
		{"unterminated double quote", "key: \"abc", diag.UnterminatedScalar, 1, 6},
		{"unterminated single quote", "'abc\n", diag.UnterminatedScalar, 1, 1},
		{"quote closed by document marker", "\"abc\n---\n", diag.UnterminatedScalar, 1, 1},
		{"misaligned mapping entry", "a:\n    b: 1\n  c: 2\n", diag.BadIndentation, 3, 3},
		{"less indented than root", "  a: 1\nb: 2\n", diag.BadIndentation, 2, 1},
		{"over-indented sibling", "a:\n  b: \n    c: 1\n   d: 2\n", diag.BadIndentation, 4, 4},
		{"flow content not indented", "key: [a,\nb]\n", diag.BadIndentation, 2, 1},
		{"unclosed flow", "[a, b", diag.UnexpectedToken, 1, 6},
		{"block mapping after document start", "--- key: v\n", diag.UnexpectedToken, 1, 8},
		{"sequence as inline value", "key: - a\n", diag.UnexpectedToken, 1, 6},
		{"content after document end", "a\n... b\n", diag.UnexpectedToken, 2, 5},
		{"alias with properties", "a: &x 1\nb: &y *x\n", diag.UnexpectedToken, 2, 4},
		{"invalid escape", `"\q"`, diag.InvalidEscape, 1, 2},
		{"undeclared tag handle", "!e!foo bar\n", diag.InvalidTag, 1, 1},
		{"reserved indicator", "@foo\n", diag.UnexpectedToken, 1, 1},
		{"comment without space", "key: \"v\"#c\n", diag.UnexpectedToken, 1, 9},
		{"plain scalar continued past a comment line", "key: word1\n#  xxx\n  word2\n", diag.UnexpectedToken, 3, 3},
		{"plain value continued past a trailing comment", "key: value # c\n  more\n", diag.UnexpectedToken, 2, 3},
		{"nested plain continued past a trailing comment", "key:\n  word1 # c\n  word2\n", diag.UnexpectedToken, 3, 3},
		{"root plain continued past a comment", "word # c\nmore\n", diag.UnexpectedToken, 2, 1},
		{"flow plain continued past a comment", "[word1 # c\n word2]\n", diag.UnexpectedToken, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := ParseStream(tt.input, Options{})
			if len(docs) == 0 {
				t.Fatal("expected a document carrying the error")
			}
			d := firstError(t, docs[0])
			if d.Code != tt.code {
				t.Errorf("expected %s, got %s: %v", tt.code, d.Code, d)
			}
			if d.Pos.Line != tt.line || d.Pos.Column != tt.column {
				t.Errorf("expected error at %d:%d, got %d:%d (%v)", tt.line, tt.column, d.Pos.Line, d.Pos.Column, d)
			}
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	input := strings.Repeat("[", 4) + "a" + strings.Repeat("]", 4)

	docs := ParseStream(input, Options{MaxDepth: 3})
	if d := firstError(t, docs[0]); d.Code != diag.NestingTooDeep {
		t.Errorf("expected NestingTooDeep, got %s", d.Code)
	}

	docs = ParseStream(input, Options{MaxDepth: 4})
	assertClean(t, docs[0])

	deep := strings.Repeat("[", DefaultMaxDepth+1) + strings.Repeat("]", DefaultMaxDepth+1)
	docs = ParseStream(deep, Options{})
	if d := firstError(t, docs[0]); d.Code != diag.NestingTooDeep {
		t.Errorf("expected NestingTooDeep at the default limit, got %s", d.Code)
	}

	docs = ParseStream(deep, Options{MaxDepth: -1})
	assertClean(t, docs[0])
}

func TestParseBlockNestingDepth(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(strings.Repeat("  ", i))
		sb.WriteString("k:\n")
	}
	docs := ParseStream(sb.String(), Options{MaxDepth: 4})
	if d := firstError(t, docs[0]); d.Code != diag.NestingTooDeep {
		t.Errorf("expected NestingTooDeep, got %s", d.Code)
	}
}

func TestParserStateAfterFailure(t *testing.T) {
	p := NewParser("[a", Options{})
	docs := p.ParseAll()
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if p.State() != StateFailed {
		t.Errorf("expected state %s, got %s", StateFailed, p.State())
	}
}

func TestWalk(t *testing.T) {
	doc := parseOne(t, "a: [1, 2]\nb:\n  c: *x\n")

	counts := map[NodeKind]int{}
	Walk(doc.Root, func(n Node) bool {
		counts[n.Kind()]++
		return true
	})
	if counts[KindMapping] != 2 || counts[KindSequence] != 1 || counts[KindAlias] != 1 || counts[KindScalar] != 5 {
		t.Errorf("unexpected node counts: %v", counts)
	}

	visited := 0
	Walk(doc.Root, func(n Node) bool {
		visited++
		return n.Kind() != KindMapping
	})
	if visited != 1 {
		t.Errorf("expected walk to stop at the root, visited %d nodes", visited)
	}
}

func TestDocumentPositions(t *testing.T) {
	doc := parseOne(t, "key: value\n")
	m := assertMapping(t, doc.Root, 1)
	v := m.Pairs[0].Value
	if v.Start().Line != 1 || v.Start().Column != 6 {
		t.Errorf("expected value at 1:6, got %d:%d", v.Start().Line, v.Start().Column)
	}
	if v.End().Column != 11 {
		t.Errorf("expected value to end at column 11, got %d", v.End().Column)
	}
}
