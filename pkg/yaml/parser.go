// Package yaml is a strict YAML 1.2 parser.
//
// Input that a lenient parser would silently reinterpret is rejected with a
// positioned error instead: plain scalars that continue into something that
// looks like a mapping key, tabs used as indentation, duplicate mapping keys,
// aliases that refer forward or to an enclosing node, and nesting beyond a
// configured depth.
//
// # Parsing APIs
//
//   - Parse(string) - Parses a single document and returns its value or the
//     first error in document order
//   - ParseDocument(string) - Parses a single document and never fails; the
//     returned Document carries every error and warning
//   - ParseAll(string) - Parses every document of a stream
//   - ParseReader(io.Reader) - Parse for any io.Reader source
//   - Validate(string) - Reports every error of a stream without returning values
//
// Values are nil, bool, int64, *big.Int (integers that do not fit int64),
// float64, string, []byte (!!binary), []any and MapSlice. Mappings keep
// their source order; use ToInterface or ToMap for plain Go maps.
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use by multiple
// goroutines. Each call owns its scanner, parser and anchor table.
//
//	go func() { yaml.Parse(input1) }()
//	go func() { yaml.Parse(input2) }()
//
// # Example usage with Parse:
//
//	v, err := yaml.Parse("name: Alice\nage: 30\n")
//	if err != nil {
//	    var yerr *yaml.Error
//	    if errors.As(err, &yerr) {
//	        fmt.Println(yerr.Code, yerr.LinePos[0].Line)
//	    }
//	}
//	m := v.(yaml.MapSlice)
//
// # Example usage with ParseDocument:
//
//	doc := yaml.ParseDocument("key:\n  word1 word2\n  no: key\n")
//	for _, e := range doc.Errors() {
//	    fmt.Println(e) // AmbiguousBlockContent at line 3, column 3
//	}
package yaml

import (
	"fmt"
	"io"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/parser"
)

// Parse parses a single YAML document and returns its value.
//
// The error, when not nil, is a *Error for the first error diagnostic in
// document order. Input holding more than one document fails with
// MultipleDocuments; use ParseAll for streams.
//
// Example:
//
//	v, err := yaml.Parse("a: 1\nb: [x, y]\n")
//	// v is yaml.MapSlice{{"a", int64(1)}, {"b", []any{"x", "y"}}}
func Parse(input string, opts ...Option) (any, error) {
	doc := ParseDocument(input, opts...)
	if err := doc.Err(); err != nil {
		return nil, err
	}
	return doc.Contents, nil
}

// ParseDocument parses a single YAML document. It never returns an error:
// problems are reported through Document.Errors and Document.Warnings.
//
// When the input holds more than one document, the first one is returned
// with a MultipleDocuments error positioned at the start of the second.
func ParseDocument(input string, opts ...Option) *Document {
	o := buildOptions(opts)
	p := parser.NewParser(input, o.parser())

	first, more := p.ParseDocument()
	if first == nil {
		return &Document{}
	}
	doc := composeDocument(first, o)
	if !more {
		return doc
	}
	if second, _ := p.ParseDocument(); second != nil {
		doc.diags.Add(diag.Errorf(diag.MultipleDocuments, second.Pos, second.Pos,
			"source contains multiple documents; use ParseAll to read a stream"))
		doc.diags.Sort()
	}
	return doc
}

// ParseAll parses every document of a YAML stream.
//
// All documents are returned, including those that failed; the error is an
// ErrorList holding every error of the stream in document order, or nil.
//
// Example:
//
//	docs, err := yaml.ParseAll("---\na: 1\n---\nb: 2\n")
//	// len(docs) == 2
func ParseAll(input string, opts ...Option) ([]*Document, error) {
	o := buildOptions(opts)
	parsed := parser.ParseStream(input, o.parser())

	docs := make([]*Document, len(parsed))
	var errs ErrorList
	for i, pd := range parsed {
		docs[i] = composeDocument(pd, o)
		errs = append(errs, docs[i].Errors()...)
	}
	return docs, errs.err()
}

// ParseReader reads r to the end and parses it as a single document.
//
// Example:
//
//	file, err := os.Open("config.yaml")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	v, err := yaml.ParseReader(file)
func ParseReader(r io.Reader, opts ...Option) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("yaml: reading input: %w", err)
	}
	return Parse(string(data), opts...)
}

// Validate checks a YAML stream and returns an ErrorList with every error
// found, or nil when the stream is well formed. Warnings are not reported.
func Validate(input string, opts ...Option) error {
	_, err := ParseAll(input, opts...)
	return err
}
