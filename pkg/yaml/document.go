package yaml

import (
	"github.com/shapestone/shape-core/pkg/ast"

	"github.com/shapestone/shape-yaml-strict/internal/composer"
	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/parser"
)

// MapItem is one key/value pair of a mapping.
type MapItem = composer.MapItem

// MapSlice is a mapping that keeps its source order.
type MapSlice = composer.MapSlice

// Document is one parsed YAML document.
type Document struct {
	// Contents is the composed value. It is nil for an empty document and
	// for a document whose structure failed to parse.
	Contents any

	// Version is the %YAML directive value, empty when absent.
	Version string
	// TagHandles holds the handles declared with %TAG.
	TagHandles map[string]string

	ExplicitStart bool
	ExplicitEnd   bool

	pos   diag.Position
	diags diag.List
}

func composeDocument(pd *parser.Document, o Options) *Document {
	value, diags := composer.Compose(pd, o.composer())

	all := make(diag.List, 0, len(pd.Diagnostics)+len(diags))
	all.Merge(pd.Diagnostics)
	all.Merge(diags)
	all.Sort()

	return &Document{
		Contents:      value,
		Version:       pd.Version,
		TagHandles:    pd.TagHandles,
		ExplicitStart: pd.ExplicitStart,
		ExplicitEnd:   pd.ExplicitEnd,
		pos:           pd.Pos,
		diags:         all,
	}
}

// Errors returns the error diagnostics in document order.
func (d *Document) Errors() []*Error {
	return newErrors(d.diags.Errors())
}

// Warnings returns the warning diagnostics in document order.
func (d *Document) Warnings() []*Error {
	return newErrors(d.diags.Warnings())
}

// Err returns the first error in document order as a *Error, or nil.
func (d *Document) Err() error {
	first, ok := d.diags.FirstError()
	if !ok {
		return nil
	}
	return newError(first)
}

// ToMap returns the contents as a plain map. It fails when the document
// has errors or its root is not a mapping.
func (d *Document) ToMap() (map[string]any, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	return ToMap(d.Contents)
}

// AST converts the contents into shape's unified AST. The root node carries
// the position of the document.
func (d *Document) AST() (ast.SchemaNode, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	return toAST(d.Contents, ast.NewPosition(d.pos.Offset, d.pos.Line, d.pos.Column))
}
