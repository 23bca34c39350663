package parser

import (
	"fmt"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// NodeKind discriminates the Node sum type.
type NodeKind int

const (
	KindScalar NodeKind = iota
	KindMapping
	KindSequence
	KindAlias
)

func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a node of the document tree. The set of implementations is closed:
// *Scalar, *Mapping, *Sequence and *Alias. Consumers switch on Kind() and
// must treat any other value as a programming error.
type Node interface {
	Kind() NodeKind
	// Start and End delimit the node's text, properties included.
	Start() diag.Position
	End() diag.Position
	Properties() *Props
	sealed()
}

// Props holds the optional node properties.
type Props struct {
	Anchor    string
	AnchorPos diag.Position
	// Tag is the resolved tag: a full URI such as tag:yaml.org,2002:str, a
	// local tag such as !foo, or "!" for the non-specific tag.
	Tag    string
	TagPos diag.Position
}

// HasAnchor reports whether the node is anchored.
func (p *Props) HasAnchor() bool { return p.Anchor != "" }

// HasTag reports whether the node carries an explicit tag.
func (p *Props) HasTag() bool { return p.Tag != "" }

// Scalar is a plain, quoted or block scalar.
type Scalar struct {
	Props
	Value string
	Style tokenizer.Style
	Pos   diag.Position
	EndAt diag.Position
	// Empty marks a node that has no content in the source, such as the value
	// of "key:" with nothing after it.
	Empty bool
}

// Pair is one entry of a mapping.
type Pair struct {
	Key   Node
	Value Node
}

// Mapping is a block or flow mapping; pairs keep their source order.
type Mapping struct {
	Props
	Pairs []Pair
	Flow  bool
	Pos   diag.Position
	EndAt diag.Position
}

// Sequence is a block or flow sequence.
type Sequence struct {
	Props
	Items []Node
	Flow  bool
	Pos   diag.Position
	EndAt diag.Position
}

// Alias refers back to an anchored node by name.
type Alias struct {
	Name  string
	Pos   diag.Position
	EndAt diag.Position
	// props is always empty; aliases cannot carry properties.
	props Props
}

func (*Scalar) Kind() NodeKind   { return KindScalar }
func (*Mapping) Kind() NodeKind  { return KindMapping }
func (*Sequence) Kind() NodeKind { return KindSequence }
func (*Alias) Kind() NodeKind    { return KindAlias }

func (n *Scalar) Start() diag.Position   { return n.Pos }
func (n *Mapping) Start() diag.Position  { return n.Pos }
func (n *Sequence) Start() diag.Position { return n.Pos }
func (n *Alias) Start() diag.Position    { return n.Pos }

func (n *Scalar) End() diag.Position   { return n.EndAt }
func (n *Mapping) End() diag.Position  { return n.EndAt }
func (n *Sequence) End() diag.Position { return n.EndAt }
func (n *Alias) End() diag.Position    { return n.EndAt }

func (n *Scalar) Properties() *Props   { return &n.Props }
func (n *Mapping) Properties() *Props  { return &n.Props }
func (n *Sequence) Properties() *Props { return &n.Props }
func (n *Alias) Properties() *Props    { return &n.props }

func (*Scalar) sealed()   {}
func (*Mapping) sealed()  {}
func (*Sequence) sealed() {}
func (*Alias) sealed()    {}

// Document is one parsed document of a stream.
type Document struct {
	// Root is nil when the document has no content at all.
	Root Node

	// Version is the %YAML directive value, empty when absent.
	Version string
	// TagHandles maps handles declared with %TAG to their prefixes.
	TagHandles map[string]string

	ExplicitStart bool
	ExplicitEnd   bool
	Pos           diag.Position
	EndAt         diag.Position

	// Diagnostics found while scanning and parsing this document.
	Diagnostics diag.List
}

// Walk calls fn for n and each of its descendants in document order. Walking
// stops early when fn returns false for a node; its children are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Mapping:
		for _, p := range n.Pairs {
			Walk(p.Key, fn)
			Walk(p.Value, fn)
		}
	case *Sequence:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *Scalar, *Alias:
	default:
		panic(fmt.Sprintf("parser: unknown node type %T", n))
	}
}
