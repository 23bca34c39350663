// Package tokenizer turns YAML text into a lazy stream of tokens and tracks
// the block indentation stack the parser consults while consuming them.
package tokenizer

import (
	"fmt"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

// Kind identifies the lexical category of a token.
type Kind string

// Token kinds. These correspond to the terminals of the YAML 1.2 grammar.
const (
	// Structural indicators
	TokenMappingKey    Kind = "MappingKey"    // ? (explicit key)
	TokenMappingValue  Kind = "MappingValue"  // :
	TokenSequenceEntry Kind = "SequenceEntry" // - (block style)
	TokenFlowSeqStart  Kind = "FlowSeqStart"  // [
	TokenFlowSeqEnd    Kind = "FlowSeqEnd"    // ]
	TokenFlowMapStart  Kind = "FlowMapStart"  // {
	TokenFlowMapEnd    Kind = "FlowMapEnd"    // }
	TokenFlowEntry     Kind = "FlowEntry"     // ,

	// Content
	TokenScalar Kind = "Scalar" // plain, quoted or block scalar
	TokenAnchor Kind = "Anchor" // &name
	TokenAlias  Kind = "Alias"  // *name
	TokenTag    Kind = "Tag"    // !type, !!type, !h!type or !<verbatim>

	// Layout, produced only by Layout
	TokenNewline        Kind = "Newline"        // end of a line that held tokens
	TokenIndentIncrease Kind = "IndentIncrease" // a line opens a deeper block
	TokenIndentDecrease Kind = "IndentDecrease" // one block closes

	// Stream structure
	TokenComment       Kind = "Comment"       // # ...
	TokenDirective     Kind = "Directive"     // %YAML or %TAG line
	TokenDocumentStart Kind = "DocumentStart" // ---
	TokenDocumentEnd   Kind = "DocumentEnd"   // ...
	TokenEOF           Kind = "EOF"

	// TokenError carries a scanner diagnostic. The scanner keeps returning
	// it once produced.
	TokenError Kind = "Error"
)

// Style is the presentation style of a scalar token.
type Style int

const (
	StylePlain Style = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

func (s Style) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleSingleQuoted:
		return "single-quoted"
	case StyleDoubleQuoted:
		return "double-quoted"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Quoted reports whether the style is single or double quoted.
func (s Style) Quoted() bool {
	return s == StyleSingleQuoted || s == StyleDoubleQuoted
}

// Block reports whether the style is literal or folded.
func (s Style) Block() bool {
	return s == StyleLiteral || s == StyleFolded
}

// Token is an immutable lexical unit.
//
// Text holds the decoded value: the scalar content after quote and escape
// processing, the anchor or alias name without its indicator, the tag as
// written, or the directive line.
type Token struct {
	Kind  Kind
	Text  string
	Style Style
	Pos   diag.Position
	End   diag.Position

	// FirstOnLine is set when no other token precedes this one on its line.
	// The parser uses it together with Pos.Column for indentation decisions.
	FirstOnLine bool

	// SpaceBefore is set when whitespace or a line break separates this token
	// from the previous one.
	SpaceBefore bool

	// Err is set for TokenError.
	Err *diag.Diagnostic
}

// Is reports whether the token is of kind k.
func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) String() string {
	switch t.Kind {
	case TokenScalar:
		return fmt.Sprintf("%s scalar %q", t.Style, t.Text)
	case TokenAnchor:
		return "anchor &" + t.Text
	case TokenAlias:
		return "alias *" + t.Text
	case TokenTag:
		return "tag " + t.Text
	case TokenMappingKey:
		return "'?'"
	case TokenMappingValue:
		return "':'"
	case TokenSequenceEntry:
		return "'-'"
	case TokenFlowSeqStart:
		return "'['"
	case TokenFlowSeqEnd:
		return "']'"
	case TokenFlowMapStart:
		return "'{'"
	case TokenFlowMapEnd:
		return "'}'"
	case TokenFlowEntry:
		return "','"
	case TokenDocumentStart:
		return "document start '---'"
	case TokenDocumentEnd:
		return "document end '...'"
	case TokenEOF:
		return "end of stream"
	case TokenError:
		if t.Err != nil {
			return "error: " + t.Err.Message
		}
		return "error"
	default:
		return string(t.Kind)
	}
}
