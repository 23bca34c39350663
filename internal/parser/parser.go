// Package parser implements recursive descent parsing of YAML block and flow
// structure into a document tree.
//
// Each production of the grammar corresponds to a parse function. The parser
// consumes tokens from the scanner with one token of lookahead and consults
// the indentation tracker before interpreting every token that starts a line.
// Ambiguous or misindented input is reported, never reinterpreted.
package parser

import (
	"fmt"
	"strings"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 100

// Options configures a parse.
type Options struct {
	// MaxDepth bounds the number of nested collections. Zero selects
	// DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int
}

// State is the parser's position in the grammar.
type State int

const (
	StateExpectBlockNode State = iota
	StateInBlockMapping
	StateInBlockSequence
	StateInFlowCollection
	StateInPlainScalar
	StateInQuotedScalar
	StateDocumentEnd
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateExpectBlockNode:
		return "a block node"
	case StateInBlockMapping:
		return "a block mapping"
	case StateInBlockSequence:
		return "a block sequence"
	case StateInFlowCollection:
		return "a flow collection"
	case StateInPlainScalar:
		return "a plain scalar"
	case StateInQuotedScalar:
		return "a quoted scalar"
	case StateDocumentEnd:
		return "the document end"
	case StateFailed:
		return "a failed document"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Parser turns a token stream into documents. A Parser is single use and not
// safe for concurrent use; independent parsers share nothing.
type Parser struct {
	sc      *tokenizer.Scanner
	tracker *tokenizer.IndentationTracker
	opts    Options

	doc     *Document
	state   State
	lastEnd diag.Position
}

// NewParser creates a parser over input.
func NewParser(input string, opts Options) *Parser {
	switch {
	case opts.MaxDepth == 0:
		opts.MaxDepth = DefaultMaxDepth
	case opts.MaxDepth < 0:
		opts.MaxDepth = 0
	}
	tracker := tokenizer.NewIndentationTracker(opts.MaxDepth)
	return &Parser{
		sc:      tokenizer.NewScanner(input, tracker),
		tracker: tracker,
		opts:    opts,
		lastEnd: diag.Start,
	}
}

// State returns the current parser state.
func (p *Parser) State() State { return p.state }

// blockParent describes where a block node appears.
type blockParent struct {
	col          int  // column of the enclosing block collection, 0 at top level
	mappingValue bool // the node is the value of a block mapping entry
	compact      bool // a block collection may start on the current line
}

// nodeProps is the result of parsing node properties.
type nodeProps struct {
	Props
	lead *tokenizer.Token // first property token, nil when there are none
	end  diag.Position
}

// parseBlockNode parses a node in block context.
//
// Grammar:
//
//	BlockNode = Properties? ( BlockSequence | BlockMapping | FlowNode | BlockScalar )? ;
func (p *Parser) parseBlockNode(parent blockParent) (Node, error) {
	defer p.enter(StateExpectBlockNode)()

	tok := p.peek()
	if tok.Kind == tokenizer.TokenError {
		return nil, *tok.Err
	}
	if p.endsBlockNode(tok, parent) {
		return p.emptyNode(), nil
	}

	props, err := p.parseProps()
	if err != nil {
		return nil, err
	}
	tok = p.peek()
	if tok.Kind == tokenizer.TokenError {
		return nil, *tok.Err
	}
	if props.lead != nil && (tok.FirstOnLine || isStreamBoundary(tok)) {
		// Properties on a line of their own belong to the node below them.
		if p.endsBlockNode(tok, parent) || isStreamBoundary(tok) {
			n := &Scalar{Props: props.Props, Empty: true, Pos: props.lead.Pos, EndAt: props.end}
			return n, nil
		}
		node, err := p.parseBlockNode(blockParent{col: parent.col, mappingValue: parent.mappingValue})
		if err != nil {
			return nil, err
		}
		return node, p.applyProps(node, props)
	}

	first := tok
	if props.lead != nil {
		first = *props.lead
	}
	fresh := first.FirstOnLine || parent.compact

	switch tok.Kind {
	case tokenizer.TokenSequenceEntry:
		if props.lead != nil || !fresh {
			return nil, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
				"block sequence entries are not allowed in this context")
		}
		indentless := parent.mappingValue && tok.Pos.Column == parent.col
		return p.parseBlockSequence(tok, indentless)

	case tokenizer.TokenMappingKey:
		if props.lead != nil || !fresh {
			return nil, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
				"explicit mapping keys are not allowed in this context")
		}
		return p.parseBlockMapping(tok.Pos.Column, tok.Pos, nil)

	case tokenizer.TokenMappingValue:
		if !fresh {
			return nil, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
				"mapping values are not allowed in this context")
		}
		key := &Scalar{Props: props.Props, Empty: true, Pos: first.Pos, EndAt: tok.Pos}
		return p.parseBlockMapping(first.Pos.Column, first.Pos, key)

	case tokenizer.TokenScalar, tokenizer.TokenAlias, tokenizer.TokenFlowSeqStart, tokenizer.TokenFlowMapStart:
		node, err := p.parseInlineNode(props, parent.col)
		if err != nil {
			return nil, err
		}

		commented := p.sc.Peek().Kind == tokenizer.TokenComment
		next := p.peek()
		if next.Kind == tokenizer.TokenMappingValue && next.Pos.Line == node.End().Line {
			if !fresh {
				return nil, diag.Errorf(diag.UnexpectedToken, next.Pos, next.End,
					"mapping values are not allowed in this context")
			}
			if node.Start().Line != node.End().Line {
				return nil, diag.Errorf(diag.UnexpectedToken, node.Start(), node.End(),
					"implicit mapping keys must be on a single line")
			}
			return p.parseBlockMapping(first.Pos.Column, first.Pos, node)
		}

		if s, ok := node.(*Scalar); ok {
			if s.Style == tokenizer.StylePlain {
				return p.foldPlain(s, parent.col, commented)
			}
			if s.Style.Quoted() {
				defer p.enter(StateInQuotedScalar)()
			}
		}
		if !next.FirstOnLine && !isStreamBoundary(next) {
			return nil, p.unexpected(next)
		}
		return node, nil

	default:
		if isStreamBoundary(tok) && props.lead != nil {
			return &Scalar{Props: props.Props, Empty: true, Pos: props.lead.Pos, EndAt: props.end}, nil
		}
		return nil, p.unexpected(tok)
	}
}

// endsBlockNode reports whether tok cannot begin a node under parent, which
// makes the node empty.
func (p *Parser) endsBlockNode(tok tokenizer.Token, parent blockParent) bool {
	if isStreamBoundary(tok) {
		return true
	}
	if !tok.FirstOnLine {
		return false
	}
	if tok.Pos.Column > parent.col {
		return false
	}
	// A block sequence may sit at its mapping key's column.
	if tok.Kind == tokenizer.TokenSequenceEntry && parent.mappingValue && tok.Pos.Column == parent.col {
		return false
	}
	return true
}

// parseInlineNode parses a node that starts on the current line: a scalar,
// an alias or a flow collection. Plain scalars are returned unfolded.
func (p *Parser) parseInlineNode(props nodeProps, parentCol int) (Node, error) {
	tok := p.next()
	var node Node
	switch tok.Kind {
	case tokenizer.TokenScalar:
		if tok.Style == tokenizer.StylePlain {
			p.sc.ContinuePlain(parentCol)
		}
		node = &Scalar{Value: tok.Text, Style: tok.Style, Pos: tok.Pos, EndAt: tok.End}
	case tokenizer.TokenAlias:
		node = &Alias{Name: tok.Text, Pos: tok.Pos, EndAt: tok.End}
	case tokenizer.TokenFlowSeqStart:
		seq, err := p.parseFlowSequence(tok)
		if err != nil {
			return nil, err
		}
		node = seq
	case tokenizer.TokenFlowMapStart:
		m, err := p.parseFlowMapping(tok)
		if err != nil {
			return nil, err
		}
		node = m
	default:
		return nil, p.unexpected(tok)
	}
	if err := p.applyProps(node, props); err != nil {
		return nil, err
	}
	return node, nil
}

// foldPlain extends a plain scalar over its continuation lines. Every
// continuation line must start right of parentCol. A line that instead opens
// a mapping key or a sequence entry conflicts with the scalar already
// assigned to this node. commented is set when a comment already follows the
// scalar.
func (p *Parser) foldPlain(s *Scalar, parentCol int, commented bool) (Node, error) {
	defer p.enter(StateInPlainScalar)()

	var sb strings.Builder
	sb.WriteString(s.Value)
	lastLine := s.EndAt.Line

loop:
	for {
		tok := p.sc.Peek()
		if tok.Kind == tokenizer.TokenComment {
			// A comment ends the scalar; nothing deeper may follow it.
			p.sc.Next()
			commented = true
			continue
		}
		if !tok.FirstOnLine || tok.Pos.Column <= parentCol {
			break
		}
		switch tok.Kind {
		case tokenizer.TokenScalar:
			if tok.Style != tokenizer.StylePlain {
				break loop
			}
			if commented {
				return nil, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
					"plain scalar %q ended at a comment and cannot continue on a more indented line",
					firstLine(s.Value))
			}
		case tokenizer.TokenSequenceEntry:
			return nil, diag.Errorf(diag.AmbiguousBlockContent, tok.Pos, tok.End,
				"sequence entry conflicts with the plain scalar %q already assigned at %s",
				firstLine(s.Value), s.Pos)
		case tokenizer.TokenMappingKey, tokenizer.TokenMappingValue:
			return nil, diag.Errorf(diag.AmbiguousBlockContent, tok.Pos, tok.End,
				"mapping entry conflicts with the plain scalar %q already assigned at %s",
				firstLine(s.Value), s.Pos)
		default:
			break loop
		}

		p.next()
		p.sc.ContinuePlain(parentCol)
		if next := p.sc.Peek(); next.Kind == tokenizer.TokenMappingValue && next.Pos.Line == tok.End.Line {
			return nil, diag.Errorf(diag.AmbiguousBlockContent, tok.Pos, tok.End,
				"mapping key %q conflicts with the plain scalar %q already assigned at %s",
				tok.Text, firstLine(s.Value), s.Pos)
		}

		if gap := tok.Pos.Line - lastLine; gap > 1 {
			sb.WriteString(strings.Repeat("\n", gap-1))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
		s.EndAt = tok.End
		lastLine = tok.End.Line
	}

	s.Value = sb.String()
	return s, nil
}

// parseBlockMapping parses a block mapping whose entries start at col.
// firstKey is the already parsed key of the first implicit entry, or nil when
// the mapping starts with an explicit key.
//
// Grammar:
//
//	BlockMapping = ( ExplicitEntry | ImplicitEntry )+ ;
//	ExplicitEntry = "?" BlockNode ( ":" BlockNode )? ;
//	ImplicitEntry = InlineKey ":" BlockNode ;
func (p *Parser) parseBlockMapping(col int, pos diag.Position, firstKey Node) (Node, error) {
	defer p.enter(StateInBlockMapping)()

	if err := p.tracker.PushContext(col, tokenizer.ContextBlockMapping, pos); err != nil {
		return nil, err
	}
	defer p.tracker.Pop()

	m := &Mapping{Pos: pos, EndAt: pos}
	key := firstKey
	var lastValue Node

	for {
		if key == nil {
			tok := p.peek()
			if isStreamBoundary(tok) {
				break
			}
			if !tok.FirstOnLine {
				return nil, p.unexpected(tok)
			}
			switch p.tracker.Classify(tok.Pos.Column) {
			case tokenizer.DecisionClose:
				return m, nil
			case tokenizer.DecisionMisaligned:
				return nil, diag.Errorf(diag.BadIndentation, tok.Pos, tok.End,
					"mapping entry at column %d does not line up with any enclosing block", tok.Pos.Column)
			case tokenizer.DecisionNested:
				return nil, p.nestedContentError(tok, lastValue, "mapping")
			}

			if tok.Kind == tokenizer.TokenMappingKey {
				pair, err := p.parseExplicitEntry(col)
				if err != nil {
					return nil, err
				}
				m.Pairs = append(m.Pairs, pair)
				m.EndAt = pair.Value.End()
				lastValue = pair.Value
				continue
			}

			k, err := p.parseImplicitKey(col)
			if err != nil {
				return nil, err
			}
			key = k
		}

		colon := p.peek()
		if colon.Kind == tokenizer.TokenError {
			return nil, *colon.Err
		}
		if colon.Kind != tokenizer.TokenMappingValue || colon.Pos.Line != key.End().Line {
			return nil, diag.Errorf(diag.UnexpectedToken, key.Start(), key.End(),
				"could not find expected ':' after mapping key")
		}
		p.next()

		value, err := p.parseBlockNode(blockParent{col: col, mappingValue: true})
		if err != nil {
			return nil, err
		}
		m.Pairs = append(m.Pairs, Pair{Key: key, Value: value})
		m.EndAt = value.End()
		lastValue = value
		key = nil
	}
	return m, nil
}

// parseExplicitEntry parses "? key" with an optional ": value" line.
func (p *Parser) parseExplicitEntry(col int) (Pair, error) {
	p.next() // ?
	key, err := p.parseBlockNode(blockParent{col: col, compact: true})
	if err != nil {
		return Pair{}, err
	}

	tok := p.peek()
	if tok.Kind == tokenizer.TokenError {
		return Pair{}, *tok.Err
	}
	if tok.Kind != tokenizer.TokenMappingValue || !tok.FirstOnLine || tok.Pos.Column != col {
		return Pair{Key: key, Value: p.emptyNode()}, nil
	}
	p.next()
	value, err := p.parseBlockNode(blockParent{col: col, mappingValue: true, compact: true})
	if err != nil {
		return Pair{}, err
	}
	return Pair{Key: key, Value: value}, nil
}

// parseImplicitKey parses the key of an implicit entry on a new line.
func (p *Parser) parseImplicitKey(col int) (Node, error) {
	props, err := p.parseProps()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if props.lead != nil && tok.FirstOnLine {
		return nil, diag.Errorf(diag.UnexpectedToken, props.lead.Pos, props.end,
			"node properties must be followed by a mapping key on the same line")
	}

	switch tok.Kind {
	case tokenizer.TokenMappingValue:
		pos := tok.Pos
		if props.lead != nil {
			pos = props.lead.Pos
		}
		return &Scalar{Props: props.Props, Empty: true, Pos: pos, EndAt: tok.Pos}, nil
	case tokenizer.TokenScalar, tokenizer.TokenAlias, tokenizer.TokenFlowSeqStart, tokenizer.TokenFlowMapStart:
		key, err := p.parseInlineNode(props, col)
		if err != nil {
			return nil, err
		}
		if key.Start().Line != key.End().Line {
			return nil, diag.Errorf(diag.UnexpectedToken, key.Start(), key.End(),
				"implicit mapping keys must be on a single line")
		}
		return key, nil
	default:
		return nil, p.unexpected(tok)
	}
}

// parseBlockSequence parses a block sequence whose first entry indicator is
// dash. An indentless sequence shares its column with the enclosing mapping
// and ends at the first sibling key.
//
// Grammar:
//
//	BlockSequence = ( "-" BlockNode )+ ;
func (p *Parser) parseBlockSequence(dash tokenizer.Token, indentless bool) (Node, error) {
	defer p.enter(StateInBlockSequence)()

	col := dash.Pos.Column
	if err := p.tracker.PushContext(col, tokenizer.ContextBlockSequence, dash.Pos); err != nil {
		return nil, err
	}
	defer p.tracker.Pop()

	seq := &Sequence{Pos: dash.Pos, EndAt: dash.End}
	var last Node
	for first := true; ; first = false {
		tok := p.peek()
		if tok.Kind == tokenizer.TokenError {
			return nil, *tok.Err
		}
		if !first {
			if isStreamBoundary(tok) {
				break
			}
			if !tok.FirstOnLine {
				return nil, p.unexpected(tok)
			}
			switch p.tracker.Classify(tok.Pos.Column) {
			case tokenizer.DecisionClose:
				return seq, nil
			case tokenizer.DecisionMisaligned:
				return nil, diag.Errorf(diag.BadIndentation, tok.Pos, tok.End,
					"sequence entry at column %d does not line up with any enclosing block", tok.Pos.Column)
			case tokenizer.DecisionNested:
				return nil, p.nestedContentError(tok, last, "sequence")
			}
			if tok.Kind != tokenizer.TokenSequenceEntry {
				if indentless {
					return seq, nil
				}
				return nil, p.unexpected(tok)
			}
		}

		p.next() // -
		item, err := p.parseBlockNode(blockParent{col: col, compact: true})
		if err != nil {
			return nil, err
		}
		seq.Items = append(seq.Items, item)
		seq.EndAt = item.End()
		last = item
	}
	return seq, nil
}

// nestedContentError reports a line indented deeper than the current
// collection's entries.
func (p *Parser) nestedContentError(tok tokenizer.Token, last Node, what string) error {
	if last != nil && !isEmpty(last) {
		return diag.Errorf(diag.AmbiguousBlockContent, tok.Pos, tok.End,
			"%s conflicts with the %s value already assigned at %s",
			describe(tok), last.Kind(), last.Start())
	}
	return diag.Errorf(diag.BadIndentation, tok.Pos, tok.End,
		"%s is indented more than the other entries of this %s", describe(tok), what)
}

// parseFlowSequence parses a flow sequence after its opening bracket.
//
// Grammar:
//
//	FlowSequence = "[" ( FlowEntry ( "," FlowEntry )* ","? )? "]" ;
func (p *Parser) parseFlowSequence(open tokenizer.Token) (*Sequence, error) {
	defer p.enter(StateInFlowCollection)()

	if err := p.tracker.PushContext(open.Pos.Column, tokenizer.ContextFlow, open.Pos); err != nil {
		return nil, err
	}
	defer p.tracker.Pop()

	seq := &Sequence{Flow: true, Pos: open.Pos}
	for {
		tok, err := p.flowPeek(open)
		if err != nil {
			return nil, err
		}
		if tok.Kind == tokenizer.TokenFlowSeqEnd {
			p.next()
			seq.EndAt = tok.End
			return seq, nil
		}

		key, value, isPair, err := p.parseFlowEntry(open)
		if err != nil {
			return nil, err
		}
		if isPair {
			// A single pair inside a flow sequence is a one-entry mapping.
			seq.Items = append(seq.Items, &Mapping{
				Pairs: []Pair{{Key: key, Value: value}},
				Flow:  true,
				Pos:   key.Start(),
				EndAt: value.End(),
			})
		} else {
			seq.Items = append(seq.Items, key)
		}

		if err := p.flowSeparator(open, tokenizer.TokenFlowSeqEnd); err != nil {
			return nil, err
		}
	}
}

// parseFlowMapping parses a flow mapping after its opening brace.
//
// Grammar:
//
//	FlowMapping = "{" ( FlowEntry ( "," FlowEntry )* ","? )? "}" ;
func (p *Parser) parseFlowMapping(open tokenizer.Token) (*Mapping, error) {
	defer p.enter(StateInFlowCollection)()

	if err := p.tracker.PushContext(open.Pos.Column, tokenizer.ContextFlow, open.Pos); err != nil {
		return nil, err
	}
	defer p.tracker.Pop()

	m := &Mapping{Flow: true, Pos: open.Pos}
	for {
		tok, err := p.flowPeek(open)
		if err != nil {
			return nil, err
		}
		if tok.Kind == tokenizer.TokenFlowMapEnd {
			p.next()
			m.EndAt = tok.End
			return m, nil
		}

		key, value, isPair, err := p.parseFlowEntry(open)
		if err != nil {
			return nil, err
		}
		if !isPair {
			value = &Scalar{Empty: true, Pos: key.End(), EndAt: key.End()}
		}
		m.Pairs = append(m.Pairs, Pair{Key: key, Value: value})

		if err := p.flowSeparator(open, tokenizer.TokenFlowMapEnd); err != nil {
			return nil, err
		}
	}
}

// parseFlowEntry parses one entry of a flow collection: a node, an implicit
// "key: value" pair or an explicit "? key : value" pair.
func (p *Parser) parseFlowEntry(open tokenizer.Token) (key, value Node, isPair bool, err error) {
	tok, err := p.flowPeek(open)
	if err != nil {
		return nil, nil, false, err
	}

	explicit := false
	switch tok.Kind {
	case tokenizer.TokenMappingKey:
		p.next()
		explicit = true
		tok, err = p.flowPeek(open)
		if err != nil {
			return nil, nil, false, err
		}
		if isFlowTerminator(tok) || tok.Kind == tokenizer.TokenMappingValue {
			key = p.emptyNode()
		} else if key, err = p.parseFlowNode(open); err != nil {
			return nil, nil, false, err
		}
	case tokenizer.TokenMappingValue:
		key = &Scalar{Empty: true, Pos: tok.Pos, EndAt: tok.Pos}
	default:
		if key, err = p.parseFlowNode(open); err != nil {
			return nil, nil, false, err
		}
	}

	tok, err = p.flowPeek(open)
	if err != nil {
		return nil, nil, false, err
	}
	if tok.Kind != tokenizer.TokenMappingValue {
		if explicit {
			return key, &Scalar{Empty: true, Pos: key.End(), EndAt: key.End()}, true, nil
		}
		return key, nil, false, nil
	}
	if !explicit && key.Start().Line != tok.Pos.Line {
		return nil, nil, false, diag.Errorf(diag.UnexpectedToken, key.Start(), tok.End,
			"implicit mapping keys must be on a single line")
	}
	p.next() // :

	tok, err = p.flowPeek(open)
	if err != nil {
		return nil, nil, false, err
	}
	if isFlowTerminator(tok) {
		return key, &Scalar{Empty: true, Pos: tok.Pos, EndAt: tok.Pos}, true, nil
	}
	value, err = p.parseFlowNode(open)
	if err != nil {
		return nil, nil, false, err
	}
	return key, value, true, nil
}

// parseFlowNode parses a node inside a flow collection.
func (p *Parser) parseFlowNode(open tokenizer.Token) (Node, error) {
	props, err := p.parseProps()
	if err != nil {
		return nil, err
	}
	tok, err := p.flowPeek(open)
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case tokenizer.TokenScalar, tokenizer.TokenAlias, tokenizer.TokenFlowSeqStart, tokenizer.TokenFlowMapStart:
		node, err := p.parseInlineNode(props, 0)
		if err != nil {
			return nil, err
		}
		if s, ok := node.(*Scalar); ok && s.Style == tokenizer.StylePlain {
			return p.foldFlowPlain(s, open)
		}
		return node, nil
	case tokenizer.TokenFlowEntry, tokenizer.TokenFlowSeqEnd, tokenizer.TokenFlowMapEnd, tokenizer.TokenMappingValue:
		if props.lead != nil {
			return &Scalar{Props: props.Props, Empty: true, Pos: props.lead.Pos, EndAt: props.end}, nil
		}
	}
	return nil, p.unexpected(tok)
}

// foldFlowPlain joins the lines of a multi-line plain scalar in a flow
// collection.
func (p *Parser) foldFlowPlain(s *Scalar, open tokenizer.Token) (Node, error) {
	defer p.enter(StateInPlainScalar)()

	var sb strings.Builder
	sb.WriteString(s.Value)
	lastLine := s.EndAt.Line
	for {
		tok := p.sc.Peek()
		if tok.Kind != tokenizer.TokenScalar || tok.Style != tokenizer.StylePlain || !tok.FirstOnLine {
			break
		}
		if _, err := p.flowPeek(open); err != nil {
			return nil, err
		}
		p.next()
		if gap := tok.Pos.Line - lastLine; gap > 1 {
			sb.WriteString(strings.Repeat("\n", gap-1))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
		s.EndAt = tok.End
		lastLine = tok.End.Line
	}
	s.Value = sb.String()
	return s, nil
}

// flowSeparator consumes the "," between flow entries or checks for the
// closing indicator.
func (p *Parser) flowSeparator(open tokenizer.Token, closer tokenizer.Kind) error {
	tok, err := p.flowPeek(open)
	if err != nil {
		return err
	}
	switch tok.Kind {
	case tokenizer.TokenFlowEntry:
		p.next()
		return nil
	case closer:
		return nil
	}
	closing := "]"
	if closer == tokenizer.TokenFlowMapEnd {
		closing = "}"
	}
	return diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
		"expected ',' or '%s' in flow collection, found %s", closing, tok)
}

// flowPeek returns the next token inside a flow collection. Flow content
// continued on a new line must be indented past the enclosing block, and the
// collection must be closed before the document ends.
func (p *Parser) flowPeek(open tokenizer.Token) (tokenizer.Token, error) {
	tok := p.peek()
	switch tok.Kind {
	case tokenizer.TokenError:
		return tok, *tok.Err
	case tokenizer.TokenEOF, tokenizer.TokenDocumentStart, tokenizer.TokenDocumentEnd, tokenizer.TokenDirective:
		return tok, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End,
			"flow collection opened at %s is not closed before %s", open.Pos, tok)
	}
	if tok.FirstOnLine && tok.Pos.Column <= p.tracker.CurrentIndent() {
		return tok, diag.Errorf(diag.BadIndentation, tok.Pos, tok.End,
			"flow content must be indented past column %d of the enclosing block", p.tracker.CurrentIndent())
	}
	return tok, nil
}

// parseProps parses an optional anchor and tag in either order.
func (p *Parser) parseProps() (nodeProps, error) {
	var props nodeProps
	for {
		tok := p.peek()
		switch tok.Kind {
		case tokenizer.TokenAnchor:
			if props.Anchor != "" {
				return props, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End, "a node can have at most one anchor")
			}
			props.Anchor, props.AnchorPos = tok.Text, tok.Pos
		case tokenizer.TokenTag:
			if props.Tag != "" {
				return props, diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End, "a node can have at most one tag")
			}
			tag, err := p.resolveTag(tok)
			if err != nil {
				return props, err
			}
			props.Tag, props.TagPos = tag, tok.Pos
		default:
			return props, nil
		}
		p.next()
		if props.lead == nil {
			lead := tok
			props.lead = &lead
		}
		props.end = tok.End
	}
}

// applyProps attaches properties to node and widens its span to include them.
func (p *Parser) applyProps(node Node, props nodeProps) error {
	if props.lead == nil {
		return nil
	}
	if _, ok := node.(*Alias); ok {
		return diag.Errorf(diag.UnexpectedToken, props.lead.Pos, props.end, "an alias node cannot have properties")
	}
	dst := node.Properties()
	if props.Anchor != "" {
		if dst.Anchor != "" {
			return diag.Errorf(diag.UnexpectedToken, dst.AnchorPos, dst.AnchorPos, "a node can have at most one anchor")
		}
		dst.Anchor, dst.AnchorPos = props.Anchor, props.AnchorPos
	}
	if props.Tag != "" {
		if dst.Tag != "" {
			return diag.Errorf(diag.UnexpectedToken, dst.TagPos, dst.TagPos, "a node can have at most one tag")
		}
		dst.Tag, dst.TagPos = props.Tag, props.TagPos
	}

	start := props.lead.Pos
	switch n := node.(type) {
	case *Scalar:
		n.Pos = start
	case *Mapping:
		n.Pos = start
	case *Sequence:
		n.Pos = start
	default:
		panic(fmt.Sprintf("parser: unknown node type %T", node))
	}
	return nil
}

// peek returns the next significant token. Comments are consumed.
func (p *Parser) peek() tokenizer.Token {
	for {
		tok := p.sc.Peek()
		if tok.Kind != tokenizer.TokenComment {
			return tok
		}
		p.sc.Next()
	}
}

// next consumes the next significant token.
func (p *Parser) next() tokenizer.Token {
	tok := p.peek()
	p.sc.Next()
	if tok.Kind != tokenizer.TokenEOF && tok.Kind != tokenizer.TokenError {
		p.lastEnd = tok.End
	}
	return tok
}

// enter switches to state s and returns a function restoring the previous
// state. A failed parse stays failed.
func (p *Parser) enter(s State) func() {
	prev := p.state
	p.state = s
	return func() {
		if p.state != StateFailed {
			p.state = prev
		}
	}
}

// unexpected reports tok as out of place in the current state.
func (p *Parser) unexpected(tok tokenizer.Token) error {
	if tok.Kind == tokenizer.TokenError {
		return *tok.Err
	}
	return diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End, "unexpected %s while parsing %s", tok, p.state)
}

// emptyNode returns a null node at the end of the last consumed token.
func (p *Parser) emptyNode() *Scalar {
	return &Scalar{Empty: true, Pos: p.lastEnd, EndAt: p.lastEnd}
}

func isStreamBoundary(tok tokenizer.Token) bool {
	switch tok.Kind {
	case tokenizer.TokenEOF, tokenizer.TokenDocumentStart, tokenizer.TokenDocumentEnd,
		tokenizer.TokenDirective, tokenizer.TokenError:
		return true
	}
	return false
}

func isFlowTerminator(tok tokenizer.Token) bool {
	switch tok.Kind {
	case tokenizer.TokenFlowEntry, tokenizer.TokenFlowSeqEnd, tokenizer.TokenFlowMapEnd:
		return true
	}
	return false
}

func isEmpty(n Node) bool {
	s, ok := n.(*Scalar)
	return ok && s.Empty && !s.HasAnchor() && !s.HasTag()
}

func describe(tok tokenizer.Token) string {
	switch tok.Kind {
	case tokenizer.TokenSequenceEntry:
		return "sequence entry"
	case tokenizer.TokenMappingKey:
		return "explicit mapping key"
	case tokenizer.TokenScalar:
		return fmt.Sprintf("%q", firstLine(tok.Text))
	default:
		return tok.String()
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}
