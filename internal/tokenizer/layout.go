package tokenizer

import (
	"errors"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

// Layout wraps a Scanner and makes the block structure of the input explicit.
// A Newline token ends every line that held tokens, and the first token of a
// line in block context is preceded by one IndentIncrease when it opens a
// deeper block or by one IndentDecrease per block it closes. Indentation is
// decided by an IndentationTracker, the same policy the parser applies to
// Token.FirstOnLine. Inside flow collections no layout tokens are produced.
// Document markers, directives and the end of the stream close every block.
//
// A line that closes blocks but lands between two enclosing columns closes
// them and then opens a new block at its own column; rejecting it is left to
// the parser. Continuation lines of plain scalars are not joined and appear
// as separate scalar tokens.
type Layout struct {
	sc      *Scanner
	tracker *IndentationTracker
	pending []Token
	open    bool // tokens were produced since the last Newline
	lastEnd diag.Position
	final   *Token // sticky EOF or error
}

// NewLayout creates a layout stream over src. maxDepth bounds the number of
// open blocks; a value <= 0 disables the limit.
func NewLayout(src string, maxDepth int) *Layout {
	tracker := NewIndentationTracker(maxDepth)
	return &Layout{
		sc:      NewScanner(src, tracker),
		tracker: tracker,
		lastEnd: diag.Start,
	}
}

// Next returns the next token. After EOF or an error token it keeps
// returning that token.
func (l *Layout) Next() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	if l.final != nil {
		return *l.final
	}

	inFlow := l.sc.FlowLevel() > 0
	tok := l.sc.Next()
	switch {
	case tok.Kind == TokenError:
		l.final = &tok
		return tok
	case tok.Kind == TokenComment:
		return tok
	case tok.Kind == TokenEOF || tok.Kind == TokenDocumentStart ||
		tok.Kind == TokenDocumentEnd || tok.Kind == TokenDirective:
		l.endLine(tok.Pos)
		for range l.tracker.PopTo(0) {
			l.pending = append(l.pending, l.layoutToken(TokenIndentDecrease, tok.Pos))
		}
		if tok.Kind == TokenEOF {
			l.final = &tok
		}
	case tok.FirstOnLine && !inFlow:
		l.endLine(tok.Pos)
		if err := l.indent(tok); err != nil {
			errTok := Token{Kind: TokenError, Pos: tok.Pos, End: tok.Pos, Err: err}
			l.pending = append(l.pending, errTok)
			l.final = &errTok
			return l.Next()
		}
	}

	l.pending = append(l.pending, tok)
	if tok.Kind != TokenEOF {
		l.open = true
		l.lastEnd = tok.End
	}
	return l.Next()
}

// endLine queues a Newline for the line the previous token ended on.
func (l *Layout) endLine(next diag.Position) {
	if !l.open || next.Line == l.lastEnd.Line {
		return
	}
	l.pending = append(l.pending, l.layoutToken(TokenNewline, l.lastEnd))
	l.open = false
}

// indent queues the indentation changes tok's column implies.
func (l *Layout) indent(tok Token) *diag.Diagnostic {
	col := tok.Pos.Column
	switch l.tracker.Classify(col) {
	case DecisionContinue:
		return nil
	case DecisionClose, DecisionMisaligned:
		for range l.tracker.PopTo(col) {
			l.pending = append(l.pending, l.layoutToken(TokenIndentDecrease, tok.Pos))
		}
		if col <= l.tracker.CurrentIndent() {
			return nil
		}
	}

	ctx := ContextBlockMapping
	if tok.Kind == TokenSequenceEntry {
		ctx = ContextBlockSequence
	}
	if err := l.tracker.PushContext(col, ctx, tok.Pos); err != nil {
		var d diag.Diagnostic
		if !errors.As(err, &d) {
			d = diag.Errorf(diag.BadIndentation, tok.Pos, tok.Pos, "%v", err)
		}
		return &d
	}
	l.pending = append(l.pending, l.layoutToken(TokenIndentIncrease, tok.Pos))
	return nil
}

func (l *Layout) layoutToken(kind Kind, pos diag.Position) Token {
	return Token{Kind: kind, Pos: pos, End: pos}
}
