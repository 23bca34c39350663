package parser

import (
	"errors"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// ParseStream parses a YAML stream that may contain multiple documents
// separated by --- markers and optionally ending with ... markers.
//
// Grammar:
//
//	Stream = Document* ;
//	Document = DirectiveLine* ( "---" | <bare> ) BlockNode? "..."? ;
//
// A document that fails to parse keeps its diagnostics and a nil root;
// parsing resumes at the next "---" marker unless the scanner itself failed.
func ParseStream(input string, opts Options) []*Document {
	return NewParser(input, opts).ParseAll()
}

// ParseAll parses every remaining document.
func (p *Parser) ParseAll() []*Document {
	var docs []*Document
	for {
		doc, more := p.ParseDocument()
		if doc != nil {
			docs = append(docs, doc)
		}
		if !more {
			return docs
		}
	}
}

// ParseDocument parses the next document of the stream. It returns a nil
// document when the stream holds no further content, and reports whether
// more documents may follow.
func (p *Parser) ParseDocument() (*Document, bool) {
	p.doc = &Document{TagHandles: map[string]string{}}
	p.state = StateExpectBlockNode
	doc := p.doc

	// Document end markers with no document in front of them are allowed.
	for p.peek().Kind == tokenizer.TokenDocumentEnd {
		p.next()
	}

	start := p.peek()
	doc.Pos = start.Pos
	sawDirectives, err := p.parseDirectives()
	if err != nil {
		return p.fail(err)
	}

	tok := p.peek()
	switch {
	case tok.Kind == tokenizer.TokenError:
		return p.fail(*tok.Err)
	case sawDirectives && tok.Kind != tokenizer.TokenDocumentStart:
		return p.fail(diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End,
			"directives must be followed by a document start marker '---'"))
	case tok.Kind == tokenizer.TokenEOF:
		if len(doc.Diagnostics) > 0 {
			return doc, false
		}
		return nil, false
	case tok.Kind == tokenizer.TokenDocumentStart:
		p.next()
		doc.ExplicitStart = true
	}

	if !isStreamBoundary(p.peek()) {
		root, err := p.parseBlockNode(blockParent{})
		if err != nil {
			return p.fail(err)
		}
		doc.Root = root
	}
	if open := p.tracker.PopTo(0); len(open) > 0 {
		// Every collection closes its own frame; anything left is a bug.
		panic("parser: indentation frames left open at document end")
	}

	p.state = StateDocumentEnd
	more, err := p.endDocument()
	if err != nil {
		return p.fail(err)
	}
	return doc, more
}

// endDocument checks what follows the root node.
func (p *Parser) endDocument() (bool, error) {
	doc := p.doc
	tok := p.peek()
	doc.EndAt = p.lastEnd

	switch tok.Kind {
	case tokenizer.TokenEOF:
		return false, nil
	case tokenizer.TokenError:
		return false, *tok.Err
	case tokenizer.TokenDocumentStart:
		return true, nil
	case tokenizer.TokenDocumentEnd:
		p.next()
		doc.ExplicitEnd = true
		doc.EndAt = tok.End
		next := p.peek()
		if next.Kind == tokenizer.TokenError {
			return false, *next.Err
		}
		if next.Kind != tokenizer.TokenEOF && next.Pos.Line == tok.Pos.Line {
			return false, diag.Errorf(diag.UnexpectedToken, next.Pos, next.End,
				"unexpected %s after the document end marker", next)
		}
		return next.Kind != tokenizer.TokenEOF, nil
	case tokenizer.TokenDirective:
		return false, diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End,
			"a directive after document content requires the document end marker '...'")
	}

	if tok.FirstOnLine && doc.Root != nil && tok.Pos.Column < doc.Root.Start().Column {
		return false, diag.Errorf(diag.BadIndentation, tok.Pos, tok.End,
			"content at column %d is less indented than the document root at column %d",
			tok.Pos.Column, doc.Root.Start().Column)
	}
	return false, p.unexpected(tok)
}

// fail records err against the current document and skips to the next
// document start.
func (p *Parser) fail(err error) (*Document, bool) {
	var d diag.Diagnostic
	if !errors.As(err, &d) {
		tok := p.sc.Peek()
		d = diag.Errorf(diag.UnexpectedToken, tok.Pos, tok.End, "%s", err.Error())
	}
	p.doc.Diagnostics.Add(d)
	p.doc.Root = nil
	p.state = StateFailed
	p.tracker.PopTo(0)
	return p.doc, p.skipToNextDocument()
}

// skipToNextDocument discards tokens up to the next "---" marker. It reports
// false when the stream ended or the scanner failed.
func (p *Parser) skipToNextDocument() bool {
	for {
		tok := p.sc.Peek()
		switch tok.Kind {
		case tokenizer.TokenEOF, tokenizer.TokenError:
			return false
		case tokenizer.TokenDocumentStart:
			p.sc.ResetFlowLevel()
			return true
		}
		p.sc.Next()
	}
}

// warn records a non-fatal diagnostic.
func (p *Parser) warn(d diag.Diagnostic) {
	p.doc.Diagnostics.Add(d)
}
