package tokenizer

import (
	"testing"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

func layoutAll(t *testing.T, input string, maxDepth int) []Token {
	t.Helper()
	l := NewLayout(input, maxDepth)
	var tokens []Token
	for i := 0; i < 1000; i++ {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF || tok.Kind == TokenError {
			return tokens
		}
	}
	t.Fatal("layout did not terminate")
	return nil
}

func TestLayout(t *testing.T) {
	const (
		s   = TokenScalar
		mv  = TokenMappingValue
		nl  = TokenNewline
		inc = TokenIndentIncrease
		dec = TokenIndentDecrease
	)
	tests := []struct {
		name     string
		input    string
		expected []Kind
	}{
		{
			"nested blocks",
			"a:\n  b: 1\n  c:\n    - x\nd: 2\n",
			[]Kind{inc, s, mv, nl, inc, s, mv, s, nl, s, mv, nl, inc, TokenSequenceEntry, s, nl, dec, dec, s, mv, s, nl, dec, TokenEOF},
		},
		{
			"flow lines produce no layout",
			"a: [1,\n  2]\nb: 3",
			[]Kind{inc, s, mv, TokenFlowSeqStart, s, TokenFlowEntry, s, TokenFlowSeqEnd, nl, s, mv, s, dec, TokenEOF},
		},
		{
			"misaligned line reopens a block",
			"a:\n    b: 1\n  c: 2\n",
			[]Kind{inc, s, mv, nl, inc, s, mv, s, nl, dec, inc, s, mv, s, nl, dec, dec, TokenEOF},
		},
		{
			"document markers close blocks",
			"a: 1\n---\nb\n",
			[]Kind{inc, s, mv, s, nl, dec, TokenDocumentStart, nl, inc, s, nl, dec, TokenEOF},
		},
		{
			"comments pass through",
			"a: 1 # c\n# own\nb: 2\n",
			[]Kind{inc, s, mv, s, TokenComment, TokenComment, nl, s, mv, s, nl, dec, TokenEOF},
		},
		{
			"empty input",
			"",
			[]Kind{TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKinds(t, layoutAll(t, tt.input, 0), tt.expected...)
		})
	}
}

func TestLayoutPositions(t *testing.T) {
	tokens := layoutAll(t, "a:\n  b: 1\n", 0)
	// inc a : nl inc b : 1 nl dec EOF
	if nl := tokens[3]; nl.Kind != TokenNewline || nl.Pos.Line != 1 || nl.Pos.Column != 3 {
		t.Errorf("expected Newline at the end of line 1, got %v at %s", nl.Kind, nl.Pos)
	}
	if inc := tokens[4]; inc.Kind != TokenIndentIncrease || inc.Pos.Line != 2 || inc.Pos.Column != 3 {
		t.Errorf("expected IndentIncrease at 2:3, got %v at %s", inc.Kind, inc.Pos)
	}
}

func TestLayoutDepthLimit(t *testing.T) {
	l := NewLayout("a:\n b:\n  c: 1\n", 2)
	var last Token
	for i := 0; i < 100; i++ {
		last = l.Next()
		if last.Kind == TokenError || last.Kind == TokenEOF {
			break
		}
	}
	if last.Kind != TokenError || last.Err.Code != diag.NestingTooDeep {
		t.Fatalf("expected a NestingTooDeep error, got %v", last)
	}
	if last.Pos.Line != 3 || last.Pos.Column != 3 {
		t.Errorf("expected the error at 3:3, got %s", last.Pos)
	}
	if again := l.Next(); again.Kind != TokenError {
		t.Errorf("expected the error to be sticky, got %v", again)
	}
}

func TestLayoutBlockScalarUsesOpenBlock(t *testing.T) {
	tokens := layoutAll(t, "key: |\n  text\nnext: 1\n", 0)
	if tokens[3].Kind != TokenScalar || tokens[3].Text != "text\n" {
		t.Fatalf("expected the literal scalar \"text\\n\", got %v", tokens[3])
	}
}
