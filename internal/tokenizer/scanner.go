package tokenizer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

// Scanner produces tokens lazily from YAML text.
//
// The scanner keeps exactly one token of lookahead. It is restartable only by
// creating a new Scanner over the same input. Once a TokenError or TokenEOF
// has been produced, every further call returns that same token.
//
// Plain scalars are emitted one line at a time; folding continuation lines is
// the parser's job since only the parser knows whether the next line is
// indented deeply enough. Quoted and block scalars are scanned whole.
type Scanner struct {
	src    string
	indent IndentContext

	pos       int // byte offset of the next unread byte
	line      int // 1-based
	lineStart int // byte offset where the current line starts

	// colPos and col cache the rune column of the last marked offset, so
	// positions on long lines cost only the runes scanned since.
	colPos int
	col    int
	flowLevel int

	lineHasToken bool // a token has been produced on the current line
	sawSpace     bool // whitespace or a break since the last token
	prevKind     Kind
	prevStyle    Style

	peeked  Token
	hasPeek bool
	final   *Token // sticky EOF or error

	// plainMin is the column a line must exceed to be scanned as the
	// continuation of a plain scalar; -1 when not continuing.
	plainMin int

	anchorMatcher    shapetokenizer.Matcher
	aliasMatcher     shapetokenizer.Matcher
	tagMatcher       shapetokenizer.Matcher
	directiveMatcher shapetokenizer.Matcher
	commentMatcher   shapetokenizer.Matcher
}

// NewScanner creates a scanner over src. indent supplies the current block
// indentation when a block scalar is scanned; nil means top level.
func NewScanner(src string, indent IndentContext) *Scanner {
	s := &Scanner{
		src:              src,
		indent:           indent,
		line:             1,
		sawSpace:         true,
		plainMin:         -1,
		anchorMatcher:    NodePropertyMatcher('&'),
		aliasMatcher:     NodePropertyMatcher('*'),
		tagMatcher:       TagMatcher(),
		directiveMatcher: DirectiveMatcher(),
		commentMatcher:   CommentMatcher(),
	}
	if strings.HasPrefix(src, "\uFEFF") {
		s.pos = len("\uFEFF")
		s.lineStart = s.pos
	}
	return s
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() Token {
	if !s.hasPeek {
		s.peeked = s.scan()
		s.hasPeek = true
	}
	return s.peeked
}

// Next consumes and returns the next token.
func (s *Scanner) Next() Token {
	t := s.Peek()
	if t.Kind != TokenEOF && t.Kind != TokenError {
		s.hasPeek = false
	}
	return t
}

// ContinuePlain asks the scanner to treat the next line as a possible
// continuation of the plain scalar just consumed. If that line starts to the
// right of minColumn in block context, it is scanned as plain text unless it
// opens with a block indicator ("- ", "? ", ": ") or a document marker. The
// request applies to the next token only and is ignored while a token is
// buffered.
func (s *Scanner) ContinuePlain(minColumn int) {
	if s.hasPeek {
		return
	}
	s.plainMin = minColumn
}

// ResetFlowLevel forgets any open flow collections. The parser calls it when
// it abandons a failed document at a document start marker.
func (s *Scanner) ResetFlowLevel() { s.flowLevel = 0 }

// FlowLevel returns the number of open flow collections seen so far.
func (s *Scanner) FlowLevel() int { return s.flowLevel }

// Source returns the text being scanned.
func (s *Scanner) Source() string { return s.src }

func (s *Scanner) scan() Token {
	if s.final != nil {
		return *s.final
	}

	if tok, ok := s.skipToToken(); ok {
		return s.emit(tok)
	}

	start := s.mark()
	first := !s.lineHasToken
	space := s.sawSpace

	if s.pos >= len(s.src) {
		tok := Token{Kind: TokenEOF, Pos: start, End: start, FirstOnLine: first, SpaceBefore: space}
		s.final = &tok
		return tok
	}

	var tok Token
	if s.plainMin >= 0 && first && space && start.Column > s.plainMin && s.flowLevel == 0 && !s.startsBlockIndicator() {
		tok = s.scanPlain(start)
	} else {
		tok = s.scanToken(start)
	}
	tok.FirstOnLine = first
	tok.SpaceBefore = space
	return s.emit(tok)
}

// emit records bookkeeping for the produced token.
func (s *Scanner) emit(tok Token) Token {
	s.plainMin = -1
	if tok.Kind == TokenError {
		s.final = &tok
		return tok
	}
	if tok.Kind != TokenComment {
		s.prevKind = tok.Kind
		s.prevStyle = tok.Style
		s.lineHasToken = true
	}
	s.sawSpace = false
	if tok.End.Line != s.line {
		// A block scalar consumes its trailing line breaks.
		s.lineHasToken = false
		s.sawSpace = true
	}
	return tok
}

func (s *Scanner) scanToken(start diag.Position) Token {
	c := s.src[s.pos]
	atColumnOne := s.pos == s.lineStart

	if atColumnOne && (s.hasPrefixAt(s.pos, "---") || s.hasPrefixAt(s.pos, "...")) && s.isBlankOrEnd(s.pos+3) {
		kind := TokenDocumentStart
		if c == '.' {
			kind = TokenDocumentEnd
		}
		s.pos += 3
		return Token{Kind: kind, Pos: start, End: s.mark()}
	}

	switch c {
	case '[', '{':
		s.flowLevel++
		s.pos++
		kind := TokenFlowSeqStart
		if c == '{' {
			kind = TokenFlowMapStart
		}
		return Token{Kind: kind, Pos: start, End: s.mark()}
	case ']', '}':
		if s.flowLevel > 0 {
			s.flowLevel--
		}
		s.pos++
		kind := TokenFlowSeqEnd
		if c == '}' {
			kind = TokenFlowMapEnd
		}
		return Token{Kind: kind, Pos: start, End: s.mark()}
	case ',':
		s.pos++
		return Token{Kind: TokenFlowEntry, Pos: start, End: s.mark()}
	case '-', '?', ':':
		if tok, ok := s.scanIndicator(c, start); ok {
			return tok
		}
	case '&', '*', '!':
		return s.scanProperty(c, start)
	case '%':
		if atColumnOne && s.flowLevel == 0 {
			return s.scanDirective(start)
		}
		return s.errorToken(diag.UnexpectedToken, start, "character '%%' is reserved and cannot start a plain scalar")
	case '|', '>':
		if s.flowLevel > 0 {
			return s.errorToken(diag.UnexpectedToken, start, "block scalar indicator %q is not allowed inside a flow collection", c)
		}
		return s.scanBlockScalar(start)
	case '\'':
		return s.scanSingleQuoted(start)
	case '"':
		return s.scanDoubleQuoted(start)
	case '@', '`':
		return s.errorToken(diag.UnexpectedToken, start, "character %q is reserved and cannot start a plain scalar", c)
	case '#':
		// skipToToken only stops here when no whitespace separates the '#'
		// from the previous token.
		return s.errorToken(diag.UnexpectedToken, start, "comments must be separated from other tokens by whitespace")
	}

	return s.scanPlain(start)
}

// skipToToken consumes whitespace and line breaks. It returns a comment or
// error token when one is found on the way.
func (s *Scanner) skipToToken() (Token, bool) {
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; c {
		case ' ':
			s.pos++
			s.sawSpace = true
		case '\t':
			if !s.lineHasToken && s.flowLevel == 0 && s.restOfLineHasContent(s.pos) {
				pos := s.mark()
				return s.errorToken(diag.TabIndentation, pos, "tab characters must not be used for indentation"), true
			}
			s.pos++
			s.sawSpace = true
		case '\n', '\r':
			s.consumeBreak()
			s.sawSpace = true
		case '#':
			if !s.sawSpace && s.lineHasToken {
				return Token{}, false
			}
			start := s.mark()
			m := s.commentMatcher(shapetokenizer.NewStream(s.restOfLine()))
			text := m.ValueString()
			s.pos += len(text)
			return Token{Kind: TokenComment, Text: text[1:], Pos: start, End: s.mark(), FirstOnLine: !s.lineHasToken}, true
		case 0xEF:
			// A byte order mark is allowed at the start of a document.
			if s.hasPrefixAt(s.pos, "\uFEFF") && s.pos == s.lineStart {
				s.pos += len("\uFEFF")
				s.lineStart = s.pos
				continue
			}
			return Token{}, false
		default:
			return Token{}, false
		}
	}
	return Token{}, false
}

func (s *Scanner) scanIndicator(c byte, start diag.Position) (Token, bool) {
	next := s.pos + 1
	inFlow := s.flowLevel > 0
	isIndicator := s.isBlankOrEnd(next)
	if !isIndicator && inFlow && next < len(s.src) && isFlowIndicatorByte(s.src[next]) {
		if c == '-' {
			return s.errorToken(diag.UnexpectedToken, start, "'-' cannot start a plain scalar before a flow indicator"), true
		}
		isIndicator = true
	}
	if !isIndicator && c == ':' && inFlow && s.afterJSONNode() {
		isIndicator = true
	}
	if !isIndicator {
		return Token{}, false
	}

	s.pos++
	var kind Kind
	switch c {
	case '-':
		kind = TokenSequenceEntry
	case '?':
		kind = TokenMappingKey
	default:
		kind = TokenMappingValue
	}
	return Token{Kind: kind, Pos: start, End: s.mark()}, true
}

// startsBlockIndicator reports whether the input at s.pos begins with a
// token that cannot continue a plain scalar.
func (s *Scanner) startsBlockIndicator() bool {
	switch s.src[s.pos] {
	case '-', '?', ':':
		if s.isBlankOrEnd(s.pos + 1) {
			return true
		}
	}
	if s.pos != s.lineStart {
		return false
	}
	// A directive line in the middle of a document is an error, not text.
	if s.src[s.pos] == '%' {
		return true
	}
	return (s.hasPrefixAt(s.pos, "---") || s.hasPrefixAt(s.pos, "...")) && s.isBlankOrEnd(s.pos+3)
}

// afterJSONNode reports whether the previous token was a quoted scalar or a
// flow collection end with nothing in between, which lets ':' act as a value
// indicator without a following space.
func (s *Scanner) afterJSONNode() bool {
	if s.sawSpace {
		return false
	}
	switch s.prevKind {
	case TokenFlowSeqEnd, TokenFlowMapEnd:
		return true
	case TokenScalar:
		return s.prevStyle.Quoted()
	}
	return false
}

func (s *Scanner) scanProperty(c byte, start diag.Position) Token {
	var (
		m    shapetokenizer.Matcher
		kind Kind
		what string
	)
	switch c {
	case '&':
		m, kind, what = s.anchorMatcher, TokenAnchor, "anchor"
	case '*':
		m, kind, what = s.aliasMatcher, TokenAlias, "alias"
	default:
		m, kind, what = s.tagMatcher, TokenTag, "tag"
	}

	match := m(shapetokenizer.NewStream(s.restOfWord()))
	if match == nil {
		if kind == TokenTag {
			return s.errorToken(diag.InvalidTag, start, "malformed tag")
		}
		return s.errorToken(diag.UnexpectedToken, start, "%s name must not be empty", what)
	}
	text := match.ValueString()
	s.pos += len(text)

	if kind != TokenTag {
		text = text[1:]
	}
	return Token{Kind: kind, Text: text, Pos: start, End: s.mark()}
}

func (s *Scanner) scanDirective(start diag.Position) Token {
	match := s.directiveMatcher(shapetokenizer.NewStream(s.restOfLine()))
	if match == nil {
		return s.errorToken(diag.InvalidDirective, start, "directive name must not be empty")
	}
	text := match.ValueString()
	s.pos += len(text)
	return Token{Kind: TokenDirective, Text: text, Pos: start, End: s.mark()}
}

// scanPlain scans the part of a plain scalar that lies on the current line.
func (s *Scanner) scanPlain(start diag.Position) Token {
	inFlow := s.flowLevel > 0
	end := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ':' {
			next := s.pos + 1
			if s.isBlankOrEnd(next) || (inFlow && next < len(s.src) && isFlowIndicatorByte(s.src[next])) {
				break
			}
		}
		if c == '#' && s.pos > 0 && isBlankByte(s.src[s.pos-1]) {
			break
		}
		if inFlow && isFlowIndicatorByte(c) {
			break
		}
		if c == ' ' || c == '\t' {
			s.pos++
			continue
		}
		_, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.pos += size
		end = s.pos
	}
	s.pos = end
	return Token{
		Kind:  TokenScalar,
		Text:  s.src[start.Offset:end],
		Style: StylePlain,
		Pos:   start,
		End:   s.mark(),
	}
}

func (s *Scanner) scanSingleQuoted(start diag.Position) Token {
	s.pos++
	var sb strings.Builder
	for {
		if s.pos >= len(s.src) {
			return s.errorToken(diag.UnterminatedScalar, start, "unterminated single-quoted scalar")
		}
		c := s.src[s.pos]
		switch {
		case c == '\'':
			if s.hasPrefixAt(s.pos, "''") {
				sb.WriteByte('\'')
				s.pos += 2
				continue
			}
			s.pos++
			return Token{Kind: TokenScalar, Text: sb.String(), Style: StyleSingleQuoted, Pos: start, End: s.mark()}
		case c == ' ' || c == '\t':
			s.writeInnerWhitespace(&sb)
		case c == '\n' || c == '\r':
			if tok, failed := s.foldQuotedBreak(&sb, start); failed {
				return tok
			}
		default:
			_, size := utf8.DecodeRuneInString(s.src[s.pos:])
			sb.WriteString(s.src[s.pos : s.pos+size])
			s.pos += size
		}
	}
}

func (s *Scanner) scanDoubleQuoted(start diag.Position) Token {
	s.pos++
	var sb strings.Builder
	for {
		if s.pos >= len(s.src) {
			return s.errorToken(diag.UnterminatedScalar, start, "unterminated double-quoted scalar")
		}
		c := s.src[s.pos]
		switch {
		case c == '"':
			s.pos++
			return Token{Kind: TokenScalar, Text: sb.String(), Style: StyleDoubleQuoted, Pos: start, End: s.mark()}
		case c == '\\':
			if tok, failed := s.scanEscape(&sb, start); failed {
				return tok
			}
		case c == ' ' || c == '\t':
			s.writeInnerWhitespace(&sb)
		case c == '\n' || c == '\r':
			if tok, failed := s.foldQuotedBreak(&sb, start); failed {
				return tok
			}
		default:
			_, size := utf8.DecodeRuneInString(s.src[s.pos:])
			sb.WriteString(s.src[s.pos : s.pos+size])
			s.pos += size
		}
	}
}

var simpleEscapes = map[byte]string{
	'0':  "\x00",
	'a':  "\a",
	'b':  "\b",
	't':  "\t",
	'\t': "\t",
	'n':  "\n",
	'v':  "\v",
	'f':  "\f",
	'r':  "\r",
	'e':  "\x1b",
	' ':  " ",
	'"':  "\"",
	'/':  "/",
	'\\': "\\",
	'N':  "\u0085",
	'_':  "\u00a0",
	'L':  "\u2028",
	'P':  "\u2029",
}

// scanEscape handles a backslash inside a double-quoted scalar.
func (s *Scanner) scanEscape(sb *strings.Builder, start diag.Position) (Token, bool) {
	escPos := s.mark()
	if s.pos+1 >= len(s.src) {
		return s.errorToken(diag.UnterminatedScalar, start, "unterminated double-quoted scalar"), true
	}
	e := s.src[s.pos+1]

	if e == '\n' || e == '\r' {
		// Escaped line break: join without a space.
		s.pos++
		s.consumeBreak()
		if tok, failed := s.checkQuotedContinuation(start); failed {
			return tok, true
		}
		for s.pos < len(s.src) {
			c := s.src[s.pos]
			if c == ' ' || c == '\t' {
				s.pos++
				continue
			}
			if c == '\n' || c == '\r' {
				sb.WriteByte('\n')
				s.consumeBreak()
				if tok, failed := s.checkQuotedContinuation(start); failed {
					return tok, true
				}
				continue
			}
			break
		}
		return Token{}, false
	}

	if r, ok := simpleEscapes[e]; ok {
		sb.WriteString(r)
		s.pos += 2
		return Token{}, false
	}

	var width int
	switch e {
	case 'x':
		width = 2
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		_, size := utf8.DecodeRuneInString(s.src[s.pos+1:])
		return s.errorToken(diag.InvalidEscape, escPos, "invalid escape sequence \\%s in double-quoted scalar", s.src[s.pos+1:s.pos+1+size]), true
	}

	digits := s.pos + 2
	if digits+width > len(s.src) {
		return s.errorToken(diag.InvalidEscape, escPos, "escape sequence \\%c needs %d hexadecimal digits", e, width), true
	}
	code, err := strconv.ParseUint(s.src[digits:digits+width], 16, 32)
	if err != nil {
		return s.errorToken(diag.InvalidEscape, escPos, "escape sequence \\%c needs %d hexadecimal digits", e, width), true
	}
	r := rune(code)
	if !utf8.ValidRune(r) {
		return s.errorToken(diag.InvalidEscape, escPos, "escape sequence \\%s is not a valid Unicode code point", s.src[s.pos+1:digits+width]), true
	}
	sb.WriteRune(r)
	s.pos = digits + width
	return Token{}, false
}

// writeInnerWhitespace copies a run of blanks unless it trails the line.
func (s *Scanner) writeInnerWhitespace(sb *strings.Builder) {
	runStart := s.pos
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	if s.pos < len(s.src) && (s.src[s.pos] == '\n' || s.src[s.pos] == '\r') {
		return
	}
	sb.WriteString(s.src[runStart:s.pos])
}

// foldQuotedBreak folds a line break inside a quoted scalar. A single break
// becomes a space; each following empty line becomes a line feed.
func (s *Scanner) foldQuotedBreak(sb *strings.Builder, start diag.Position) (Token, bool) {
	s.consumeBreak()
	if tok, failed := s.checkQuotedContinuation(start); failed {
		return tok, true
	}
	empty := 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' {
			s.pos++
			continue
		}
		if c == '\n' || c == '\r' {
			empty++
			s.consumeBreak()
			if tok, failed := s.checkQuotedContinuation(start); failed {
				return tok, true
			}
			continue
		}
		break
	}
	if empty == 0 {
		sb.WriteByte(' ')
	} else {
		sb.WriteString(strings.Repeat("\n", empty))
	}
	return Token{}, false
}

// checkQuotedContinuation validates a new line inside a quoted scalar: a
// document marker cannot appear there, and content lines must be indented
// past the enclosing block.
func (s *Scanner) checkQuotedContinuation(start diag.Position) (Token, bool) {
	if (s.hasPrefixAt(s.pos, "---") || s.hasPrefixAt(s.pos, "...")) && s.isBlankOrEnd(s.pos+3) {
		return s.errorToken(diag.UnterminatedScalar, start, "quoted scalar is not closed before the document marker"), true
	}
	if s.pos >= len(s.src) {
		return Token{}, false
	}
	spaces := 0
	for s.pos+spaces < len(s.src) && s.src[s.pos+spaces] == ' ' {
		spaces++
	}
	if !s.restOfLineHasContent(s.pos + spaces) {
		return Token{}, false
	}
	if s.src[s.pos+spaces] == '\t' {
		// Tabs are separation inside quoted scalars.
		return Token{}, false
	}
	if minSpaces := s.currentIndent(); spaces < minSpaces {
		pos := s.mark()
		pos.Offset += spaces
		pos.Column += spaces
		return s.errorToken(diag.BadIndentation, pos,
			"continuation line of a quoted scalar must be indented at least %d spaces", minSpaces), true
	}
	return Token{}, false
}

// scanBlockScalar scans a literal (|) or folded (>) block scalar including its
// header and every content line.
func (s *Scanner) scanBlockScalar(start diag.Position) Token {
	style := StyleLiteral
	if s.src[s.pos] == '>' {
		style = StyleFolded
	}
	s.pos++

	chomp := 0 // -1 strip, 0 clip, +1 keep
	increment := 0
	for i := 0; i < 2 && s.pos < len(s.src); i++ {
		c := s.src[s.pos]
		switch {
		case (c == '+' || c == '-') && chomp == 0:
			chomp = 1
			if c == '-' {
				chomp = -1
			}
			s.pos++
		case c >= '1' && c <= '9' && increment == 0:
			increment = int(c - '0')
			s.pos++
		case c == '0':
			return s.errorToken(diag.UnexpectedToken, s.mark(), "block scalar indentation indicator must be between 1 and 9")
		}
	}

	// The rest of the header line may only hold blanks and a comment.
	sawBlank := false
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
		sawBlank = true
	}
	if s.pos < len(s.src) && s.src[s.pos] == '#' {
		if !sawBlank {
			return s.errorToken(diag.UnexpectedToken, s.mark(), "comments must be separated from other tokens by whitespace")
		}
		for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
			s.pos++
		}
	}
	if s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		return s.errorToken(diag.UnexpectedToken, s.mark(), "unexpected content after block scalar header")
	}
	headerEnd := s.mark()
	if s.pos < len(s.src) {
		s.consumeBreak()
	}

	parent := s.currentIndent() - 1 // parent indentation in spaces, -1 at top level
	indent := 0
	if increment > 0 {
		indent = max(parent, 0) + increment
	} else {
		var tok Token
		var failed bool
		indent, tok, failed = s.detectBlockIndent(parent + 1)
		if failed {
			return tok
		}
	}

	var (
		sb             strings.Builder
		leadingBreak   string
		trailingBreaks strings.Builder
		leadingBlank   bool
		end            = headerEnd
	)
	for {
		// Leading spaces of the line up to the content indentation.
		spaces := 0
		for s.pos+spaces < len(s.src) && spaces < indent && s.src[s.pos+spaces] == ' ' {
			spaces++
		}
		at := s.pos + spaces
		if at >= len(s.src) {
			s.pos = at
			break
		}
		if c := s.src[at]; c == '\n' || c == '\r' {
			s.pos = at
			s.consumeBreak()
			trailingBreaks.WriteByte('\n')
			continue
		}
		if spaces < indent {
			// Less indented: the scalar ends, unless the line is blank.
			if s.isBlankLine(at) {
				s.pos = at
				s.skipLine()
				trailingBreaks.WriteByte('\n')
				continue
			}
			break
		}
		if s.pos == s.lineStart && (s.hasPrefixAt(s.pos, "---") || s.hasPrefixAt(s.pos, "...")) && s.isBlankOrEnd(s.pos+3) {
			break
		}

		s.pos = at
		trailingBlank := s.src[s.pos] == ' ' || s.src[s.pos] == '\t'
		if style == StyleFolded && leadingBreak == "\n" && !leadingBlank && !trailingBlank {
			if trailingBreaks.Len() == 0 {
				sb.WriteByte(' ')
			}
		} else {
			sb.WriteString(leadingBreak)
		}
		leadingBreak = ""
		sb.WriteString(trailingBreaks.String())
		trailingBreaks.Reset()
		leadingBlank = trailingBlank

		lineEnd := s.pos
		for lineEnd < len(s.src) && s.src[lineEnd] != '\n' && s.src[lineEnd] != '\r' {
			lineEnd++
		}
		sb.WriteString(s.src[s.pos:lineEnd])
		s.pos = lineEnd
		end = s.mark()
		if s.pos < len(s.src) {
			s.consumeBreak()
			leadingBreak = "\n"
		}
	}

	if chomp != -1 {
		sb.WriteString(leadingBreak)
	}
	if chomp == 1 {
		sb.WriteString(trailingBreaks.String())
	}

	// The terminating line is left unconsumed so its indentation is measured
	// as usual.
	return Token{Kind: TokenScalar, Text: sb.String(), Style: style, Pos: start, End: end}
}

// detectBlockIndent finds the content indentation of a block scalar without
// an indentation indicator. Leading empty lines must not be indented more than
// the first content line.
func (s *Scanner) detectBlockIndent(minIndent int) (int, Token, bool) {
	if minIndent < 0 {
		minIndent = 0
	}
	maxBlank := 0
	var maxBlankPos diag.Position
	p, line := s.pos, s.line
	for p < len(s.src) {
		spaces := 0
		for p+spaces < len(s.src) && s.src[p+spaces] == ' ' {
			spaces++
		}
		at := p + spaces
		if at < len(s.src) && (s.src[at] == '\n' || s.src[at] == '\r') {
			if spaces > maxBlank {
				maxBlank = spaces
				maxBlankPos = diag.Position{Offset: p, Line: line, Column: 1}
			}
			p = at + 1
			if s.src[at] == '\r' && p < len(s.src) && s.src[p] == '\n' {
				p++
			}
			line++
			continue
		}
		if at >= len(s.src) {
			break
		}
		if spaces < minIndent {
			// No content belongs to this scalar.
			return max(minIndent, maxBlank), Token{}, false
		}
		if maxBlank > spaces {
			return 0, s.errorToken(diag.BadIndentation, maxBlankPos,
				"leading empty line of a block scalar is indented more than its first content line"), true
		}
		return spaces, Token{}, false
	}
	return max(minIndent, maxBlank), Token{}, false
}

func (s *Scanner) errorToken(code diag.Code, pos diag.Position, format string, args ...any) Token {
	d := diag.Errorf(code, pos, pos, format, args...)
	return Token{Kind: TokenError, Pos: pos, End: pos, Err: &d}
}

// currentIndent returns the enclosing block column, 0 at top level.
func (s *Scanner) currentIndent() int {
	if s.indent == nil {
		return 0
	}
	return s.indent.CurrentIndent()
}

func (s *Scanner) mark() diag.Position {
	if s.colPos < s.lineStart || s.colPos > s.pos {
		s.colPos, s.col = s.lineStart, 0
	}
	s.col += utf8.RuneCountInString(s.src[s.colPos:s.pos])
	s.colPos = s.pos
	return diag.Position{
		Offset: s.pos,
		Line:   s.line,
		Column: s.col + 1,
	}
}

// consumeBreak consumes one line break (\n, \r or \r\n) at s.pos.
func (s *Scanner) consumeBreak() {
	if s.src[s.pos] == '\r' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n' {
		s.pos++
	}
	s.pos++
	s.line++
	s.lineStart = s.pos
	s.lineHasToken = false
}

// skipLine consumes the rest of the current line and its break.
func (s *Scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		s.pos++
	}
	if s.pos < len(s.src) {
		s.consumeBreak()
	}
}

func (s *Scanner) restOfLine() string {
	end := s.pos
	for end < len(s.src) && s.src[end] != '\n' && s.src[end] != '\r' {
		end++
	}
	return s.src[s.pos:end]
}

// restOfWord returns the input from s.pos up to the next blank or line
// break. Node properties never extend past it.
func (s *Scanner) restOfWord() string {
	end := s.pos
	for end < len(s.src) && !isBlankByte(s.src[end]) {
		end++
	}
	return s.src[s.pos:end]
}

// restOfLineHasContent reports whether anything other than blanks or a
// comment follows p on its line.
func (s *Scanner) restOfLineHasContent(p int) bool {
	for ; p < len(s.src); p++ {
		switch s.src[p] {
		case ' ', '\t':
			continue
		case '\n', '\r', '#':
			return false
		default:
			return true
		}
	}
	return false
}

// isBlankLine reports whether only blanks follow p on its line.
func (s *Scanner) isBlankLine(p int) bool {
	for ; p < len(s.src); p++ {
		switch s.src[p] {
		case ' ', '\t':
			continue
		case '\n', '\r':
			return true
		default:
			return false
		}
	}
	return true
}

func (s *Scanner) hasPrefixAt(p int, prefix string) bool {
	return strings.HasPrefix(s.src[p:], prefix)
}

func (s *Scanner) isBlankOrEnd(p int) bool {
	return p >= len(s.src) || isBlankByte(s.src[p])
}

func isBlankByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isFlowIndicatorByte(c byte) bool {
	return c == ',' || c == '[' || c == ']' || c == '{' || c == '}'
}
