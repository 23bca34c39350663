package tokenizer

import (
	"strings"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// The scanner delegates the simple, line-local token shapes to Shape's
// matcher framework. Each matcher is run on a stream over the remainder of the
// current line, and the length of the matched value tells the scanner how many
// bytes were consumed.

// Matcher kinds reported by the shape-core tokens.
const (
	matchAnchor    = "Anchor"
	matchAlias     = "Alias"
	matchTag       = "Tag"
	matchDirective = "Directive"
	matchComment   = "Comment"
)

// NodePropertyMatcher matches an anchor (&name) or alias (*name) depending on
// the indicator. Names run until whitespace or a flow indicator.
func NodePropertyMatcher(indicator rune) tokenizer.Matcher {
	kind := matchAnchor
	if indicator == '*' {
		kind = matchAlias
	}
	return func(stream tokenizer.Stream) *tokenizer.Token {
		r, ok := stream.PeekChar()
		if !ok || r != indicator {
			return nil
		}

		var value []rune
		stream.NextChar()
		value = append(value, r)

		hasChars := false
		for {
			r, ok := stream.PeekChar()
			if !ok || isBlankRune(r) || isFlowIndicator(r) {
				break
			}
			stream.NextChar()
			value = append(value, r)
			hasChars = true
		}

		if !hasChars {
			return nil
		}
		return tokenizer.NewToken(kind, value)
	}
}

// TagMatcher matches a node tag: the non-specific tag (!), a primary (!x),
// secondary (!!x) or named-handle (!h!x) shorthand, or a verbatim tag (!<uri>).
func TagMatcher() tokenizer.Matcher {
	return func(stream tokenizer.Stream) *tokenizer.Token {
		r, ok := stream.PeekChar()
		if !ok || r != '!' {
			return nil
		}

		var value []rune
		stream.NextChar()
		value = append(value, r)

		r, ok = stream.PeekChar()
		if ok && r == '<' {
			stream.NextChar()
			value = append(value, r)
			for {
				r, ok := stream.PeekChar()
				if !ok || isBlankRune(r) {
					// Unterminated verbatim tag
					return nil
				}
				stream.NextChar()
				value = append(value, r)
				if r == '>' {
					break
				}
			}
			if len(value) == 3 {
				// !<> names nothing
				return nil
			}
			return tokenizer.NewToken(matchTag, value)
		}

		for {
			r, ok := stream.PeekChar()
			if !ok || isBlankRune(r) || isFlowIndicator(r) {
				break
			}
			stream.NextChar()
			value = append(value, r)
		}

		return tokenizer.NewToken(matchTag, value)
	}
}

// DirectiveMatcher matches a directive line: % followed by a name and the
// parameters up to the end of the line. A trailing comment is not part of the
// match.
func DirectiveMatcher() tokenizer.Matcher {
	return func(stream tokenizer.Stream) *tokenizer.Token {
		r, ok := stream.PeekChar()
		if !ok || r != '%' {
			return nil
		}

		var value []rune
		stream.NextChar()
		value = append(value, r)

		hasName := false
		for {
			r, ok := stream.PeekChar()
			if !ok || isBlankRune(r) {
				break
			}
			stream.NextChar()
			value = append(value, r)
			hasName = true
		}
		if !hasName {
			return nil
		}

		prevBlank := false
		for {
			r, ok := stream.PeekChar()
			if !ok || r == '\n' || r == '\r' {
				break
			}
			if r == '#' && prevBlank {
				break
			}
			prevBlank = isBlankRune(r)
			stream.NextChar()
			value = append(value, r)
		}

		return tokenizer.NewToken(matchDirective, []rune(strings.TrimRight(string(value), " \t")))
	}
}

// CommentMatcher matches # up to the end of the line.
func CommentMatcher() tokenizer.Matcher {
	return func(stream tokenizer.Stream) *tokenizer.Token {
		r, ok := stream.PeekChar()
		if !ok || r != '#' {
			return nil
		}

		var value []rune
		stream.NextChar()
		value = append(value, r)

		for {
			r, ok := stream.PeekChar()
			if !ok || r == '\n' || r == '\r' {
				break
			}
			stream.NextChar()
			value = append(value, r)
		}

		return tokenizer.NewToken(matchComment, value)
	}
}

// SplitTag separates a shorthand tag into its handle and suffix.
// Verbatim tags return an empty handle and the URI as suffix.
func SplitTag(tag string) (handle, suffix string) {
	switch {
	case strings.HasPrefix(tag, "!<") && strings.HasSuffix(tag, ">"):
		return "", tag[2 : len(tag)-1]
	case strings.HasPrefix(tag, "!!"):
		return "!!", tag[2:]
	}
	if i := strings.IndexByte(tag[1:], '!'); i >= 0 {
		return tag[:i+2], tag[i+2:]
	}
	return "!", tag[1:]
}

func isBlankRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isFlowIndicator(r rune) bool {
	return r == ',' || r == '[' || r == ']' || r == '{' || r == '}'
}
