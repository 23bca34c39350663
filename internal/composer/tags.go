package composer

import (
	"encoding/base64"
	"strings"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/parser"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// scalarValue resolves a scalar node to its value, honoring an explicit tag.
//
// Untagged plain scalars go through the core schema. Untagged quoted and
// block scalars, and scalars with the non-specific "!" tag, are strings.
// Core tags force the corresponding type and fail with InvalidTag when the
// text does not match it.
func (c *composer) scalarValue(n *parser.Scalar) any {
	tag := n.Tag
	switch {
	case tag == "" && n.Style == tokenizer.StylePlain:
		v, _ := resolvePlain(n.Value, c.opts.YAML11Booleans)
		return v
	case tag == "" || tag == "!":
		return n.Value
	}

	switch tag {
	case TagStr:
		return n.Value
	case TagNull:
		if !isNull(n.Value) {
			c.tagError(n, "cannot decode %q as !!null", n.Value)
		}
		return nil
	case TagBool:
		b, ok := parseBool(n.Value, c.opts.YAML11Booleans)
		if !ok {
			c.tagError(n, "cannot decode %q as !!bool", n.Value)
		}
		return b
	case TagInt:
		v, ok := parseInt(n.Value)
		if !ok {
			c.tagError(n, "cannot decode %q as !!int", n.Value)
			return nil
		}
		return v
	case TagFloat:
		if f, ok := parseFloat(n.Value); ok {
			return f
		}
		c.tagError(n, "cannot decode %q as !!float", n.Value)
		return nil
	case TagBinary:
		data, err := base64.StdEncoding.DecodeString(stripSpace(n.Value))
		if err != nil {
			c.tagError(n, "!!binary value contains invalid base64 data")
			return nil
		}
		return data
	case TagTimestamp:
		// Timestamps are kept as text.
		if !isTimestamp(n.Value) {
			c.tagError(n, "cannot decode %q as !!timestamp", n.Value)
		}
		return n.Value
	case TagMap, TagSeq, TagSet, TagOmap, TagPairs:
		c.tagError(n, "%s cannot be applied to a scalar", ShortTag(tag))
		return n.Value
	case TagMerge:
		if n.Value != "<<" {
			c.tagError(n, "!!merge can only tag the merge key <<")
		}
		return n.Value
	}

	c.unknownTag(n.Properties(), n.EndAt)
	return n.Value
}

// checkCollectionTag validates the tag of a mapping or sequence node.
func (c *composer) checkCollectionTag(n parser.Node) {
	props := n.Properties()
	tag := props.Tag
	if tag == "" || tag == "!" {
		return
	}

	var allowed []string
	switch n.Kind() {
	case parser.KindMapping:
		allowed = []string{TagMap, TagSet}
	case parser.KindSequence:
		allowed = []string{TagSeq, TagOmap, TagPairs}
	}
	for _, t := range allowed {
		if tag == t {
			return
		}
	}
	if strings.HasPrefix(tag, coreTagPrefix) && isKnownCoreTag(tag) {
		c.diags.Add(diag.Errorf(diag.InvalidTag, props.TagPos, n.End(),
			"%s cannot be applied to a %s", ShortTag(tag), n.Kind()))
		return
	}
	c.unknownTag(props, n.End())
}

// unknownTag reports a tag outside the core schema. The node keeps its
// untagged value.
func (c *composer) unknownTag(props *parser.Props, end diag.Position) {
	pos := props.TagPos
	if c.opts.StrictTags {
		c.diags.Add(diag.Errorf(diag.InvalidTag, pos, end, "unknown tag %s", ShortTag(props.Tag)))
		return
	}
	c.diags.Add(diag.Warnf(diag.UnknownTag, pos, end, "unknown tag %s is ignored", ShortTag(props.Tag)))
}

func (c *composer) tagError(n *parser.Scalar, format string, args ...any) {
	pos := n.Pos
	if n.HasTag() {
		pos = n.TagPos
	}
	c.diags.Add(diag.Errorf(diag.InvalidTag, pos, n.EndAt, format, args...))
}

func isKnownCoreTag(tag string) bool {
	switch tag {
	case TagNull, TagBool, TagInt, TagFloat, TagStr, TagBinary, TagTimestamp,
		TagMap, TagSeq, TagSet, TagOmap, TagPairs, TagMerge:
		return true
	}
	return false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
