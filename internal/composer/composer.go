// Package composer turns a parsed document tree into values: anchors and
// aliases are resolved, tags and the core schema are applied, and mapping
// keys are checked for uniqueness.
//
// Composed values are nil, bool, int64, *big.Int, float64, string, []byte,
// []any and MapSlice.
package composer

import (
	"fmt"
	"slices"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/parser"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

// DefaultMaxAliasNodes bounds the number of values copied while expanding
// aliases in one document.
const DefaultMaxAliasNodes = 1_000_000

// Options configures composition.
type Options struct {
	// MaxAliasNodes bounds alias expansion. Zero selects
	// DefaultMaxAliasNodes; a negative value disables the limit.
	MaxAliasNodes int
	// MergeKeys enables the << merge key.
	MergeKeys bool
	// YAML11Booleans also resolves y/yes/on and n/no/off as booleans.
	YAML11Booleans bool
	// StrictTags turns unknown tags into errors instead of warnings.
	StrictTags bool
}

// DefaultOptions returns the options used by the public API.
func DefaultOptions() Options {
	return Options{MaxAliasNodes: DefaultMaxAliasNodes, MergeKeys: true}
}

// anchor is one entry of the anchor table. complete is false while the
// anchored node itself is being composed.
type anchor struct {
	value    any
	complete bool
}

type composer struct {
	opts    Options
	anchors map[string]*anchor
	copied  int
	aborted bool
	diags   diag.List
}

// Compose builds the value of doc. Each call owns its anchor table, so
// aliases resolve only against anchors defined earlier in the same document.
// The value is returned even when diagnostics contain errors; callers decide
// whether to use it.
func Compose(doc *parser.Document, opts Options) (any, diag.List) {
	if doc == nil || doc.Root == nil {
		return nil, nil
	}
	switch {
	case opts.MaxAliasNodes == 0:
		opts.MaxAliasNodes = DefaultMaxAliasNodes
	case opts.MaxAliasNodes < 0:
		opts.MaxAliasNodes = 0
	}
	c := &composer{opts: opts, anchors: map[string]*anchor{}}
	v := c.compose(doc.Root)
	return v, c.diags
}

func (c *composer) compose(n parser.Node) any {
	if c.aborted {
		return nil
	}

	// A later anchor with the same name replaces the earlier one for every
	// alias that follows it.
	var a *anchor
	if props := n.Properties(); props.HasAnchor() {
		a = &anchor{}
		c.anchors[props.Anchor] = a
	}

	var v any
	switch n := n.(type) {
	case *parser.Scalar:
		v = c.scalarValue(n)
	case *parser.Mapping:
		c.checkCollectionTag(n)
		v = c.mapping(n)
	case *parser.Sequence:
		c.checkCollectionTag(n)
		v = c.sequence(n)
	case *parser.Alias:
		v = c.alias(n)
	default:
		panic(fmt.Sprintf("composer: unknown node type %T", n))
	}

	if a != nil {
		a.value, a.complete = v, true
	}
	return v
}

func (c *composer) sequence(n *parser.Sequence) []any {
	out := make([]any, 0, len(n.Items))
	for _, item := range n.Items {
		out = append(out, c.compose(item))
	}
	return out
}

// mapping composes a mapping and rejects duplicate keys. Keys merged in with
// << never override explicit keys, and earlier merge sources override later
// ones.
func (c *composer) mapping(n *parser.Mapping) MapSlice {
	out := make(MapSlice, 0, len(n.Pairs))
	seen := make(map[string]parser.Node, len(n.Pairs))

	var (
		merged  []MapItem
		mergeAt = -1
		mergeBy parser.Node
	)
	for _, pair := range n.Pairs {
		if c.opts.MergeKeys && isMergeKey(pair.Key) {
			if mergeBy != nil {
				c.duplicateKey(pair.Key, mergeBy)
				continue
			}
			mergeAt, mergeBy = len(out), pair.Key
			merged = c.mergeSources(pair.Value)
			continue
		}

		key := c.compose(pair.Key)
		value := c.compose(pair.Value)
		id := KeyIdentity(key)
		if first, dup := seen[id]; dup {
			c.duplicateKey(pair.Key, first)
			continue
		}
		seen[id] = pair.Key
		out = append(out, MapItem{Key: key, Value: value})
	}

	if mergeAt < 0 {
		return out
	}
	extra := make([]MapItem, 0, len(merged))
	for _, item := range merged {
		id := KeyIdentity(item.Key)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = mergeBy
		extra = append(extra, item)
	}
	return slices.Insert(out, mergeAt, extra...)
}

// mergeSources composes the value of a << key into the list of pairs it
// contributes, in precedence order.
func (c *composer) mergeSources(n parser.Node) []MapItem {
	v := c.compose(n)
	switch v := v.(type) {
	case MapSlice:
		return v
	case []any:
		var items []MapItem
		for i, source := range v {
			m, ok := source.(MapSlice)
			if !ok {
				at := n
				if seq, isSeq := n.(*parser.Sequence); isSeq && i < len(seq.Items) {
					at = seq.Items[i]
				}
				c.diags.Add(diag.Errorf(diag.InvalidMerge, at.Start(), at.End(),
					"merge key sequence entries must be mappings"))
				continue
			}
			items = append(items, m...)
		}
		return items
	}
	if c.aborted {
		return nil
	}
	c.diags.Add(diag.Errorf(diag.InvalidMerge, n.Start(), n.End(),
		"merge key value must be a mapping or a sequence of mappings"))
	return nil
}

func (c *composer) alias(n *parser.Alias) any {
	a, ok := c.anchors[n.Name]
	if !ok {
		c.diags.Add(diag.Errorf(diag.UnresolvedAlias, n.Pos, n.EndAt,
			"alias *%s refers to an anchor that is not defined before it", n.Name))
		return nil
	}
	if !a.complete {
		c.diags.Add(diag.Errorf(diag.UnresolvedAlias, n.Pos, n.EndAt,
			"alias *%s refers to a node that contains it", n.Name))
		return nil
	}

	budget := 0
	if c.opts.MaxAliasNodes > 0 {
		budget = c.opts.MaxAliasNodes - c.copied
		if budget <= 0 {
			c.excessiveAliasing(n)
			return nil
		}
	}
	v, copied, ok := DeepCopy(a.value, budget)
	c.copied += copied
	if !ok {
		c.excessiveAliasing(n)
		return nil
	}
	return v
}

func (c *composer) excessiveAliasing(n *parser.Alias) {
	c.diags.Add(diag.Errorf(diag.ExcessiveAliasing, n.Pos, n.EndAt,
		"alias expansion exceeds the limit of %d nodes", c.opts.MaxAliasNodes))
	c.aborted = true
}

func (c *composer) duplicateKey(key, first parser.Node) {
	c.diags.Add(diag.Errorf(diag.DuplicateKey, key.Start(), key.End(),
		"duplicate mapping key %s, first defined at %s", describeKey(key), first.Start()))
}

func isMergeKey(n parser.Node) bool {
	s, ok := n.(*parser.Scalar)
	if !ok || s.Value != "<<" {
		return false
	}
	return s.Tag == TagMerge || (s.Tag == "" && s.Style == tokenizer.StylePlain)
}

func describeKey(n parser.Node) string {
	switch n := n.(type) {
	case *parser.Scalar:
		return fmt.Sprintf("%q", n.Value)
	case *parser.Alias:
		return "*" + n.Name
	default:
		return "(" + n.Kind().String() + ")"
	}
}
