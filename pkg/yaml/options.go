package yaml

import (
	"github.com/shapestone/shape-yaml-strict/internal/composer"
	"github.com/shapestone/shape-yaml-strict/internal/parser"
)

// Default limits.
const (
	DefaultMaxDepth      = parser.DefaultMaxDepth
	DefaultMaxAliasNodes = composer.DefaultMaxAliasNodes
)

// Options controls parsing and composition. The zero value is not the
// default; start from DefaultOptions.
type Options struct {
	// MaxDepth bounds collection nesting. Negative disables the limit.
	MaxDepth int
	// MaxAliasNodes bounds the number of values produced by alias
	// expansion in one document. Negative disables the limit.
	MaxAliasNodes int
	// MergeKeys enables the << merge key.
	MergeKeys bool
	// YAML11Booleans also resolves y/yes/on and n/no/off as booleans.
	YAML11Booleans bool
	// StrictTags reports tags outside the core schema as errors.
	StrictTags bool
}

// Option configures a parse call.
type Option func(*Options)

// DefaultOptions returns the options used when no Option is given.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      DefaultMaxDepth,
		MaxAliasNodes: DefaultMaxAliasNodes,
		MergeKeys:     true,
	}
}

// WithMaxDepth sets the maximum collection nesting depth.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

// WithMaxAliasNodes sets the alias expansion budget.
func WithMaxAliasNodes(n int) Option {
	return func(o *Options) { o.MaxAliasNodes = n }
}

// WithMergeKeys enables or disables << merge keys.
func WithMergeKeys(enabled bool) Option {
	return func(o *Options) { o.MergeKeys = enabled }
}

// WithYAML11Booleans enables the YAML 1.1 boolean spellings.
func WithYAML11Booleans(enabled bool) Option {
	return func(o *Options) { o.YAML11Booleans = enabled }
}

// WithStrictTags makes unknown tags errors instead of warnings.
func WithStrictTags(enabled bool) Option {
	return func(o *Options) { o.StrictTags = enabled }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) parser() parser.Options {
	return parser.Options{MaxDepth: o.MaxDepth}
}

func (o Options) composer() composer.Options {
	return composer.Options{
		MaxAliasNodes:  o.MaxAliasNodes,
		MergeKeys:      o.MergeKeys,
		YAML11Booleans: o.YAML11Booleans,
		StrictTags:     o.StrictTags,
	}
}
