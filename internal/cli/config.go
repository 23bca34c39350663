package cli

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/shapestone/shape-yaml-strict/pkg/yaml"
)

const defaultConfigFile = ".yamlcheck.yaml"

// Settings controls a check or suite run. It can be read from a YAML file;
// flags given on the command line override the file.
type Settings struct {
	MaxDepth       int    `yaml:"max_depth"`
	MaxAliasNodes  int    `yaml:"max_alias_nodes"`
	NoMergeKeys    bool   `yaml:"no_merge_keys"`
	YAML11Booleans bool   `yaml:"yaml11_booleans"`
	StrictTags     bool   `yaml:"strict_tags"`
	Format         string `yaml:"format"`
	Quiet          bool   `yaml:"quiet"`
	Concurrency    int    `yaml:"concurrency"`
}

// DefaultSettings returns the parser defaults with one worker per CPU.
func DefaultSettings() Settings {
	o := yaml.DefaultOptions()
	return Settings{
		MaxDepth:      o.MaxDepth,
		MaxAliasNodes: o.MaxAliasNodes,
		NoMergeKeys:   !o.MergeKeys,
		Format:        formatText,
		Concurrency:   runtime.GOMAXPROCS(0),
	}
}

// Options converts s into parser options.
func (s Settings) Options() []yaml.Option {
	return []yaml.Option{
		yaml.WithMaxDepth(s.MaxDepth),
		yaml.WithMaxAliasNodes(s.MaxAliasNodes),
		yaml.WithMergeKeys(!s.NoMergeKeys),
		yaml.WithYAML11Booleans(s.YAML11Booleans),
		yaml.WithStrictTags(s.StrictTags),
	}
}

func (s Settings) validate() error {
	switch {
	case s.MaxDepth < 1:
		return errors.Errorf("max depth must be positive, got %d", s.MaxDepth)
	case s.MaxAliasNodes < 1:
		return errors.Errorf("max alias nodes must be positive, got %d", s.MaxAliasNodes)
	case s.Concurrency < 1:
		return errors.Errorf("concurrency must be positive, got %d", s.Concurrency)
	case s.Format != formatText && s.Format != formatJSON:
		return errors.Errorf("unknown format %q (want %s or %s)", s.Format, formatText, formatJSON)
	}
	return nil
}

// LoadSettings reads the settings file at path on top of the defaults. An
// empty path falls back to .yamlcheck.yaml in the working directory, if any.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return s, nil
		}
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(err, "reading settings")
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "loading settings from %s", path)
	}
	return s, nil
}

func addParseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("max-depth", yaml.DefaultMaxDepth, "maximum collection nesting depth")
	f.Int("max-alias-nodes", yaml.DefaultMaxAliasNodes, "maximum nodes produced by alias expansion")
	f.Bool("no-merge-keys", false, "treat << as an ordinary key")
	f.Bool("yaml11-bools", false, "resolve yes/no/on/off as booleans")
	f.Bool("strict-tags", false, "report unknown tags as errors")
	f.String("format", formatText, "output format: text or json")
	f.BoolP("quiet", "q", false, "print errors only")
	f.Int("concurrency", runtime.GOMAXPROCS(0), "inputs parsed in parallel")
}

// settingsFor loads the settings file and applies the flags the user set.
func settingsFor(cmd *cobra.Command) (Settings, error) {
	s, err := LoadSettings(configPath)
	if err != nil {
		return s, err
	}
	f := cmd.Flags()
	if f.Changed("max-depth") {
		s.MaxDepth, _ = f.GetInt("max-depth")
	}
	if f.Changed("max-alias-nodes") {
		s.MaxAliasNodes, _ = f.GetInt("max-alias-nodes")
	}
	if f.Changed("no-merge-keys") {
		s.NoMergeKeys, _ = f.GetBool("no-merge-keys")
	}
	if f.Changed("yaml11-bools") {
		s.YAML11Booleans, _ = f.GetBool("yaml11-bools")
	}
	if f.Changed("strict-tags") {
		s.StrictTags, _ = f.GetBool("strict-tags")
	}
	if f.Changed("format") {
		s.Format, _ = f.GetString("format")
	}
	if f.Changed("quiet") {
		s.Quiet, _ = f.GetBool("quiet")
	}
	if f.Changed("concurrency") {
		s.Concurrency, _ = f.GetInt("concurrency")
	}
	return s, s.validate()
}
