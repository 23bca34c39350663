package parser

import (
	"regexp"
	"strings"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
)

var (
	versionPattern   = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	tagHandlePattern = regexp.MustCompile(`^!([0-9A-Za-z-]*!)?$`)
)

const coreTagPrefix = "tag:yaml.org,2002:"

// parseDirectives consumes the directive lines that precede a document.
//
// Grammar:
//
//	DirectiveLine = "%" DirectiveName DirectiveParameter* Newline ;
//
// Supported directives:
//
//	%YAML 1.2         - Specifies YAML version
//	%TAG ! prefix     - Defines a tag shorthand
//
// Unknown directives are reported as warnings and otherwise ignored. It
// returns whether at least one directive was seen.
func (p *Parser) parseDirectives() (bool, error) {
	seen := false
	for {
		tok := p.peek()
		if tok.Kind == tokenizer.TokenError {
			return seen, *tok.Err
		}
		if tok.Kind != tokenizer.TokenDirective {
			return seen, nil
		}
		p.next()
		seen = true
		if err := p.processDirective(tok); err != nil {
			return seen, err
		}
	}
}

// processDirective processes a single directive line.
func (p *Parser) processDirective(tok tokenizer.Token) error {
	parts := strings.Fields(strings.TrimPrefix(tok.Text, "%"))
	if len(parts) == 0 {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "empty directive")
	}

	name, params := parts[0], parts[1:]
	switch name {
	case "YAML":
		return p.processYAMLDirective(tok, params)
	case "TAG":
		return p.processTAGDirective(tok, params)
	default:
		p.warn(diag.Warnf(diag.UnknownDirective, tok.Pos, tok.End, "unknown directive %%%s is ignored", name))
		return nil
	}
}

// processYAMLDirective processes the %YAML directive.
// Format: %YAML major.minor
func (p *Parser) processYAMLDirective(tok tokenizer.Token, params []string) error {
	if p.doc.Version != "" {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "duplicate %%YAML directive")
	}
	if len(params) != 1 {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End,
			"%%YAML directive takes exactly one version parameter, found %d", len(params))
	}

	version := params[0]
	if !versionPattern.MatchString(version) {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "malformed YAML version %q", version)
	}
	major, minor, _ := strings.Cut(version, ".")
	if major != "1" {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "unsupported YAML major version %s", major)
	}
	if minor != "2" {
		p.warn(diag.Warnf(diag.UnsupportedVersion, tok.Pos, tok.End,
			"document declares YAML %s; parsing with YAML 1.2 rules", version))
	}
	p.doc.Version = version
	return nil
}

// processTAGDirective processes the %TAG directive.
// Format: %TAG handle prefix
// Example: %TAG ! tag:example.com,2000:
// Example: %TAG !e! tag:example.com,2000:app/
func (p *Parser) processTAGDirective(tok tokenizer.Token, params []string) error {
	if len(params) != 2 {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End,
			"%%TAG directive takes a handle and a prefix, found %d parameters", len(params))
	}

	handle, prefix := params[0], params[1]
	if !tagHandlePattern.MatchString(handle) {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "malformed tag handle %q", handle)
	}
	if _, dup := p.doc.TagHandles[handle]; dup {
		return diag.Errorf(diag.InvalidDirective, tok.Pos, tok.End, "duplicate %%TAG directive for handle %s", handle)
	}
	p.doc.TagHandles[handle] = prefix
	return nil
}

// resolveTag expands a tag as written in the source into its full form.
func (p *Parser) resolveTag(tok tokenizer.Token) (string, error) {
	if tok.Text == "!" {
		return "!", nil
	}
	handle, suffix := tokenizer.SplitTag(tok.Text)
	if handle == "" {
		return suffix, nil
	}
	if suffix == "" {
		return "", diag.Errorf(diag.InvalidTag, tok.Pos, tok.End, "tag %s has an empty suffix", tok.Text)
	}
	if prefix, ok := p.doc.TagHandles[handle]; ok {
		return prefix + suffix, nil
	}
	switch handle {
	case "!":
		return "!" + suffix, nil
	case "!!":
		return coreTagPrefix + suffix, nil
	}
	return "", diag.Errorf(diag.InvalidTag, tok.Pos, tok.End, "tag handle %s is not declared by a %%TAG directive", handle)
}
