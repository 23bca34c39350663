package composer

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Core schema tags.
const (
	TagNull      = "tag:yaml.org,2002:null"
	TagBool      = "tag:yaml.org,2002:bool"
	TagInt       = "tag:yaml.org,2002:int"
	TagFloat     = "tag:yaml.org,2002:float"
	TagStr       = "tag:yaml.org,2002:str"
	TagBinary    = "tag:yaml.org,2002:binary"
	TagTimestamp = "tag:yaml.org,2002:timestamp"
	TagMap       = "tag:yaml.org,2002:map"
	TagSeq       = "tag:yaml.org,2002:seq"
	TagSet       = "tag:yaml.org,2002:set"
	TagOmap      = "tag:yaml.org,2002:omap"
	TagPairs     = "tag:yaml.org,2002:pairs"
	TagMerge     = "tag:yaml.org,2002:merge"

	coreTagPrefix = "tag:yaml.org,2002:"
)

var (
	decimalIntPattern = regexp.MustCompile(`^[-+]?[0-9]+$`)
	octalIntPattern   = regexp.MustCompile(`^0o[0-7]+$`)
	hexIntPattern     = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	floatPattern      = regexp.MustCompile(`^[-+]?(\.[0-9]+|[0-9]+(\.[0-9]*)?)([eE][-+]?[0-9]+)?$`)
	infPattern        = regexp.MustCompile(`^[-+]?\.(inf|Inf|INF)$`)
	nanPattern        = regexp.MustCompile(`^\.(nan|NaN|NAN)$`)

	// ISO 8601 as accepted by the timestamp type.
	timestampPattern = regexp.MustCompile(
		`^[0-9]{4}-[0-9]{1,2}-[0-9]{1,2}` +
			`(([Tt]|[ \t]+)[0-9]{1,2}:[0-9]{2}:[0-9]{2}(\.[0-9]*)?` +
			`([ \t]*(Z|[-+][0-9]{1,2}(:[0-9]{2})?))?)?$`)
)

// resolvePlain applies the core schema to an untagged plain scalar and
// returns the value together with the tag it resolved to.
func resolvePlain(s string, yaml11Bools bool) (any, string) {
	if isNull(s) {
		return nil, TagNull
	}
	if b, ok := parseBool(s, yaml11Bools); ok {
		return b, TagBool
	}
	if v, ok := parseInt(s); ok {
		return v, TagInt
	}
	if f, ok := parseFloat(s); ok {
		return f, TagFloat
	}
	return s, TagStr
}

// PlainIsString reports whether s, written as an untagged plain scalar,
// reads back as the string s with or without the YAML 1.1 booleans.
func PlainIsString(s string) bool {
	_, tag := resolvePlain(s, true)
	return tag == TagStr
}

func isNull(s string) bool {
	switch s {
	case "", "~", "null", "Null", "NULL":
		return true
	}
	return false
}

func parseBool(s string, yaml11 bool) (bool, bool) {
	switch s {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	if !yaml11 {
		return false, false
	}
	switch s {
	case "y", "Y", "yes", "Yes", "YES", "on", "On", "ON":
		return true, true
	case "n", "N", "no", "No", "NO", "off", "Off", "OFF":
		return false, true
	}
	return false, false
}

// parseInt returns an int64 when the integer fits and a *big.Int otherwise.
func parseInt(s string) (any, bool) {
	var (
		digits string
		base   int
	)
	switch {
	case decimalIntPattern.MatchString(s):
		digits, base = s, 10
	case octalIntPattern.MatchString(s):
		digits, base = s[2:], 8
	case hexIntPattern.MatchString(s):
		digits, base = s[2:], 16
	default:
		return nil, false
	}

	if n, err := strconv.ParseInt(digits, base, 64); err == nil {
		return n, true
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, false
	}
	if n.IsInt64() {
		return n.Int64(), true
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	switch {
	case infPattern.MatchString(s):
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	case nanPattern.MatchString(s):
		return math.NaN(), true
	case floatPattern.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Out of range values still resolve to +/-Inf.
			if errors.Is(err, strconv.ErrRange) {
				return f, true
			}
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func isTimestamp(s string) bool {
	return timestampPattern.MatchString(s)
}

// ShortTag abbreviates a core schema tag to its !! form for messages.
func ShortTag(tag string) string {
	if rest, ok := strings.CutPrefix(tag, coreTagPrefix); ok {
		return "!!" + rest
	}
	return tag
}
