package yaml

import (
	"fmt"
	"strings"

	"github.com/shapestone/shape-yaml-strict/internal/diag"
)

// Error names.
const (
	ErrorName   = "YAMLParseError"
	WarningName = "YAMLWarning"
)

// Code identifies the category of an Error.
type Code = diag.Code

// Error codes.
const (
	UnterminatedScalar    = diag.UnterminatedScalar
	BadIndentation        = diag.BadIndentation
	AmbiguousBlockContent = diag.AmbiguousBlockContent
	UnresolvedAlias       = diag.UnresolvedAlias
	DuplicateKey          = diag.DuplicateKey
	NestingTooDeep        = diag.NestingTooDeep
	UnexpectedToken       = diag.UnexpectedToken
	TabIndentation        = diag.TabIndentation
	InvalidEscape         = diag.InvalidEscape
	InvalidDirective      = diag.InvalidDirective
	InvalidTag            = diag.InvalidTag
	InvalidMerge          = diag.InvalidMerge
	ExcessiveAliasing     = diag.ExcessiveAliasing
	MultipleDocuments     = diag.MultipleDocuments

	UnknownTag         = diag.UnknownTag
	UnknownDirective   = diag.UnknownDirective
	UnsupportedVersion = diag.UnsupportedVersion
)

// LinePos is a 1-based line and column.
type LinePos struct {
	Line int
	Col  int
}

// Error is a parse error or warning with the source range it covers.
// LinePos[0] is the start and LinePos[1] the end of the range.
type Error struct {
	Name    string
	Code    Code
	Message string
	LinePos [2]LinePos
	// Offset is the 0-based byte offset of the start.
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.LinePos[0].Line, e.LinePos[0].Col)
}

// IsWarning reports whether e is a warning rather than an error.
func (e *Error) IsWarning() bool {
	return e.Name == WarningName
}

func newError(d diag.Diagnostic) *Error {
	name := ErrorName
	if d.Severity == diag.SeverityWarning {
		name = WarningName
	}
	return &Error{
		Name:    name,
		Code:    d.Code,
		Message: d.Message,
		LinePos: [2]LinePos{
			{Line: d.Pos.Line, Col: d.Pos.Column},
			{Line: d.End.Line, Col: d.End.Column},
		},
		Offset: d.Pos.Offset,
	}
}

func newErrors(list diag.List) []*Error {
	if len(list) == 0 {
		return nil
	}
	out := make([]*Error, len(list))
	for i, d := range list {
		out[i] = newError(d)
	}
	return out
}

// ErrorList collects every error of an input. errors.As finds the
// individual *Error values through Unwrap.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:", len(l))
	for _, e := range l {
		sb.WriteString("\n\t")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// err returns l as an error, or nil when it is empty.
func (l ErrorList) err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
