// Package diag defines positions and diagnostics shared by every stage of the
// strict YAML pipeline.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Position is a location in the source text.
// Line and Column are 1-based, Offset is a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Start is the position of the first byte of any input.
var Start = Position{Offset: 0, Line: 1, Column: 1}

// String renders the position as "line L, column C".
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q in the source.
func (p Position) Before(q Position) bool {
	if p.Offset != q.Offset {
		return p.Offset < q.Offset
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Code is the enumerated category of a diagnostic.
type Code string

const (
	UnterminatedScalar    Code = "UnterminatedScalar"
	BadIndentation        Code = "BadIndentation"
	AmbiguousBlockContent Code = "AmbiguousBlockContent"
	UnresolvedAlias       Code = "UnresolvedAlias"
	DuplicateKey          Code = "DuplicateKey"
	NestingTooDeep        Code = "NestingTooDeep"
	UnexpectedToken       Code = "UnexpectedToken"
	TabIndentation        Code = "TabIndentation"
	InvalidEscape         Code = "InvalidEscape"
	InvalidDirective      Code = "InvalidDirective"
	InvalidTag            Code = "InvalidTag"
	InvalidMerge          Code = "InvalidMerge"
	ExcessiveAliasing     Code = "ExcessiveAliasing"
	MultipleDocuments     Code = "MultipleDocuments"

	// Warnings.
	UnknownTag         Code = "UnknownTag"
	UnknownDirective   Code = "UnknownDirective"
	UnsupportedVersion Code = "UnsupportedVersion"
)

// Diagnostic is a single problem found in the input.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      Position
	End      Position
}

// Error implements the error interface so a diagnostic can be returned
// directly from internal helpers.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s", d.Message, d.Pos)
}

// Errorf builds an error diagnostic spanning pos..end.
func Errorf(code Code, pos, end Position, format string, args ...any) Diagnostic {
	if end.Offset < pos.Offset {
		end = pos
	}
	return Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		End:      end,
	}
}

// Warnf builds a warning diagnostic spanning pos..end.
func Warnf(code Code, pos, end Position, format string, args ...any) Diagnostic {
	d := Errorf(code, pos, end, format, args...)
	d.Severity = SeverityWarning
	return d
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends d to the list.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Sort orders the list by document position. Diagnostics at the same position
// keep their insertion order.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Pos.Before(l[j].Pos)
	})
}

// HasErrors reports whether any diagnostic has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics in list order.
func (l List) Errors() List {
	return l.filter(SeverityError)
}

// Warnings returns the warning diagnostics in list order.
func (l List) Warnings() List {
	return l.filter(SeverityWarning)
}

// FirstError returns the first error by document order.
func (l List) FirstError() (Diagnostic, bool) {
	var (
		first Diagnostic
		found bool
	)
	for _, d := range l {
		if d.Severity != SeverityError {
			continue
		}
		if !found || d.Pos.Before(first.Pos) {
			first, found = d, true
		}
	}
	return first, found
}

func (l List) filter(s Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

func (l List) String() string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s %s: %s", d.Severity, d.Code, d.Error())
	}
	return sb.String()
}
