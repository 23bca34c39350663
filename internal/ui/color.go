package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	posStyle  = lipgloss.NewStyle().Faint(true)
)

// DiagnosticLine prints one diagnostic as file:line:col: severity code: message.
func DiagnosticLine(w io.Writer, file string, line, col int, warning bool, code, msg string) {
	severity := errStyle.Render("error")
	if warning {
		severity = warnStyle.Render("warning")
	}
	pos := posStyle.Render(fmt.Sprintf("%s:%d:%d:", file, line, col))
	fmt.Fprintf(w, "%s %s %s: %s\n", pos, severity, code, msg)
}

func CaseFailLine(w io.Writer, name, reason string) {
	fmt.Fprintln(w, errStyle.Render("FAIL")+"  "+name+": "+reason)
}

func CasePassLine(w io.Writer, name string) {
	fmt.Fprintln(w, okStyle.Render("ok")+"    "+name)
}

// CheckSummary prints the closing line of a check run.
func CheckSummary(w io.Writer, files, docs int, size string, errs, warns int) {
	status := okStyle.Render("ok")
	if errs > 0 {
		status = errStyle.Render("failed")
	}
	fmt.Fprintf(w, "%s: checked %s (%s), %s: %s, %s\n",
		status, plural(files, "file"), size, plural(docs, "document"),
		plural(errs, "error"), plural(warns, "warning"))
}

func SuiteSummary(w io.Writer, passed, total int) {
	style := okStyle
	if passed != total {
		style = errStyle
	}
	fmt.Fprintln(w, style.Render("passed "+humanize.Comma(int64(passed))+"/"+humanize.Comma(int64(total))+" cases"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
