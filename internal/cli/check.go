package cli

import (
	"cmp"
	"context"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shapestone/shape-yaml-strict/internal/ui"
	"github.com/shapestone/shape-yaml-strict/pkg/yaml"
)

const (
	formatText = "text"
	formatJSON = "json"

	stdinName = "-"
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Parse YAML files and report every error and warning",
	Long: `Parse each file as a YAML stream and print its diagnostics as
file:line:col: severity code: message. Standard input is read when no file
is given or the file is "-". The exit status is 1 if any error was found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settingsFor(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			args = []string{stdinName}
		}
		summary, err := RunCheck(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), logger, s, args)
		if err != nil {
			return err
		}
		if summary.Errors > 0 {
			return errFindings
		}
		return nil
	},
}

func init() {
	addParseFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// Finding is one diagnostic of a checked input.
type Finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// FileResult is the outcome of checking one input.
type FileResult struct {
	File      string    `json:"file"`
	Size      int       `json:"size"`
	Documents int       `json:"documents"`
	Findings  []Finding `json:"findings"`
}

// CheckSummary totals a check run.
type CheckSummary struct {
	Files     int          `json:"files"`
	Documents int          `json:"documents"`
	Bytes     uint64       `json:"bytes"`
	Errors    int          `json:"errors"`
	Warnings  int          `json:"warnings"`
	Results   []FileResult `json:"results"`
}

// RunCheck parses every path (stdin for "-") and writes the diagnostics to
// w in path order. Inputs are parsed concurrently up to s.Concurrency.
func RunCheck(ctx context.Context, w io.Writer, stdin io.Reader, logger log.Logger, s Settings, paths []string) (CheckSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := s.Options()
	results := make([]FileResult, len(paths))

	// Standard input can be read only once, however often "-" is given.
	var stdinData []byte
	if slices.Contains(paths, stdinName) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return CheckSummary{}, errors.Wrap(err, "reading standard input")
		}
		stdinData = data
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := stdinData
			if path != stdinName {
				var err error
				if data, err = os.ReadFile(path); err != nil {
					return errors.Wrapf(err, "reading %s", path)
				}
			}
			level.Debug(logger).Log("msg", "checking", "file", path, "size", humanize.IBytes(uint64(len(data))))
			results[i] = checkInput(path, data, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CheckSummary{}, err
	}

	summary := CheckSummary{Files: len(results), Results: results}
	for _, r := range results {
		summary.Documents += r.Documents
		summary.Bytes += uint64(r.Size)
		for _, f := range r.Findings {
			if f.Severity == "warning" {
				summary.Warnings++
			} else {
				summary.Errors++
			}
		}
	}
	level.Info(logger).Log("msg", "check finished", "files", summary.Files, "errors", summary.Errors, "warnings", summary.Warnings)

	if s.Format == formatJSON {
		return summary, writeJSON(w, summary)
	}
	writeText(w, s, summary)
	return summary, nil
}

func checkInput(name string, data []byte, opts []yaml.Option) FileResult {
	docs, _ := yaml.ParseAll(string(data), opts...)
	r := FileResult{File: name, Size: len(data), Documents: len(docs), Findings: []Finding{}}
	for _, doc := range docs {
		for _, e := range doc.Errors() {
			r.Findings = append(r.Findings, newFinding(name, e))
		}
		for _, e := range doc.Warnings() {
			r.Findings = append(r.Findings, newFinding(name, e))
		}
	}
	slices.SortStableFunc(r.Findings, func(a, b Finding) int {
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return r
}

func newFinding(file string, e *yaml.Error) Finding {
	severity := "error"
	if e.IsWarning() {
		severity = "warning"
	}
	return Finding{
		File:     file,
		Line:     e.LinePos[0].Line,
		Column:   e.LinePos[0].Col,
		Severity: severity,
		Code:     string(e.Code),
		Message:  e.Message,
	}
}

func writeText(w io.Writer, s Settings, summary CheckSummary) {
	for _, r := range summary.Results {
		for _, f := range r.Findings {
			warning := f.Severity == "warning"
			if s.Quiet && warning {
				continue
			}
			ui.DiagnosticLine(w, f.File, f.Line, f.Column, warning, f.Code, f.Message)
		}
	}
	if !s.Quiet {
		ui.CheckSummary(w, summary.Files, summary.Documents, humanize.IBytes(summary.Bytes), summary.Errors, summary.Warnings)
	}
}

func writeJSON(w io.Writer, summary CheckSummary) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(summary), "writing report")
}
