package cli

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shapestone/shape-yaml-strict/internal/ui"
	"github.com/shapestone/shape-yaml-strict/pkg/yaml"
)

const (
	suiteInputFile = "in.yaml"
	suiteErrorFile = "error"
)

var verbose bool

var suiteCmd = &cobra.Command{
	Use:   "suite <dir>",
	Short: "Run a yaml-test-suite checkout against the parser",
	Long: `Every directory below <dir> holding an in.yaml file is a case. A case
with an "error" file passes when parsing fails; any other case passes when
parsing succeeds. The exit status is 1 if any case failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settingsFor(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}
		res, err := RunSuite(cmd.Context(), cmd.OutOrStdout(), logger, s, args[0], verbose)
		if err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			return errFindings
		}
		return nil
	},
}

func init() {
	addParseFlags(suiteCmd)
	suiteCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list passing cases")
	rootCmd.AddCommand(suiteCmd)
}

// CaseResult is the outcome of one suite case.
type CaseResult struct {
	Name      string
	WantError bool
	// Err is the first parse error, nil when the case parsed cleanly.
	Err error
}

// Passed reports whether the parse outcome matched the case's expectation.
func (c CaseResult) Passed() bool {
	return (c.Err != nil) == c.WantError
}

func (c CaseResult) reason() string {
	if c.WantError {
		return "expected an error, parsed cleanly"
	}
	return "unexpected error: " + c.Err.Error()
}

// SuiteResult totals a suite run.
type SuiteResult struct {
	Cases  []CaseResult
	Failed []CaseResult
}

// RunSuite runs every case under dir and reports failing cases to w in name
// order.
func RunSuite(ctx context.Context, w io.Writer, logger log.Logger, s Settings, dir string, verbose bool) (SuiteResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	names, err := findCases(dir)
	if err != nil {
		return SuiteResult{}, err
	}
	if len(names) == 0 {
		return SuiteResult{}, errors.Errorf("no %s files found under %s", suiteInputFile, dir)
	}
	level.Info(logger).Log("msg", "running suite", "dir", dir, "cases", len(names))

	opts := s.Options()
	cases := make([]CaseResult, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := runCase(filepath.Join(dir, name), opts)
			if err != nil {
				return err
			}
			c.Name = filepath.ToSlash(name)
			cases[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SuiteResult{}, err
	}

	res := SuiteResult{Cases: cases}
	for _, c := range cases {
		switch {
		case !c.Passed():
			res.Failed = append(res.Failed, c)
			ui.CaseFailLine(w, c.Name, c.reason())
		case verbose:
			ui.CasePassLine(w, c.Name)
		}
	}
	if !s.Quiet {
		ui.SuiteSummary(w, len(cases)-len(res.Failed), len(cases))
	}
	return res, nil
}

// findCases returns the directories under dir, relative to it, that hold a
// case input.
func findCases(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != suiteInputFile {
			return nil
		}
		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", dir)
	}
	sort.Strings(names)
	return names, nil
}

func runCase(caseDir string, opts []yaml.Option) (CaseResult, error) {
	data, err := os.ReadFile(filepath.Join(caseDir, suiteInputFile))
	if err != nil {
		return CaseResult{}, errors.Wrap(err, "reading case")
	}
	_, statErr := os.Stat(filepath.Join(caseDir, suiteErrorFile))
	c := CaseResult{WantError: statErr == nil}
	if _, err := yaml.ParseAll(string(data), opts...); err != nil {
		var list yaml.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			err = list[0]
		}
		c.Err = err
	}
	return c, nil
}
