// Package cli implements the yamlcheck command line.
package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// errFindings is returned when a run completed but found errors; the
// findings have already been printed.
var errFindings = errors.New("yamlcheck: errors found")

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "yamlcheck",
	Short:         "yamlcheck: strict YAML 1.2 validator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default "+defaultConfigFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log.level", "warn", "log level: debug, info, warn, error")
}

// Execute runs the command line and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Cause(err) != errFindings {
			fmt.Fprintln(os.Stderr, "yamlcheck:", err)
		}
		os.Exit(1)
	}
}
