package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the yamlcheck version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// RunVersion prints the version line to w.
func RunVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "yamlcheck %s\n", Version)
	return err
}
