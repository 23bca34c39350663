package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/shapestone/shape-yaml-strict/internal/tokenizer"
	"github.com/shapestone/shape-yaml-strict/pkg/yaml"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a YAML file, with line and indentation tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == stdinName {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		maxDepth, _ := cmd.Flags().GetInt("max-depth")
		return RunTokens(cmd.OutOrStdout(), string(data), maxDepth)
	},
}

func init() {
	tokensCmd.Flags().Int("max-depth", yaml.DefaultMaxDepth, "maximum block nesting depth")
	rootCmd.AddCommand(tokensCmd)
}

// RunTokens writes one line per token of input: its position, its kind and,
// for content tokens, its text. A scanner error is printed and returned as a
// failed run.
func RunTokens(w io.Writer, input string, maxDepth int) error {
	l := tokenizer.NewLayout(input, maxDepth)
	for {
		tok := l.Next()
		switch tok.Kind {
		case tokenizer.TokenScalar, tokenizer.TokenAnchor, tokenizer.TokenAlias,
			tokenizer.TokenTag, tokenizer.TokenComment, tokenizer.TokenDirective:
			fmt.Fprintf(w, "%d:%d\t%s\t%q\n", tok.Pos.Line, tok.Pos.Column, tok.Kind, tok.Text)
		case tokenizer.TokenError:
			fmt.Fprintf(w, "%d:%d\t%s\t%s %s\n", tok.Pos.Line, tok.Pos.Column, tok.Kind, tok.Err.Code, tok.Err.Message)
			return errFindings
		default:
			fmt.Fprintf(w, "%d:%d\t%s\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
		}
		if tok.Kind == tokenizer.TokenEOF {
			return nil
		}
	}
}
