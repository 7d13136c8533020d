package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"loa/internal/diagfmt"
	"loa/internal/driver"
	"loa/internal/source"
	"loa/internal/token"
)

type tokenFormatter func(w io.Writer, toks []token.Token, trivia bool) error

var tokenFormats = map[string]tokenFormatter{
	"pretty": diagfmt.FormatTokensPretty,
	"json":   diagfmt.FormatTokensJSON,
	"stats":  tokenStats,
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.loa|-",
	Short: "Print the tokens of a Loa source",
	Long:  "Tokenize runs only the lexer. A dash reads the source from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		trivia, _ := cmd.Flags().GetBool("trivia")
		emit, ok := tokenFormats[format]
		if !ok {
			return fmt.Errorf("unknown format %q (must be pretty, json or stats)", format)
		}
		src, err := source.Open(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), driver.Tokenize(src).Tokens, trivia)
	},
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json|stats)")
	tokenizeCmd.Flags().Bool("trivia", false, "include whitespace and comments")
}

// tokenStats печатает, сколько токенов каждого вида, частые сверху.
func tokenStats(w io.Writer, toks []token.Token, trivia bool) error {
	counts := make(map[token.Kind]int)
	for _, tok := range toks {
		if tok.Kind == token.EOF || tok.Kind.IsTrivia() && !trivia {
			continue
		}
		counts[tok.Kind]++
	}
	kinds := slices.SortedFunc(maps.Keys(counts), func(a, b token.Kind) int {
		return cmp.Or(cmp.Compare(counts[b], counts[a]), cmp.Compare(a, b))
	})
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "%-18s %6d\n", k, counts[k]); err != nil {
			return err
		}
	}
	return nil
}
