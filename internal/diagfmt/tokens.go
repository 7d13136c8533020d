package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"loa/internal/token"
)

type TokenOutput struct {
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}

// FormatTokensPretty выводит токены в человекочитаемом формате.
// Trivia is skipped unless withTrivia is set.
func FormatTokensPretty(w io.Writer, tokens []token.Token, withTrivia bool) error {
	n := 0
	for _, tok := range tokens {
		if tok.Kind.IsTrivia() && !withTrivia {
			continue
		}
		n++
		start, end := tok.Span.Start, tok.Span.End
		if _, err := fmt.Fprintf(w, "%3d: %-18s %-20q at %d:%d-%d:%d\n",
			n, tok.Kind.String(), tok.Text,
			start.Line, start.Character, end.Line, end.Character); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, withTrivia bool) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind.IsTrivia() && !withTrivia {
			continue
		}
		output = append(output, TokenOutput{
			Kind:      tok.Kind.String(),
			Text:      tok.Text,
			Line:      tok.Span.Start.Line,
			Character: tok.Span.Start.Character,
			StartByte: tok.Span.Start.Offset,
			EndByte:   tok.Span.End.Offset,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
