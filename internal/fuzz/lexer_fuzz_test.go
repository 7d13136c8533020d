package fuzztests

import (
	"testing"

	"loa/internal/lexer"
	"loa/internal/source"
	"loa/internal/testkit"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		src := source.New(source.KindModule, source.TestURI("fuzz.loa"), clampInput(input))
		if err := testkit.CheckTokens(lexer.Tokenize(src), len(src.Code)); err != nil {
			t.Fatal(err)
		}
	})
}
