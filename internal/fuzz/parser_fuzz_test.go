package fuzztests

import (
	"testing"
	"time"

	"loa/internal/parser"
	"loa/internal/source"
	"loa/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParserBuildsTree(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		src := source.New(source.KindModule, source.TestURI("fuzz.loa"), clampInput(input))
		tree, _ := parser.ParseSource(src)
		if err := testkit.CheckTree(tree); err != nil {
			t.Fatal(err)
		}
	})
}

// FuzzREPLLineNoHang parses input as a REPL line and fails when the parser
// does not come back in time.
func FuzzREPLLineNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		src := source.REPLLine(1, clampInput(input))
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = parser.ParseSource(src)
		}()
		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser hung on %q", src.Code)
		}
	})
}
