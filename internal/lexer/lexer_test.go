package lexer_test

import (
	"strings"
	"testing"

	"loa/internal/lexer"
	"loa/internal/source"
	"loa/internal/token"
)

// collectAllTokens собирает все токены до EOF
func collectAllTokens(input string) []token.Token {
	return lexer.Tokenize(source.New(source.KindModule, source.TestURI("test.loa"), input))
}

// significantKinds отбрасывает trivia и EOF
func significantKinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind.IsTrivia() || tok.Kind == token.EOF {
			continue
		}
		out = append(out, tok.Kind)
	}
	return out
}

func expectKinds(t *testing.T, input string, want ...token.Kind) []token.Token {
	t.Helper()
	toks := collectAllTokens(input)
	got := significantKinds(toks)
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", input, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d is %v, want %v (all: %v)", input, i, got[i], want[i], got)
		}
	}
	return toks
}

func TestEmptySource(t *testing.T) {
	toks := collectAllTokens("")
	if len(toks) != 1 || toks[0].Kind != token.EOF {
		t.Fatalf("expected single EOF, got %v", toks)
	}
}

func TestOnlyWhitespace(t *testing.T) {
	toks := collectAllTokens("  \n\t ")
	if len(toks) != 2 || toks[0].Kind != token.Whitespace || toks[0].Text != "  \n\t " {
		t.Fatalf("unexpected tokens %v", toks)
	}
}

func TestLineComment(t *testing.T) {
	toks := collectAllTokens("  // line comment here\n  ")
	if toks[1].Kind != token.LineComment || toks[1].Text != "// line comment here" {
		t.Fatalf("unexpected comment token %v", toks[1])
	}
	if toks[2].Kind != token.Whitespace || toks[2].Text != "\n  " {
		t.Fatalf("unexpected trailing whitespace %v", toks[2])
	}
}

func TestClassDeclaration(t *testing.T) {
	expectKinds(t, "namespace A/B. export partial class C<out T> { is D. }",
		token.KwNamespace, token.SimpleSymbol, token.Slash, token.SimpleSymbol, token.Period,
		token.KwExport, token.KwPartial, token.KwClass, token.SimpleSymbol,
		token.OpenAngle, token.KwOut, token.SimpleSymbol, token.CloseAngle,
		token.OpenCurly, token.KwIs, token.SimpleSymbol, token.Period, token.CloseCurly,
	)
}

func TestMethod(t *testing.T) {
	expectKinds(t, "public native + Number other -> Self.",
		token.KwPublic, token.KwNative, token.Operator, token.SimpleSymbol, token.SimpleSymbol,
		token.Arrow, token.SimpleSymbol, token.Period,
	)
	expectKinds(t, "at: Int idx => self.",
		token.SimpleSymbol, token.Colon, token.SimpleSymbol, token.SimpleSymbol,
		token.FatArrow, token.KwSelf, token.Period,
	)
}

func TestOperators(t *testing.T) {
	toks := expectKinds(t, "a <= b == c ~~> d / e",
		token.SimpleSymbol, token.Operator, token.SimpleSymbol, token.Operator,
		token.SimpleSymbol, token.Operator, token.SimpleSymbol, token.Slash, token.SimpleSymbol,
	)
	if toks[2].Text != "<=" || toks[10].Text != "~~>" {
		t.Fatalf("unexpected operator texts %q %q", toks[2].Text, toks[10].Text)
	}
	expectKinds(t, "A<B<C>>", token.SimpleSymbol, token.OpenAngle, token.SimpleSymbol,
		token.OpenAngle, token.SimpleSymbol, token.CloseAngle, token.CloseAngle)
	expectKinds(t, "a >= b", token.SimpleSymbol, token.Operator, token.SimpleSymbol)
	toks = expectKinds(t, "a +// c", token.SimpleSymbol, token.Operator)
	// "//" не входит в оператор
	if op := toks[2]; op.Text != "+" {
		t.Fatalf("operator text %q, want %q", op.Text, "+")
	}
	if last := toks[len(toks)-2]; last.Kind != token.LineComment || last.Text != "// c" {
		t.Fatalf("trailing token %v %q, want line comment", last.Kind, last.Text)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		text  string
	}{
		{"42", token.SimpleInteger, "42"},
		{"1_000_000", token.SimpleInteger, "1_000_000"},
		{"16#FF", token.SimpleInteger, "16#FF"},
		{"2#1010", token.SimpleInteger, "2#1010"},
		{"1.5", token.SimpleFloat, "1.5"},
		{"16#A.8", token.SimpleFloat, "16#A.8"},
		{"2#1.2", token.SimpleInteger, "2#1"},
		{"3.", token.SimpleInteger, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := collectAllTokens(tt.input)
			if toks[0].Kind != tt.kind || toks[0].Text != tt.text {
				t.Fatalf("got %v %q, want %v %q", toks[0].Kind, toks[0].Text, tt.kind, tt.text)
			}
		})
	}
}

func TestStringsAndCharacters(t *testing.T) {
	toks := expectKinds(t, `"a \" b" 'x' '\'' #foo #at:put: #+`,
		token.SimpleString, token.SimpleCharacter, token.SimpleCharacter,
		token.SymbolLiteral, token.SymbolLiteral, token.SymbolLiteral,
	)
	if toks[0].Text != `"a \" b"` {
		t.Fatalf("escape must not terminate the string: %q", toks[0].Text)
	}
	unterminated := collectAllTokens(`"abc`)
	if unterminated[0].Kind != token.SimpleString || unterminated[0].Text != `"abc` {
		t.Fatalf("unterminated string should run to EOF: %v", unterminated[0])
	}
}

func TestSymbolsWithApostrophes(t *testing.T) {
	toks := expectKinds(t, "x' _ _y Self self", token.SimpleSymbol, token.Underscore,
		token.SimpleSymbol, token.SimpleSymbol, token.KwSelf)
	if toks[0].Text != "x'" {
		t.Fatalf("apostrophe should be part of symbol: %q", toks[0].Text)
	}
}

func TestUnknownCharacters(t *testing.T) {
	expectKinds(t, "a $ b € [", token.SimpleSymbol, token.Unknown, token.SimpleSymbol, token.Unknown, token.Unknown)
}

func TestLossless(t *testing.T) {
	inputs := []string{
		"",
		"class A { public run -> Integer => 40 + 2. }",
		"namespace N.\nimport Loa/Integer as I.\n// comment\nlet x = 16#FF.8.\n",
		"\"unterminated\n'\\",
		"€€€ $$$ ### ::: >>><<<",
		"a\r\nb\tc",
	}
	for _, input := range inputs {
		toks := collectAllTokens(input)
		var b strings.Builder
		eofs := 0
		for _, tok := range toks {
			b.WriteString(tok.Text)
			if tok.Kind == token.EOF {
				eofs++
			}
		}
		if b.String() != input {
			t.Errorf("lexemes do not reproduce %q: got %q", input, b.String())
		}
		if eofs != 1 || toks[len(toks)-1].Kind != token.EOF {
			t.Errorf("%q: expected exactly one trailing EOF", input)
		}
	}
}

func TestSpans(t *testing.T) {
	toks := collectAllTokens("class\n  Foo")
	foo := toks[2]
	if foo.Span.Start.Line != 2 || foo.Span.Start.Character != 3 || foo.Span.Start.Offset != 8 || foo.Span.End.Offset != 11 {
		t.Fatalf("unexpected span %v", foo.Span)
	}
}

func TestPredicates(t *testing.T) {
	if !lexer.IsValidSymbol("foo") || lexer.IsValidSymbol("foo bar") || lexer.IsValidSymbol("class") {
		t.Error("IsValidSymbol misclassified")
	}
	if !lexer.IsValidBinarySelector("+") || !lexer.IsValidBinarySelector("<=") || lexer.IsValidBinarySelector("a") {
		t.Error("IsValidBinarySelector misclassified")
	}
	if !lexer.IsValidKeywordSelector("at:put:", 2) || lexer.IsValidKeywordSelector("at:put:", 1) || lexer.IsValidKeywordSelector("at", 1) {
		t.Error("IsValidKeywordSelector misclassified")
	}
}

func TestSplitNumber(t *testing.T) {
	n, err := lexer.SplitNumber("16#ff.8")
	if err != nil {
		t.Fatal(err)
	}
	if n.Base != 16 || n.Integer != "ff" || n.Fraction != "8" {
		t.Fatalf("unexpected split %+v", n)
	}
	if got := n.Rat().RatString(); got != "511/2" {
		t.Fatalf("Rat = %s, want 511/2", got)
	}
	i, err := lexer.SplitNumber("1_000")
	if err != nil || i.Int().Int64() != 1000 {
		t.Fatalf("SplitNumber(1_000) = %v, %v", i.Int(), err)
	}
	if _, err := lexer.SplitNumber("40#1"); err == nil {
		t.Fatal("base 40 must be rejected")
	}
	if _, err := lexer.SplitNumber("2#3"); err == nil {
		t.Fatal("digit 3 is not binary")
	}
}
