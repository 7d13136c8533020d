package lexer

import (
	"loa/internal/source"
	"loa/internal/token"
)

func significant(text string) []token.Token {
	src := source.New(source.KindModule, source.TestURI("selector"), text)
	all := Tokenize(src)
	out := all[:0]
	for _, tok := range all {
		if tok.Kind != token.EOF {
			out = append(out, tok)
		}
	}
	return out
}

// IsValidSymbol reports whether text lexes as exactly one symbol.
func IsValidSymbol(text string) bool {
	toks := significant(text)
	return len(toks) == 1 && toks[0].Kind == token.SimpleSymbol
}

// IsValidBinarySelector reports whether text lexes as exactly one binary operator.
func IsValidBinarySelector(text string) bool {
	toks := significant(text)
	return len(toks) == 1 && toks[0].Kind.IsBinaryOperator()
}

// IsValidKeywordSelector reports whether text is `kw:` repeated arity times.
func IsValidKeywordSelector(text string, arity int) bool {
	toks := significant(text)
	if arity <= 0 || len(toks) != arity*2 {
		return false
	}
	for i := 0; i < arity; i++ {
		if toks[2*i].Kind != token.SimpleSymbol || toks[2*i+1].Kind != token.Colon {
			return false
		}
	}
	return true
}
