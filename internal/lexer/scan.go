package lexer

import (
	"unicode"

	"loa/internal/token"
)

func (lx *Lexer) whitespace() token.Token {
	start := lx.pos
	lx.skip(space)
	return lx.token(token.Whitespace, start)
}

// comment runs to the newline, which is left for the whitespace token.
func (lx *Lexer) comment() token.Token {
	start := lx.pos
	for !lx.eof() && lx.peek() != '\n' {
		lx.pos++
	}
	return lx.token(token.LineComment, start)
}

// number: 123, 1_000, 16#FF, 2#1010, 1.5, 16#A.8.
// Дробная часть берётся, только если после '.' идёт цифра этого основания;
// иначе '.' завершает выражение.
func (lx *Lexer) number() token.Token {
	start := lx.pos
	lx.skip(digit | underscore)

	base := 10
	if lx.peek() == '#' && is(lx.peekAt(1), digit|letter) {
		if b, ok := parseBase(lx.text(start)); ok {
			base = b
		} else {
			base = 36 // о недопустимом основании сообщит парсер
		}
		lx.advance()
		lx.skip(digit | letter | underscore)
	}

	if lx.peek() != '.' || digitOf(lx.peekAt(1)) >= base {
		return lx.token(token.SimpleInteger, start)
	}
	lx.advance()
	for c := lx.peek(); digitOf(c) < base || c == '_'; c = lx.peek() {
		lx.advance()
	}
	return lx.token(token.SimpleFloat, start)
}

func parseBase(text string) (int, bool) {
	n := 0
	for i := range len(text) {
		if text[i] == '_' {
			continue
		}
		if n = n*10 + int(text[i]-'0'); n > 36 {
			return 0, false
		}
	}
	return n, n >= 2
}

func identStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func identPart(r rune) bool { return identStart(r) || unicode.IsDigit(r) }

// takeIdent consumes identifier runes, and colons too when withColons is set.
func (lx *Lexer) takeIdent(withColons bool) {
	for {
		r, n := lx.peekRune()
		if n == 0 || !(identPart(r) || withColons && r == ':') {
			return
		}
		lx.pos += n
	}
}

// symbol scans an identifier or a reserved word. Trailing apostrophes
// belong to the symbol: x' and x'' are single tokens.
func (lx *Lexer) symbol() token.Token {
	start := lx.pos
	if r, _ := lx.peekRune(); !identStart(r) {
		lx.advanceRune()
		return lx.token(token.Unknown, start)
	}
	lx.takeIdent(false)
	for lx.peek() == '\'' {
		lx.advance()
	}

	text := lx.text(start)
	if text == "_" {
		return lx.token(token.Underscore, start)
	}
	if kw, ok := token.LookupKeyword(text); ok {
		return lx.token(kw, start)
	}
	return lx.token(token.SimpleSymbol, start)
}

// symbolLiteral: #name, #at:put:, #+. A lone '#' is Unknown.
func (lx *Lexer) symbolLiteral() token.Token {
	start := lx.pos
	lx.advance()
	if r, _ := lx.peekRune(); identStart(r) {
		lx.takeIdent(true)
	} else if is(lx.peek(), opchar) {
		lx.skip(opchar)
	} else {
		return lx.token(token.Unknown, start)
	}
	return lx.token(token.SymbolLiteral, start)
}

// quoted scans "..." and '...'. A backslash swallows the next character
// without interpreting it. An unterminated literal runs to the end of the
// source; the parser reports it.
func (lx *Lexer) quoted(quote byte, kind token.Kind) token.Token {
	start := lx.pos
	lx.advance()
	for !lx.eof() {
		switch lx.peek() {
		case quote:
			lx.advance()
			return lx.token(kind, start)
		case '\\':
			lx.advance()
		}
		lx.advanceRune()
	}
	return lx.token(kind, start)
}

var punct = [256]token.Kind{
	':': token.Colon,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Period,
	'{': token.OpenCurly,
	'}': token.CloseCurly,
	'(': token.OpenParen,
	')': token.CloseParen,
}

var operatorPunct = map[string]token.Kind{
	"/":  token.Slash,
	"<":  token.OpenAngle,
	"->": token.Arrow,
	"=>": token.FatArrow,
}

// operator: пунктуация односимвольная, операторы жадные. A run of operator
// characters is one Operator unless it spells a punctuation token. A '>'
// directly followed by another '>' or by a non-operator closes one angle
// bracket, so nested type arguments close one by one.
func (lx *Lexer) operator() token.Token {
	start := lx.pos
	c := lx.peek()
	if k := punct[c]; k != token.Unknown {
		lx.advance()
		return lx.token(k, start)
	}
	if !is(c, opchar) {
		lx.advanceRune()
		return lx.token(token.Unknown, start)
	}
	if next := lx.peekAt(1); c == '>' && (next == '>' || !is(next, opchar)) {
		lx.advance()
		return lx.token(token.CloseAngle, start)
	}

	lx.advance()
	for is(lx.peek(), opchar) {
		if lx.peek() == '/' && lx.peekAt(1) == '/' {
			break // `//` внутри оператора начинает комментарий
		}
		lx.advance()
	}
	if k, ok := operatorPunct[lx.text(start)]; ok {
		return lx.token(k, start)
	}
	return lx.token(token.Operator, start)
}
