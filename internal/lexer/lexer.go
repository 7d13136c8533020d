package lexer

import (
	"unicode/utf8"

	"loa/internal/source"
	"loa/internal/token"
)

// Lexer produces every token of a source, trivia included.
// Лексер тотален: нераспознанные символы становятся token.Unknown,
// ошибки откладываются до парсера.
type Lexer struct {
	src  *source.Source
	code string
	pos  int
}

func New(src *source.Source) *Lexer {
	return &Lexer{src: src, code: src.Code}
}

// Tokenize returns the full token stream of src, ending with exactly one EOF.
func Tokenize(src *source.Source) []token.Token {
	lx := New(src)
	out := make([]token.Token, 0, len(src.Code)/3+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// Next returns the next token; at the end it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.eof() {
		return lx.token(token.EOF, lx.pos)
	}
	switch c := lx.peek(); {
	case is(c, space):
		return lx.whitespace()
	case c == '/' && lx.peekAt(1) == '/':
		return lx.comment()
	case is(c, digit):
		return lx.number()
	case c == '_' || is(c, letter) || c >= utf8.RuneSelf:
		return lx.symbol()
	case c == '"':
		return lx.quoted('"', token.SimpleString)
	case c == '\'':
		return lx.quoted('\'', token.SimpleCharacter)
	case c == '#':
		return lx.symbolLiteral()
	}
	return lx.operator()
}

func (lx *Lexer) eof() bool { return lx.pos >= len(lx.code) }

// peek и peekAt возвращают 0 за концом исходника.
func (lx *Lexer) peek() byte { return lx.peekAt(0) }

func (lx *Lexer) peekAt(k int) byte {
	if lx.pos+k < len(lx.code) {
		return lx.code[lx.pos+k]
	}
	return 0
}

func (lx *Lexer) advance() {
	if !lx.eof() {
		lx.pos++
	}
}

// skip consumes bytes while they belong to one of the classes.
func (lx *Lexer) skip(classes uint8) {
	for !lx.eof() && is(lx.code[lx.pos], classes) {
		lx.pos++
	}
}

func (lx *Lexer) peekRune() (rune, int) {
	if lx.eof() {
		return utf8.RuneError, 0
	}
	if c := lx.code[lx.pos]; c < utf8.RuneSelf {
		return rune(c), 1
	}
	return utf8.DecodeRuneInString(lx.code[lx.pos:])
}

func (lx *Lexer) advanceRune() {
	_, n := lx.peekRune()
	lx.pos += n
}

func (lx *Lexer) text(start int) string { return lx.code[start:lx.pos] }

func (lx *Lexer) token(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Span: lx.src.Span(start, lx.pos), Text: lx.text(start)}
}
