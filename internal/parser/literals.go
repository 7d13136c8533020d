package parser

import (
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"loa/internal/ast"
	"loa/internal/lexer"
	"loa/internal/source"
	"loa/internal/token"
)

func (p *Parser) parseLiteral(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	tok := p.advance()
	switch tok.Kind {
	case token.SimpleString:
		value, ok := unquote(tok.Text, '"')
		if !ok {
			p.errAt(tok.Span, "Unterminated string literal.")
		}
		return p.finish(b, ast.StringExpression{Token: tok, Value: norm.NFC.String(value)})
	case token.SimpleCharacter:
		value, ok := unquote(tok.Text, '\'')
		if !ok {
			p.errAt(tok.Span, "Unterminated character literal.")
		}
		value = norm.NFC.String(value)
		r, size := utf8.DecodeRuneInString(value)
		if ok && (value == "" || size != len(value)) {
			p.errAt(tok.Span, "Character literal must contain exactly one character.")
		}
		if value == "" {
			r = 0
		}
		return p.finish(b, ast.CharacterExpression{Token: tok, Value: r})
	case token.SymbolLiteral:
		return p.finish(b, ast.SymbolExpression{Token: tok, Value: strings.TrimPrefix(tok.Text, "#")})
	default:
		return p.finish(b, p.numberKind(tok, tok.Text, false))
	}
}

// atNegativeNumber: `-` вплотную перед числом означает отрицательный литерал.
func (p *Parser) atNegativeNumber() bool {
	if !p.atOperator("-") {
		return false
	}
	next := p.peekN(1)
	return (next.Kind == token.SimpleInteger || next.Kind == token.SimpleFloat) &&
		next.Span.Start.Offset == p.peek().Span.End.Offset
}

func (p *Parser) parseNegativeNumber(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	minus := p.advance()
	num := p.advance()
	tok := token.Token{
		Kind: num.Kind,
		Span: source.Span{Start: minus.Span.Start, End: num.Span.End},
		Text: minus.Text + num.Text,
	}
	return p.finish(b, p.numberKind(tok, num.Text, true))
}

func (p *Parser) numberKind(tok token.Token, digits string, negative bool) ast.Kind {
	n, err := lexer.SplitNumber(digits)
	if err != nil {
		p.errAt(tok.Span, "Invalid number literal: "+err.Error()+".")
	}
	if tok.Kind == token.SimpleFloat {
		value := new(big.Rat)
		if err == nil {
			value = n.Rat()
		}
		if negative {
			value.Neg(value)
		}
		return ast.FloatExpression{Token: tok, Value: value}
	}
	value := new(big.Int)
	if err == nil {
		value = n.Int()
	}
	if negative {
		value.Neg(value)
	}
	return ast.IntegerExpression{Token: tok, Value: value}
}

// unquote снимает кавычки и раскрывает escape-последовательности:
// \n \t \r \0 \\ \" \' и \u{hex}. Неизвестная последовательность даёт сам символ.
// ok=false, если литерал не закрыт.
func unquote(text string, quote byte) (string, bool) {
	if len(text) == 0 || text[0] != quote {
		return "", false
	}
	body := text[1:]
	var b strings.Builder
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == quote:
			return b.String(), i == len(body)-1
		case c == '\\' && i+1 < len(body):
			i++
			switch e := body[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case 'u':
				if r, width, ok := unicodeEscape(body[i+1:]); ok {
					b.WriteRune(r)
					i += width
				} else {
					b.WriteByte('u')
				}
			default:
				r, size := utf8.DecodeRuneInString(body[i:])
				b.WriteRune(r)
				i += size - 1
			}
			i++
		default:
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size
		}
	}
	return b.String(), false
}

// unicodeEscape разбирает `{hex}` после \u.
func unicodeEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:end], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, false
	}
	return rune(v), end + 1, true
}
