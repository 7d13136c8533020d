package token

import (
	"loa/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a number, string, character or symbol literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case SimpleInteger, SimpleFloat, SimpleString, SimpleCharacter, SymbolLiteral:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return t.Kind.IsKeyword() }

// IsSymbol reports whether the token is an identifier.
func (t Token) IsSymbol() bool { return t.Kind == SimpleSymbol }

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Text + ")"
}
