package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Unknown is a character the lexer does not recognize.
	Unknown Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Whitespace is a run of spaces, tabs and newlines.
	Whitespace
	// LineComment is `//` up to the end of the line.
	LineComment

	// SimpleSymbol is an identifier.
	SimpleSymbol
	// SimpleInteger is an integer literal, optionally in `base#digits` notation.
	SimpleInteger
	// SimpleFloat is a literal with a fractional part.
	SimpleFloat
	// SimpleString is a double-quoted string literal.
	SimpleString
	// SimpleCharacter is a single-quoted character literal.
	SimpleCharacter
	// SymbolLiteral is `#name`, `#at:put:` or `#+`.
	SymbolLiteral

	// Operator is a maximal run of operator characters.
	Operator
	Colon     // :
	Semicolon // ;
	Comma     // ,
	Period    // .
	Slash     // /
	Arrow     // ->
	FatArrow  // =>
	// Underscore is a lone `_`.
	Underscore
	OpenAngle  // <
	CloseAngle // >
	OpenCurly  // {
	CloseCurly // }
	OpenParen  // (
	CloseParen // )

	KwAs        // as
	KwIn        // in
	KwIs        // is
	KwOut       // out
	KwInout     // inout
	KwClass     // class
	KwPrivate   // private
	KwPublic    // public
	KwNamespace // namespace
	KwSelf      // self
	KwImport    // import
	KwExport    // export
	KwPartial   // partial
	KwNative    // native
	KwLet       // let
	KwPanic     // panic
)

var kindNames = [...]string{
	Unknown:         "Unknown",
	EOF:             "EOF",
	Whitespace:      "Whitespace",
	LineComment:     "LineComment",
	SimpleSymbol:    "SimpleSymbol",
	SimpleInteger:   "SimpleInteger",
	SimpleFloat:     "SimpleFloat",
	SimpleString:    "SimpleString",
	SimpleCharacter: "SimpleCharacter",
	SymbolLiteral:   "SymbolLiteral",
	Operator:        "Operator",
	Colon:           "Colon",
	Semicolon:       "Semicolon",
	Comma:           "Comma",
	Period:          "Period",
	Slash:           "Slash",
	Arrow:           "Arrow",
	FatArrow:        "FatArrow",
	Underscore:      "Underscore",
	OpenAngle:       "OpenAngle",
	CloseAngle:      "CloseAngle",
	OpenCurly:       "OpenCurly",
	CloseCurly:      "CloseCurly",
	OpenParen:       "OpenParen",
	CloseParen:      "CloseParen",
	KwAs:            "as",
	KwIn:            "in",
	KwIs:            "is",
	KwOut:           "out",
	KwInout:         "inout",
	KwClass:         "class",
	KwPrivate:       "private",
	KwPublic:        "public",
	KwNamespace:     "namespace",
	KwSelf:          "self",
	KwImport:        "import",
	KwExport:        "export",
	KwPartial:       "partial",
	KwNative:        "native",
	KwLet:           "let",
	KwPanic:         "panic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwAs && k <= KwPanic
}

// IsTrivia reports whether the parser should skip tokens of this kind.
func (k Kind) IsTrivia() bool {
	return k == Whitespace || k == LineComment
}

// IsBinaryOperator reports whether a token of this kind can be a binary selector.
func (k Kind) IsBinaryOperator() bool {
	switch k {
	case Operator, Slash, OpenAngle, CloseAngle:
		return true
	default:
		return false
	}
}
