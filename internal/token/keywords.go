package token

var keywords = map[string]Kind{
	"as":        KwAs,
	"in":        KwIn,
	"is":        KwIs,
	"out":       KwOut,
	"inout":     KwInout,
	"class":     KwClass,
	"private":   KwPrivate,
	"public":    KwPublic,
	"namespace": KwNamespace,
	"self":      KwSelf,
	"import":    KwImport,
	"export":    KwExport,
	"partial":   KwPartial,
	"native":    KwNative,
	"let":       KwLet,
	"panic":     KwPanic,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые: `Self` остаётся символом.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
