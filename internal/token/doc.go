// Package token defines lexical token kinds for the Loa compiler.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - Whitespace and line comments are ordinary tokens; the token stream is
//     lossless and concatenating every Text reproduces the source.
//   - Built-in class names (Integer, Int32, String, ...) are SimpleSymbols.
//     They are recognized by the semantic layer, not the lexer.
package token
