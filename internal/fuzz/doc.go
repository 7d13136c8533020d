// Package fuzztests houses Go fuzz harnesses for the front of the pipeline
// (source -> lexer -> parser). They guard against panics, hangs and broken
// trees on arbitrary input.
//
// Назначение: прогонять байты через лексер и парсер и проверять инварианты
// из internal/testkit.
package fuzztests
