// Package diag defines the diagnostic model shared by the parser and the
// semantic checkers.
//
// A Diagnostic carries a Severity, a Code, a fully rendered Message and the
// primary source.Span it points at. Diagnostics never reference tree node
// ids: the message is rendered at the moment the problem is found, so a
// diagnostic stays meaningful after the trees it was computed from are
// discarded (the editor boundary recomputes everything from scratch on each
// change).
//
// Codes are small stable numbers rendered as `Lnnn`. Each code has a default
// severity; only TooPreciseFloat is a warning.
//
// Producers build values with the New* constructors in messages.go, attach
// notes and fixes with WithNote/WithFix, and hand them to a Reporter
// (BagReporter, SliceReporter, ReporterFunc). Bag collects, caps, sorts and
// deduplicates.
//
// Formatting for terminals and machines lives in internal/diagfmt.
package diag
