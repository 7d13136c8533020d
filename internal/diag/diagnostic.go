package diag

import (
	"loa/internal/source"
)

// Note is secondary information attached to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the text under Span with NewText.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is one machine-applicable suggestion; its edits apply together.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic несёт уже отрендеренное сообщение: в нём нет идентификаторов узлов,
// поэтому диагностики переживают пересборку деревьев.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// NewError builds a diagnostic with the default severity of code. Every code
// but TooPreciseFloat defaults to SevError.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(code.DefaultSeverity(), code, primary, msg)
}

func (d Diagnostic) IsError() bool { return d.Severity >= SevError }

func (d Diagnostic) URI() source.URI { return d.Primary.URI() }

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

// String is the one-line form used by tests and the REPL.
func (d Diagnostic) String() string {
	return d.Primary.Start.String() + ": " + d.Severity.String() + " " + d.Code.ID() + ": " + d.Message
}
