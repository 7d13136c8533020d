package diagfmt

import (
	"encoding/json"
	"io"

	"loa/internal/diag"
	"loa/internal/source"
)

// Position is one end of a JSON range. Line and Character are zero when
// JSONOpts.IncludePositions is off.
type Position struct {
	Byte      int `json:"byte"`
	Line      int `json:"line,omitempty"`
	Character int `json:"character,omitempty"`
}

type Range struct {
	File  string   `json:"file"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Entry struct {
	Severity diag.Severity `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Range    Range         `json:"range"`
	Notes    []NoteEntry   `json:"notes,omitempty"`
	Fixes    []FixEntry    `json:"fixes,omitempty"`
}

type NoteEntry struct {
	Message string `json:"message"`
	Range   Range  `json:"range"`
}

type FixEntry struct {
	Title string      `json:"title"`
	Edits []EditEntry `json:"edits"`
}

type EditEntry struct {
	Range   Range  `json:"range"`
	NewText string `json:"new_text"`
}

// Document is the top-level object of `loa check --format json`. The
// counts cover every diagnostic, including those cut off by Max.
type Document struct {
	Diagnostics []Entry `json:"diagnostics"`
	Count       int     `json:"count"`
	Errors      int     `json:"errors"`
	Warnings    int     `json:"warnings"`
}

type jsonWriter struct{ opts JSONOpts }

func (w jsonWriter) rng(span source.Span) Range {
	r := Range{
		File:  w.opts.PathMode.Show(span.URI(), w.opts.BaseDir),
		Start: Position{Byte: span.Start.Offset},
		End:   Position{Byte: span.End.Offset},
	}
	if w.opts.IncludePositions {
		r.Start.Line, r.Start.Character = span.Start.Line, span.Start.Character
		r.End.Line, r.End.Character = span.End.Line, span.End.Character
	}
	return r
}

func (w jsonWriter) entry(d diag.Diagnostic) Entry {
	e := Entry{
		Severity: d.Severity,
		Code:     d.Code.ID(),
		Title:    d.Code.Title(),
		Message:  d.Message,
		Range:    w.rng(d.Primary),
	}
	if w.opts.IncludeNotes {
		for _, n := range d.Notes {
			e.Notes = append(e.Notes, NoteEntry{Message: n.Msg, Range: w.rng(n.Span)})
		}
	}
	if w.opts.IncludeFixes {
		for _, f := range d.Fixes {
			fe := FixEntry{Title: f.Title, Edits: make([]EditEntry, 0, len(f.Edits))}
			for _, ed := range f.Edits {
				fe.Edits = append(fe.Edits, EditEntry{Range: w.rng(ed.Span), NewText: ed.NewText})
			}
			e.Fixes = append(e.Fixes, fe)
		}
	}
	return e
}

// NewDocument builds the JSON view of items without encoding it.
func NewDocument(items []diag.Diagnostic, opts JSONOpts) Document {
	w := jsonWriter{opts: opts}
	doc := Document{Diagnostics: []Entry{}, Count: len(items)}
	for i, d := range items {
		switch d.Severity {
		case diag.SevError:
			doc.Errors++
		case diag.SevWarning:
			doc.Warnings++
		}
		if opts.Max <= 0 || i < opts.Max {
			doc.Diagnostics = append(doc.Diagnostics, w.entry(d))
		}
	}
	return doc
}

func JSON(w io.Writer, items []diag.Diagnostic, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(items, opts))
}
