package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"loa/internal/diag"
	"loa/internal/source"
)

const tabWidth = 4

// Sources resolves the text a diagnostic points into. Missing sources are
// printed as a location without a snippet.
type Sources map[source.URI]*source.Source

type palette struct {
	err, warn, info *color.Color
	gutter          *color.Color
	path            *color.Color
	note, help      *color.Color
	bold            *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		gutter: mk(color.FgBlue, color.Bold),
		path:   mk(color.FgHiBlack),
		note:   mk(color.FgCyan),
		help:   mk(color.FgGreen),
		bold:   mk(color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics the way a terminal user reads them: header,
// location, source snippet with the primary span underlined.
func Pretty(w io.Writer, items []diag.Diagnostic, sources Sources, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i, d := range items {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := prettyOne(w, d, sources, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, sources Sources, opts PrettyOpts, p palette) error {
	var b strings.Builder
	sev := p.severity(d.Severity)
	fmt.Fprintf(&b, "%s%s %s\n",
		sev.Sprint(d.Severity.String()),
		sev.Sprintf("[%s]:", d.Code.ID()),
		p.bold.Sprint(d.Message))

	start := d.Primary.Start
	src := sources[d.Primary.URI()]
	gutterWidth := 1
	if src != nil {
		last := min(d.Primary.End.Line+int(opts.Context), src.LineCount())
		gutterWidth = len(strconv.Itoa(max(last, 1)))
	}
	pad := strings.Repeat(" ", gutterWidth)

	fmt.Fprintf(&b, "%s%s %s\n", pad, p.gutter.Sprint("-->"),
		p.path.Sprintf("%s:%d:%d", opts.PathMode.Show(start.URI, opts.BaseDir), start.Line, start.Character))

	if src != nil && start.Line >= 1 {
		fmt.Fprintf(&b, "%s %s\n", pad, p.gutter.Sprint("|"))
		first := max(1, start.Line-int(opts.Context))
		last := min(src.LineCount(), start.Line+int(opts.Context))
		for line := first; line <= last; line++ {
			text := expandTabs(src.Line(line))
			if opts.Width > 0 {
				text = runewidth.Truncate(text, int(opts.Width), "…")
			}
			fmt.Fprintf(&b, "%s %s %s\n", p.gutter.Sprintf("%*d", gutterWidth, line), p.gutter.Sprint("|"), text)
			if line == start.Line {
				col, width := underline(src, d.Primary)
				fmt.Fprintf(&b, "%s %s %s%s %s\n", pad, p.gutter.Sprint("|"),
					strings.Repeat(" ", col), sev.Sprint(strings.Repeat("^", width)), sev.Sprint(d.Code.Title()))
			}
		}
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "%s %s %s %s\n", pad, p.gutter.Sprint("="), p.note.Sprint("note:"), n.Msg)
			if n.Span.Start.URI == "" {
				continue
			}
			fmt.Fprintf(&b, "%s   %s\n", pad, p.path.Sprintf("at %s:%d:%d",
				opts.PathMode.Show(n.Span.Start.URI, opts.BaseDir), n.Span.Start.Line, n.Span.Start.Character))
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(&b, "%s %s %s %s\n", pad, p.gutter.Sprint("="), p.help.Sprint("help:"), f.Title)
			for _, e := range f.Edits {
				old := ""
				if s := sources[e.Span.URI()]; s != nil {
					old = s.Slice(e.Span)
				}
				switch {
				case old == "":
					fmt.Fprintf(&b, "%s   insert %q at %d:%d\n", pad, e.NewText, e.Span.Start.Line, e.Span.Start.Character)
				case e.NewText == "":
					fmt.Fprintf(&b, "%s   remove %q\n", pad, old)
				default:
					fmt.Fprintf(&b, "%s   replace %q with %q\n", pad, old, e.NewText)
				}
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// underline returns the display column and width of the caret run under the
// first line of span. Multi-line spans are underlined to the end of the line.
func underline(src *source.Source, span source.Span) (col, width int) {
	line := span.Start.Line
	text := src.Line(line)
	lineStart := src.OffsetAt(line, 1)
	from := min(max(span.Start.Offset-lineStart, 0), len(text))
	to := len(text)
	if span.End.Line == line {
		to = min(span.End.Offset-lineStart, len(text))
	}
	to = max(to, from)

	col = displayWidth(text[:from])
	width = max(displayWidth(text[from:to]), 1)
	return col, width
}

func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// Summary prints the "N errors, M warnings" trailer. Nothing is printed for
// an empty list.
func Summary(w io.Writer, items []diag.Diagnostic, useColor bool) error {
	var errs, warns int
	for _, d := range items {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return nil
	}
	p := newPalette(useColor)
	var parts []string
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(parts, ", "))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
