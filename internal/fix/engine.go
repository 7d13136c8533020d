// Package fix applies the edits attached to diagnostics back to the sources.
package fix

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"loa/internal/diag"
	"loa/internal/source"
)

var ErrNoFixes = errors.New("no applicable fixes found")

// Options selects fixes. The zero value applies the first fix in source order.
type Options struct {
	All bool
	// ID picks one fix by the name ID gives it.
	ID string
	// Write stores changed file modules on disk. Without it the result only
	// carries the updated sources.
	Write bool
}

// Candidate is one fix offered by a diagnostic.
type Candidate struct {
	ID    string
	Title string
	Diag  diag.Diagnostic
	Edits []diag.FixEdit
	seq   int
}

type Applied struct {
	ID    string
	Title string
	URI   source.URI
	Edits int
}

type Skipped struct {
	ID     string
	Title  string
	Reason string
}

// Change is the new text of one module and how many edits produced it.
type Change struct {
	Source *source.Source
	Edits  int
}

type Result struct {
	Applied []Applied
	Skipped []Skipped
	Changes map[source.URI]*Change
}

// ID is the stable name of the idx-th fix of d, as `loa fix --id` expects it.
func ID(d diag.Diagnostic, idx int) string {
	return fmt.Sprintf("%s-%d:%d-%d", d.Code.ID(), d.Primary.Start.Line, d.Primary.Start.Character, idx)
}

// Candidates lists the fixes of diagnostics in source order. Fixes without
// edits and repeated ids are returned as skipped.
func Candidates(diagnostics []diag.Diagnostic) ([]Candidate, []Skipped) {
	var (
		out   []Candidate
		skips []Skipped
	)
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		for i, f := range d.Fixes {
			id := ID(d, i)
			switch {
			case len(f.Edits) == 0:
				skips = append(skips, Skipped{ID: id, Title: f.Title, Reason: "fix has no edits"})
			case seen[id]:
				skips = append(skips, Skipped{ID: id, Title: f.Title, Reason: "duplicate fix id"})
			default:
				seen[id] = true
				out = append(out, Candidate{ID: id, Title: f.Title, Diag: d, Edits: f.Edits, seq: len(out)})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		pa, pb := a.Diag.Primary, b.Diag.Primary
		return cmp.Or(
			cmp.Compare(pa.URI(), pb.URI()),
			cmp.Compare(pa.Start.Offset, pb.Start.Offset),
			cmp.Compare(pa.End.Offset, pb.End.Offset),
			cmp.Compare(a.seq, b.seq),
		)
	})
	return out, skips
}

func pick(cands []Candidate, opts Options) ([]Candidate, []Skipped) {
	switch {
	case opts.ID != "":
		if i := slices.IndexFunc(cands, func(c Candidate) bool { return c.ID == opts.ID }); i >= 0 {
			return cands[i : i+1], nil
		}
		return nil, []Skipped{{ID: opts.ID, Reason: "fix id not found"}}
	case opts.All:
		return cands, nil
	case len(cands) > 0:
		return cands[:1], nil
	}
	return nil, nil
}

// Apply selects fixes from diagnostics and applies them. A fix whose edits
// overlap an already accepted fix is skipped as a whole.
func Apply(sources map[source.URI]*source.Source, diagnostics []diag.Diagnostic, opts Options) (*Result, error) {
	res := &Result{Changes: make(map[source.URI]*Change)}
	cands, skips := Candidates(diagnostics)
	res.Skipped = append(res.Skipped, skips...)
	chosen, skips := pick(cands, opts)
	res.Skipped = append(res.Skipped, skips...)

	// принятые правки копятся в исходных смещениях, текст собирается один раз
	accepted := make(map[source.URI][]edit)
	for _, c := range chosen {
		byURI, reason := stage(sources, accepted, c.Edits, opts.Write)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skipped{ID: c.ID, Title: c.Title, Reason: reason})
			continue
		}
		for uri, es := range byURI {
			accepted[uri] = append(accepted[uri], es...)
		}
		res.Applied = append(res.Applied, Applied{ID: c.ID, Title: c.Title, URI: c.Diag.Primary.URI(), Edits: len(c.Edits)})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	for _, uri := range slices.Sorted(maps.Keys(accepted)) {
		src := sources[uri]
		text := render(src.Code, accepted[uri])
		res.Changes[uri] = &Change{Source: source.New(src.Kind, uri, text), Edits: len(accepted[uri])}
		if opts.Write {
			if err := writeModule(uri.Path(), text); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// edit is a replacement of code[start:end] in the original text.
type edit struct {
	start, end int
	text       string
}

// stage checks the edits of one fix against the modules and against what
// was accepted before. A non-empty reason rejects the fix.
func stage(sources map[source.URI]*source.Source, accepted map[source.URI][]edit, fixEdits []diag.FixEdit, write bool) (map[source.URI][]edit, string) {
	byURI := make(map[source.URI][]edit)
	for _, fe := range fixEdits {
		uri := fe.Span.URI()
		src, ok := sources[uri]
		switch {
		case !ok:
			return nil, fmt.Sprintf("unknown module %s", uri)
		case write && !uri.IsFile():
			return nil, "target module is not a file"
		}
		e := edit{start: fe.Span.Start.Offset, end: fe.Span.End.Offset, text: fe.NewText}
		if e.start < 0 || e.end < e.start || e.end > len(src.Code) {
			return nil, "edit span out of range"
		}
		if slices.ContainsFunc(accepted[uri], e.overlaps) || slices.ContainsFunc(byURI[uri], e.overlaps) {
			return nil, fmt.Sprintf("conflicts with previously applied edits in %s", uri)
		}
		byURI[uri] = append(byURI[uri], e)
	}
	return byURI, ""
}

// overlaps: spans are half-open. Two insertions never overlap; an insertion
// overlaps a replacement that contains its position, the start included.
func (e edit) overlaps(o edit) bool {
	switch {
	case e.start == e.end && o.start == o.end:
		return false
	case e.start == e.end:
		return o.start <= e.start && e.start < o.end
	case o.start == o.end:
		return e.start <= o.start && o.start < e.end
	}
	return e.start < o.end && o.start < e.end
}

// render applies non-overlapping edits; insertions at one position keep
// their order.
func render(code string, edits []edit) string {
	edits = slices.Clone(edits)
	slices.SortStableFunc(edits, func(a, b edit) int { return cmp.Compare(a.start, b.start) })
	var b strings.Builder
	b.Grow(len(code))
	at := 0
	for _, e := range edits {
		b.WriteString(code[at:e.start])
		b.WriteString(e.text)
		at = e.end
	}
	b.WriteString(code[at:])
	return b.String()
}

func writeModule(path, text string) error {
	perm := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(text), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
