package diag

import (
	"cmp"
	"slices"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit. Zero or negative limits mean the
// uint16 maximum; loa.toml never asks for more.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(max int) *Bag {
	capped, err := safecast.Conv[uint16](max)
	if err != nil || max <= 0 {
		capped = ^uint16(0)
	}
	return &Bag{items: make([]Diagnostic, 0, min(int(capped), 64)), max: capped}
}

// Add возвращает false, если лимит уже исчерпан.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// AddAll adds in order and stops at the limit.
func (b *Bag) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		if !b.Add(d) {
			return
		}
	}
}

func (b *Bag) HasErrors() bool { return HasErrors(b.items) }

func (b *Bag) HasWarnings() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevWarning })
}

func (b *Bag) Len() int { return len(b.items) }

// Items shares the bag's backing array; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) Sort() { Sort(b.items) }

// Sort orders by uri, start, end, then errors before warnings, then code and
// message, so output is stable across parallel runs.
func Sort(items []Diagnostic) {
	slices.SortStableFunc(items, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Primary.URI(), b.Primary.URI()),
			cmp.Compare(a.Primary.Start.Offset, b.Primary.Start.Offset),
			cmp.Compare(a.Primary.End.Offset, b.Primary.End.Offset),
			cmp.Compare(b.Severity, a.Severity),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Message, b.Message),
		)
	})
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(items []Diagnostic) bool {
	return slices.ContainsFunc(items, Diagnostic.IsError)
}
