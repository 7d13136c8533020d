package source

import (
	"fmt"
)

// Location is a point in a source. Line and Character are 1-based,
// Offset is a 0-based byte offset. Character counts UTF-16 code units.
type Location struct {
	URI       URI
	Offset    int
	Line      int
	Character int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.URI, l.Line, l.Character)
}

// Display is String with the URI shortened by URI.Display.
func (l Location) Display(baseDir string) string {
	return fmt.Sprintf("%s:%d:%d", l.URI.Display(baseDir), l.Line, l.Character)
}

// Before reports whether l precedes other in the same source.
func (l Location) Before(other Location) bool {
	return l.Offset < other.Offset
}

// Span is the range [Start, End) of a source.
type Span struct {
	Start Location
	End   Location
}

// URI returns the identity of the source the span belongs to.
func (s Span) URI() URI {
	return s.Start.URI
}

// Equal compares spans by URI and offsets only; line and character are derived.
func (s Span) Equal(other Span) bool {
	return s.Start.URI == other.Start.URI &&
		s.Start.Offset == other.Start.Offset &&
		s.End.Offset == other.End.Offset
}

func (s Span) Empty() bool {
	return s.Start.Offset == s.End.Offset
}

func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Through returns the span from the start of s to the end of other.
func (s Span) Through(other Span) Span {
	if s.Start.URI != other.Start.URI {
		return s
	}
	out := s
	if other.Start.Offset < out.Start.Offset {
		out.Start = other.Start
	}
	if other.End.Offset > out.End.Offset {
		out.End = other.End
	}
	return out
}

// Contains reports whether the location falls inside the span.
// The end boundary is inclusive so that a cursor right after a token still hits it.
func (s Span) Contains(l Location) bool {
	if l.URI != s.Start.URI {
		return false
	}
	return s.Start.Offset <= l.Offset && l.Offset <= s.End.Offset
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.URI, s.Start.Line, s.Start.Character, s.End.Line, s.End.Character)
}
