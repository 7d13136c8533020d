package source

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Kind distinguishes where a source came from.
type Kind uint8

const (
	// KindModule is a module loaded from disk or the standard library.
	KindModule Kind = iota
	// KindStdin is a program read from standard input.
	KindStdin
	// KindREPLLine is a single line entered in the REPL.
	KindREPLLine
	// KindMain is the synthetic bootstrap source sending `run` to the main class.
	KindMain
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindStdin:
		return "stdin"
	case KindREPLLine:
		return "repl"
	case KindMain:
		return "main"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Source is an immutable piece of code with an identity.
type Source struct {
	URI  URI
	Code string
	Kind Kind

	lineIdx []uint32 // offsets of '\n'
}

// New creates a source and indexes its lines.
func New(kind Kind, uri URI, code string) *Source {
	return &Source{
		URI:     uri,
		Code:    code,
		Kind:    kind,
		lineIdx: buildLineIndex([]byte(code)),
	}
}

// Main builds the bootstrap source that sends `run` to className. A
// qualified name such as `App/Main` is imported under the alias Main first.
func Main(className string) *Source {
	if strings.Contains(className, "/") {
		return New(KindMain, MainURI, "import "+className+" as Main.\n\nMain run.")
	}
	return New(KindMain, MainURI, className+" run.")
}

// REPLLine wraps a line typed into the REPL.
func REPLLine(n int, code string) *Source {
	return New(KindREPLLine, REPLURI(n), code)
}

// Len returns the size of the source in bytes.
func (s *Source) Len() int {
	return len(s.Code)
}

// LineCount returns the number of lines (at least one).
func (s *Source) LineCount() int {
	return len(s.lineIdx) + 1
}

func (s *Source) lineStart(line int) int {
	if line <= 1 {
		return 0
	}
	if line-2 >= len(s.lineIdx) {
		return len(s.Code)
	}
	return int(s.lineIdx[line-2]) + 1
}

func (s *Source) lineEnd(line int) int {
	if line-1 < len(s.lineIdx) && line >= 1 {
		return int(s.lineIdx[line-1])
	}
	return len(s.Code)
}

// Line returns the text of a 1-based line without its terminator.
func (s *Source) Line(line int) string {
	if line < 1 || line > s.LineCount() {
		return ""
	}
	return s.Code[s.lineStart(line):s.lineEnd(line)]
}

// LocationAt converts a byte offset into a full Location.
// Offsets outside the source are clamped.
func (s *Source) LocationAt(offset int) Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.Code) {
		offset = len(s.Code)
	}
	off32, err := safecast.Conv[uint32](offset)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	// бинпоиск: число переводов строки строго до offset
	line := sort.Search(len(s.lineIdx), func(i int) bool { return s.lineIdx[i] >= off32 }) + 1
	start := s.lineStart(line)
	return Location{
		URI:       s.URI,
		Offset:    offset,
		Line:      line,
		Character: utf16Len(s.Code[start:offset]) + 1,
	}
}

// OffsetAt converts a 1-based line and UTF-16 character back into a byte offset.
func (s *Source) OffsetAt(line, character int) int {
	if line < 1 {
		return 0
	}
	if line > s.LineCount() {
		return len(s.Code)
	}
	start, end := s.lineStart(line), s.lineEnd(line)
	units := 0
	for i, r := range s.Code[start:end] {
		if units >= character-1 {
			return start + i
		}
		units += utf16.RuneLen(r)
	}
	return end
}

// Span builds a span over the byte range [start, end).
func (s *Source) Span(start, end int) Span {
	return Span{Start: s.LocationAt(start), End: s.LocationAt(end)}
}

// EndLocation is the location right after the last byte.
func (s *Source) EndLocation() Location {
	return s.LocationAt(len(s.Code))
}

// Slice returns the text covered by a span of this source.
func (s *Source) Slice(span Span) string {
	start, end := span.Start.Offset, span.End.Offset
	if start < 0 || end > len(s.Code) || start > end {
		return ""
	}
	return s.Code[start:end]
}

func utf16Len(text string) int {
	n := 0
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
