package source

import (
	"os"
	"strings"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

func TestLocationAt(t *testing.T) {
	src := New(KindModule, TestURI("a"), "ab\ncd\n\nπx")

	tests := []struct {
		offset    int
		line      int
		character int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{6, 3, 1},
		{7, 4, 1},
		{9, 4, 2}, // π занимает два байта, но одну UTF-16 единицу
		{100, 4, 3},
	}
	for _, tt := range tests {
		loc := src.LocationAt(tt.offset)
		if loc.Line != tt.line || loc.Character != tt.character {
			t.Errorf("LocationAt(%d) = %d:%d, want %d:%d", tt.offset, loc.Line, loc.Character, tt.line, tt.character)
		}
	}
}

func TestOffsetAtInvertsLocationAt(t *testing.T) {
	src := New(KindModule, TestURI("a"), "class A.\n  😀 x\nlast")
	for off := 0; off <= src.Len(); off++ {
		if off < src.Len() && !utf8.RuneStart(src.Code[off]) {
			continue
		}
		loc := src.LocationAt(off)
		if back := src.OffsetAt(loc.Line, loc.Character); back != off {
			t.Fatalf("OffsetAt(%d,%d) = %d, want %d", loc.Line, loc.Character, back, off)
		}
	}
	if got := src.OffsetAt(2, 3); got != 11 {
		t.Fatalf("OffsetAt(2,3) = %d, want 11", got)
	}
}

func TestLine(t *testing.T) {
	src := New(KindModule, TestURI("a"), "one\ntwo\n")
	if src.LineCount() != 3 {
		t.Fatalf("LineCount = %d", src.LineCount())
	}
	for i, want := range []string{"one", "two", ""} {
		if got := src.Line(i + 1); got != want {
			t.Errorf("Line(%d) = %q, want %q", i+1, got, want)
		}
	}
	if src.Line(0) != "" || src.Line(9) != "" {
		t.Error("out of range lines must be empty")
	}
}

func TestSpanEqualIgnoresLineAndCharacter(t *testing.T) {
	a := Span{Start: Location{URI: "x", Offset: 1, Line: 1, Character: 2}, End: Location{URI: "x", Offset: 4}}
	b := Span{Start: Location{URI: "x", Offset: 1, Line: 9, Character: 9}, End: Location{URI: "x", Offset: 4, Line: 3}}
	if !a.Equal(b) {
		t.Fatal("spans with same offsets must be equal")
	}
	c := b
	c.Start.URI = "y"
	if a.Equal(c) {
		t.Fatal("spans of different sources must differ")
	}
}

func TestSpanThroughAndContains(t *testing.T) {
	src := New(KindModule, TestURI("a"), "hello world")
	left := src.Span(0, 5)
	right := src.Span(6, 11)
	joined := left.Through(right)
	if joined.Start.Offset != 0 || joined.End.Offset != 11 {
		t.Fatalf("Through = %v", joined)
	}
	if !joined.Contains(src.LocationAt(7)) {
		t.Error("joined span must contain offset 7")
	}
	if left.Contains(src.LocationAt(7)) {
		t.Error("left span must not contain offset 7")
	}
	if src.Slice(right) != "world" {
		t.Errorf("Slice = %q", src.Slice(right))
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.loa")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFclass A.\r\nclass B.\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	src, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Code != "class A.\nclass B.\n" {
		t.Fatalf("Code = %q", src.Code)
	}
	if !src.URI.IsFile() || src.Kind != KindModule {
		t.Fatalf("unexpected identity %s %s", src.URI, src.Kind)
	}
}

func TestOpenDashReadsStdin(t *testing.T) {
	src, err := Open("-", strings.NewReader("\xEF\xBB\xBF1 + 2.\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if src.URI != StdinURI || src.Kind != KindStdin || src.Code != "1 + 2.\n" {
		t.Fatalf("stdin source = %s %s %q", src.URI, src.Kind, src.Code)
	}
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.loa", "x/b.loa", "x/y/c.loa", "x/d.txt", ".hidden/e.loa"} {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Glob(dir, "**/*.loa")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("Glob found %v", got)
	}
	got, err = Glob(dir, "x/*.loa")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "b.loa" {
		t.Fatalf("Glob x/*.loa found %v", got)
	}
}

func TestMainSource(t *testing.T) {
	src := Main("App")
	if src.Code != "App run." || src.Kind != KindMain || src.URI != MainURI {
		t.Fatalf("unexpected main source %+v", src)
	}
	qualified := Main("App/Main")
	if qualified.Code != "import App/Main as Main.\n\nMain run." {
		t.Fatalf("unexpected qualified bootstrap %q", qualified.Code)
	}
}
