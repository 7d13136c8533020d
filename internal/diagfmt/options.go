package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"loa/internal/source"
)

// PathMode decides how file URIs are printed. Non-file URIs (stdlib, REPL
// lines, stdin) always print as they are.
type PathMode uint8

const (
	// PathModeAuto is relative below BaseDir and absolute elsewhere.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

var pathModeNames = [...]string{
	PathModeAuto:     "auto",
	PathModeAbsolute: "absolute",
	PathModeRelative: "relative",
	PathModeBasename: "basename",
}

func (m PathMode) String() string {
	if int(m) < len(pathModeNames) {
		return pathModeNames[m]
	}
	return fmt.Sprintf("PathMode(%d)", m)
}

// ParsePathMode reads the value of --paths.
func ParsePathMode(s string) (PathMode, error) {
	for m, name := range pathModeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return PathMode(m), nil
		}
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q (must be %s)", s, strings.Join(pathModeNames[:], ", "))
}

// Show renders uri for output.
func (m PathMode) Show(uri source.URI, baseDir string) string {
	if !uri.IsFile() {
		return uri.String()
	}
	p := uri.Path()
	switch m {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	case PathModeRelative:
		if rel, err := filepath.Rel(baseDir, p); baseDir != "" && err == nil {
			p = rel
		}
	case PathModeBasename:
		return filepath.Base(p)
	default:
		return uri.Display(baseDir)
	}
	return filepath.ToSlash(p)
}

type PrettyOpts struct {
	Color    bool
	Context  int8 // строки контекста вокруг primary span
	PathMode PathMode
	BaseDir  string
	Width    uint8 // 0 - без обрезки
	// ShowNotes prints the secondary locations of every diagnostic.
	ShowNotes bool
	ShowFixes bool
}

type JSONOpts struct {
	IncludePositions bool // line/character рядом с байтовыми смещениями
	PathMode         PathMode
	BaseDir          string
	Max              int // режет только вывод, Bag не трогает
	IncludeNotes     bool
	IncludeFixes     bool
}
