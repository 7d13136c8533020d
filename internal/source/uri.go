package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// URI identifies a Source. Two sources with the same URI are two versions
// of the same document.
type URI string

const (
	// StdinURI names code read from standard input.
	StdinURI URI = "stdin:"
	// MainURI names the synthetic bootstrap source.
	MainURI URI = "main:"

	fileScheme   = "file://"
	stdlibScheme = "loa:stdlib/"
	replScheme   = "repl:"
	testScheme   = "test:"
)

// FileURI builds a URI for an on-disk module.
func FileURI(path string) URI {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return URI(fileScheme + filepath.ToSlash(path))
}

// StdlibURI builds a URI for a module of the embedded standard library.
func StdlibURI(name string) URI {
	return URI(stdlibScheme + name)
}

// REPLURI builds a URI for the n-th line typed into the REPL.
func REPLURI(n int) URI {
	return URI(fmt.Sprintf("%s%d", replScheme, n))
}

// TestURI builds a URI for in-memory test sources.
func TestURI(name string) URI {
	return URI(testScheme + name)
}

func (u URI) String() string { return string(u) }

// IsStdlib reports whether the URI points into the standard library.
func (u URI) IsStdlib() bool {
	return strings.HasPrefix(string(u), stdlibScheme)
}

// IsFile reports whether the URI points to a file on disk.
func (u URI) IsFile() bool {
	return strings.HasPrefix(string(u), fileScheme)
}

// Path returns the filesystem path for file URIs and the raw text otherwise.
func (u URI) Path() string {
	if u.IsFile() {
		return filepath.FromSlash(strings.TrimPrefix(string(u), fileScheme))
	}
	return string(u)
}

// Display формирует короткое имя для вывода диагностик.
func (u URI) Display(baseDir string) string {
	if !u.IsFile() {
		return string(u)
	}
	p := u.Path()
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
