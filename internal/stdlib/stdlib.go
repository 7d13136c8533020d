// Package stdlib provides the embedded Loa standard library (namespace Loa).
package stdlib

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"loa/internal/source"
)

//go:embed loa/*.loa
var stdlibFS embed.FS

// FS exposes the embedded library sources.
func FS() fs.FS {
	sub, err := fs.Sub(stdlibFS, "loa")
	if err != nil {
		panic(err)
	}
	return sub
}

// Sources loads every module of the embedded library, ordered by file name.
func Sources() ([]*source.Source, error) {
	return fromFS(FS())
}

// FromDir loads a standard library override from an SDK directory. Module
// URIs keep the stdlib scheme so the library is still recognised as such.
func FromDir(dir string) ([]*source.Source, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("sdk %s: %w", dir, err)
	}
	return fromFS(os.DirFS(filepath.Clean(dir)))
}

// Load picks FromDir when sdk is set and the embedded library otherwise.
func Load(sdk string) ([]*source.Source, error) {
	if sdk == "" {
		return Sources()
	}
	return FromDir(sdk)
}

func fromFS(fsys fs.FS) ([]*source.Source, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".loa") {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read stdlib: %w", err)
	}
	slices.Sort(names)

	out := make([]*source.Source, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read stdlib %s: %w", name, err)
		}
		out = append(out, source.New(source.KindModule, source.StdlibURI(path.Clean(name)), string(data)))
	}
	return out, nil
}
