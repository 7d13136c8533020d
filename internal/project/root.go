package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const ManifestName = "loa.toml"

// Location is where a project sits on disk. Manifest is empty when no
// loa.toml lies above the start; Root is then the start directory itself.
type Location struct {
	Root     string
	Manifest string
}

func (l Location) HasManifest() bool { return l.Manifest != "" }

// Locate climbs from start towards the filesystem root looking for
// loa.toml. start may name a file, its directory is used instead.
func Locate(start string) (Location, error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return Location{}, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if st, err := os.Stat(dir); err == nil && !st.IsDir() {
		dir = filepath.Dir(dir)
	}
	for cur := dir; ; {
		candidate := filepath.Join(cur, ManifestName)
		switch _, err := os.Stat(candidate); {
		case err == nil:
			return Location{Root: cur, Manifest: candidate}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return Location{}, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		up := filepath.Dir(cur)
		if up == cur {
			return Location{Root: dir}, nil
		}
		cur = up
	}
}
