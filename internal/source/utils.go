package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Load reads a module from disk, strips the BOM and normalizes CRLF.
func Load(path string) (*Source, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return New(KindModule, FileURI(path), clean(content)), nil
}

// Read takes a whole program from r, usually a pipe.
func Read(r io.Reader) (*Source, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return New(KindStdin, StdinURI, clean(content)), nil
}

// Open is Load, except that "-" reads stdin.
func Open(path string, stdin io.Reader) (*Source, error) {
	if path == "-" {
		return Read(stdin)
	}
	return Load(path)
}

func clean(content []byte) string {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return string(content)
}

// Glob walks root and returns every file whose slash-separated relative path
// matches pattern. A `**/` segment matches any number of directories.
func Glob(root, pattern string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if matchGlob(pattern, filepath.ToSlash(rel)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, root, err)
	}
	slices.Sort(out)
	return out, nil
}

func matchGlob(pattern, name string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		if matchGlob(rest, name) {
			return true
		}
		if _, tail, found := strings.Cut(name, "/"); found {
			return matchGlob(pattern, tail)
		}
		return false
	}
	pHead, pTail, pMore := strings.Cut(pattern, "/")
	nHead, nTail, nMore := strings.Cut(name, "/")
	if pMore != nMore {
		return false
	}
	ok, err := filepath.Match(pHead, nHead)
	if err != nil || !ok {
		return false
	}
	if !pMore {
		return true
	}
	return matchGlob(pTail, nTail)
}

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- sources are far below 4GiB
		}
	}
	return out
}
