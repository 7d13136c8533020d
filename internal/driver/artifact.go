package driver

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loa/internal/bytecode"
	"loa/internal/generation"
)

// BytecodeExt is the extension of compiled programs.
const BytecodeExt = ".loavmc"

// WriteBytecode encodes a program into path, replacing it atomically.
func WriteBytecode(path string, is generation.Instructions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".loavmc-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	w := bufio.NewWriter(f)
	if err := bytecode.Encode(w, is); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadBytecode decodes a program written by WriteBytecode.
func ReadBytecode(path string) (generation.Instructions, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	is, err := bytecode.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return is, nil
}

// OutputPath picks the .loavmc path for a program named name under dir.
func OutputPath(dir, name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "main"
	}
	return filepath.Join(dir, name+BytecodeExt)
}
