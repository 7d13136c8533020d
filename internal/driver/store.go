package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"loa/internal/bytecode"
	"loa/internal/diag"
	"loa/internal/generation"
	"loa/internal/project"
)

// storeSchema меняется вместе с форматом entry или bytecode.
const storeSchema uint16 = 2

const entryExt = ".mp"

// ErrCorruptEntry wraps failures to decode a stored program.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Store keeps compiled programs on disk, one msgpack file per fingerprint.
// Only programs without errors are stored, with their warnings. Writers go
// through a temp file and a rename, so readers never see half an entry.
type Store struct {
	dir string
}

type entry struct {
	Schema   uint16            `msgpack:"schema"`
	Key      project.Digest    `msgpack:"key"`
	Program  []byte            `msgpack:"program"`
	Warnings []diag.Diagnostic `msgpack:"warnings"`
	Stored   time.Time         `msgpack:"stored"`
}

// OpenStore opens the per-user store of app under the OS cache directory.
func OpenStore(app string) (*Store, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(base, app))
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// file раскладывает записи по подкаталогам из первых двух hex-символов.
func (s *Store) file(key project.Digest) string {
	name := hex.EncodeToString(key[:])
	return filepath.Join(s.dir, "programs", name[:2], name+entryExt)
}

// Load returns the program stored under key. A missing entry, an entry of
// another schema and a hash collision are misses without error; undecodable
// files are misses with ErrCorruptEntry.
func (s *Store) Load(key project.Digest) (generation.Instructions, []diag.Diagnostic, bool, error) {
	data, err := os.ReadFile(s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, nil, false, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}
	if e.Schema != storeSchema || e.Key != key {
		return nil, nil, false, nil
	}
	is, err := bytecode.Unmarshal(e.Program)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}
	return is, e.Warnings, true, nil
}

// Save replaces whatever was stored under key.
func (s *Store) Save(key project.Digest, is generation.Instructions, warnings []diag.Diagnostic) error {
	program, err := bytecode.Marshal(is)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(&entry{
		Schema:   storeSchema,
		Key:      key,
		Program:  program,
		Warnings: warnings,
		Stored:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	dst := s.file(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Clean removes every entry and reports how many there were. Leftover temp
// files are removed too but not counted.
func (s *Store) Clean() (int, error) {
	root := filepath.Join(s.dir, "programs")
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Ext(path) == entryExt {
			n++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}
	if err := os.RemoveAll(root); err != nil {
		return 0, err
	}
	return n, nil
}
