package stdlib_test

import (
	"os"
	"path/filepath"
	"testing"

	"loa/internal/parser"
	"loa/internal/stdlib"
)

func TestEmbeddedSourcesParse(t *testing.T) {
	srcs, err := stdlib.Sources()
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(srcs) == 0 {
		t.Fatal("embedded stdlib is empty")
	}
	for _, src := range srcs {
		if !src.URI.IsStdlib() {
			t.Errorf("%s is not a stdlib URI", src.URI)
		}
		tree, diags := parser.ParseSource(src)
		if len(diags) != 0 {
			t.Errorf("%s: %d diagnostics, first: %s", src.URI, len(diags), diags[0].Message)
		}
		ns, ok := tree.Namespace()
		if !ok || ns != "Loa" {
			t.Errorf("%s: namespace = %q", src.URI, ns)
		}
	}
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Object.loa"), []byte("namespace Loa.\n\nexport class Object.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	srcs, err := stdlib.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(srcs) != 1 || srcs[0].URI != "loa:stdlib/Object.loa" {
		t.Fatalf("unexpected sources: %v", srcs)
	}
}

func TestFromDirMissing(t *testing.T) {
	if _, err := stdlib.FromDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing sdk directory")
	}
}
