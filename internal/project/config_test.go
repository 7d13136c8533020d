package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(SDKEnv, "")
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Manifest != "" || cfg.Sources != DefaultSources || cfg.Main != DefaultMain || cfg.MaxDiagnostics != DefaultMaxDiagnostics || cfg.SDK != "" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFindsManifestUpwards(t *testing.T) {
	t.Setenv(SDKEnv, "")
	root := t.TempDir()
	writeManifest(t, root, `
[package]
name = "example"

[build]
main = "App"
max_diagnostics = 5

[sdk]
path = "sdk"
`)
	sub := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != root || cfg.Name != "example" || cfg.Main != "App" || cfg.MaxDiagnostics != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Sources != DefaultSources {
		t.Fatalf("sources = %q", cfg.Sources)
	}
	if cfg.SDK != filepath.Join(root, "sdk") {
		t.Fatalf("sdk = %q", cfg.SDK)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"unknown key", "[build]\nmian = \"Main\"\n", ErrUnknownKey},
		{"negative limit", "[build]\nmax_diagnostics = -1\n", ErrInvalidValue},
		{"empty sources", "[build]\nsources = \"\"\n", ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.text)
			if _, err := LoadFile(path); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	path := writeManifest(t, t.TempDir(), "[build\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("malformed TOML must fail")
	}
}

func TestResolveSDKPrecedence(t *testing.T) {
	env := t.TempDir()
	t.Setenv(SDKEnv, env)

	cfg := Default(t.TempDir())
	cfg.ResolveSDK("")
	if cfg.SDK != env {
		t.Fatalf("env: %q", cfg.SDK)
	}

	fromFile := Default(t.TempDir())
	fromFile.SDK = "/opt/loa/std"
	fromFile.ResolveSDK("")
	if fromFile.SDK != "/opt/loa/std" {
		t.Fatalf("file: %q", fromFile.SDK)
	}

	flag := t.TempDir()
	fromFile.ResolveSDK(flag)
	if fromFile.SDK != flag {
		t.Fatalf("flag: %q", fromFile.SDK)
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a, b := Of([]byte("a")), Of([]byte("b"))
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("Combine must depend on order")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatal("Combine must be deterministic")
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	manifest := writeManifest(t, root, "")
	file := filepath.Join(root, "main.loa")
	if err := os.WriteFile(file, []byte("Main extend []"), 0o600); err != nil {
		t.Fatal(err)
	}

	loc, err := Locate(file)
	if err != nil {
		t.Fatal(err)
	}
	if loc.Root != root || loc.Manifest != manifest || !loc.HasManifest() {
		t.Fatalf("from file = %+v", loc)
	}

	bare := t.TempDir()
	loc, err = Locate(bare)
	if err != nil {
		t.Fatal(err)
	}
	if loc.HasManifest() || loc.Root != bare {
		t.Fatalf("bare = %+v", loc)
	}
}
