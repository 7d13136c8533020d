package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"loa/internal/diag"
	"loa/internal/project"
	"loa/internal/source"
	"loa/internal/vm"
)

// fixture is testdata/fixtures/<name>/fixture.yml. Expected diagnostics are
// not listed here: every `// @ text` comment in a .loa file expects one
// diagnostic on its line whose message contains text.
type fixture struct {
	Description string `yaml:"description"`
	// Main is the text of the bootstrap line.
	Main string `yaml:"main"`
	// MainClass sends `run` to the named class instead.
	MainClass string `yaml:"main_class"`
	Expected  struct {
		Success bool   `yaml:"success"`
		Stdout  string `yaml:"stdout"`
		// Kind is the runtime kind of the result, e.g. I64.
		Kind  string `yaml:"kind"`
		Panic string `yaml:"panic"`
	} `yaml:"expected"`
}

type expectation struct {
	uri  source.URI
	line int
	text string
}

func loadFixture(t *testing.T, dir string) fixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "fixture.yml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return f
}

func expectations(t *testing.T, srcs []*source.Source) []expectation {
	t.Helper()
	var out []expectation
	for _, src := range srcs {
		if !src.URI.IsFile() {
			continue
		}
		for line := 1; line <= src.LineCount(); line++ {
			_, text, ok := strings.Cut(src.Line(line), "// @ ")
			if ok {
				out = append(out, expectation{uri: src.URI, line: line, text: strings.TrimSpace(text)})
			}
		}
	}
	return out
}

func TestFixtures(t *testing.T) {
	dirs, err := filepath.Glob(filepath.Join("testdata", "fixtures", "*"))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		t.Fatal("no fixtures")
	}
	for _, dir := range dirs {
		t.Run(filepath.Base(dir), func(t *testing.T) {
			runFixture(t, dir)
		})
	}
}

func runFixture(t *testing.T, dir string) {
	t.Helper()
	f := loadFixture(t, dir)

	root, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := project.Default(root)
	in := Inputs{}
	switch {
	case f.MainClass != "":
		cfg.Main = f.MainClass
		in.Main = true
	case f.Main != "":
		in.Extra = append(in.Extra, source.New(source.KindMain, source.MainURI, f.Main))
	}
	srcs, err := Collect(cfg, in)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	ctx := context.Background()
	res, err := Build(ctx, srcs, OptionsFor(cfg))
	if err != nil && !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("build: %v", err)
	}
	checkDiagnostics(t, res.Diagnostics, expectations(t, srcs))
	if res.HasErrors() {
		if res.Instructions != nil {
			t.Fatal("instructions generated despite errors")
		}
		if f.Expected.Success {
			t.Fatalf("unexpected errors:\n%s", diag.FormatGolden(res.Diagnostics, root))
		}
		return
	}

	rt := vm.NewTestRuntime()
	out, err := Run(ctx, res.Instructions, rt, nil)
	if f.Expected.Panic != "" {
		var p *vm.Panic
		if !errors.As(err, &p) {
			t.Fatalf("expected panic %q, got %v", f.Expected.Panic, err)
		}
		if !strings.Contains(p.Message, f.Expected.Panic) || len(rt.Panics) != 1 {
			t.Fatalf("panic = %q (%d reported)", p.Message, len(rt.Panics))
		}
		return
	}
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !f.Expected.Success {
		t.Fatal("fixture expected to fail")
	}
	if out.Value == nil {
		t.Fatal("program left no value")
	}
	if got := out.Value.String(); got != f.Expected.Stdout {
		t.Fatalf("stdout = %q, want %q", got, f.Expected.Stdout)
	}
	if f.Expected.Kind != "" && out.Value.Kind().String() != f.Expected.Kind {
		t.Fatalf("kind = %s, want %s", out.Value.Kind(), f.Expected.Kind)
	}
}

func checkDiagnostics(t *testing.T, got []diag.Diagnostic, want []expectation) {
	t.Helper()
	used := make([]bool, len(got))
	for _, w := range want {
		found := false
		for i, d := range got {
			if used[i] || d.Primary.URI() != w.uri || d.Primary.Start.Line != w.line {
				continue
			}
			if strings.Contains(d.Message, w.text) {
				used[i], found = true, true
				break
			}
		}
		if !found {
			t.Errorf("%s:%d: missing diagnostic %q", w.uri, w.line, w.text)
		}
	}
	for i, d := range got {
		if !used[i] {
			t.Errorf("unexpected diagnostic %s", d)
		}
	}
}
