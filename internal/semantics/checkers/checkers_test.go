package checkers_test

import (
	"slices"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/parser"
	"loa/internal/semantics"
	"loa/internal/semantics/checkers"
	"loa/internal/source"
	"loa/internal/stdlib"
)

// check parses the modules (name → code) together with the standard library
// and runs every checker.
func check(t *testing.T, modules map[string]string) []diag.Diagnostic {
	t.Helper()
	std, err := stdlib.Sources()
	if err != nil {
		t.Fatalf("stdlib: %v", err)
	}
	srcs := append([]*source.Source(nil), std...)
	for name, code := range modules {
		srcs = append(srcs, source.New(source.KindModule, source.TestURI(name), code))
	}
	trees := make(map[source.URI]*ast.Tree, len(srcs))
	for _, src := range srcs {
		tree, diags := parser.ParseSource(src)
		if len(diags) != 0 {
			t.Fatalf("%s: syntax error: %s", src.URI, diags[0].Message)
		}
		trees[src.URI] = tree
	}
	return checkers.Check(semantics.NewAnalysis(trees))
}

func checkOne(t *testing.T, code string) []diag.Diagnostic {
	t.Helper()
	return check(t, map[string]string{"main.loa": code})
}

// headlines returns the first line of every message, sorted.
func headlines(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i], _, _ = strings.Cut(d.Message, "\n")
	}
	slices.Sort(out)
	return out
}

func expect(t *testing.T, diags []diag.Diagnostic, want ...string) {
	t.Helper()
	got := headlines(diags)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("diagnostics:\n  %s\nwant:\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

func TestStdlibIsClean(t *testing.T) {
	expect(t, checkOne(t, "class Main.\n"))
}

func TestCleanProgram(t *testing.T) {
	expect(t, checkOne(t, `class Counter {
  var Integer count.
  init count: Integer c => count: c.
  next -> Integer => count + 1.
}

class Main {
  run -> Integer => (Counter count: 41) next.
  yes -> Boolean => True not | False.
}
`))
}

func TestCheckers(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{
			name: "duplicate declarations",
			code: `class A.
class A.
class Main {
  at: Integer x and: Integer x -> Integer => 1.
}
`,
			want: []string{
				"`A` is defined 2 times in this scope.",
				"`A` is defined 2 times in this scope.",
				"`x` is defined 2 times in this scope.",
				"`x` is defined 2 times in this scope.",
			},
		},
		{
			name: "undefined reference",
			code: "class Main {\n  run => nothing.\n}\n",
			want: []string{"`nothing` is undefined."},
		},
		{
			name: "undefined type reference",
			code: "class Main {\n  run -> Nope => panic \"no\".\n}\n",
			want: []string{"`Nope` is undefined."},
		},
		{
			name: "undefined behaviour",
			code: "class Main {\n  run => 1 frobnicate.\n}\n",
			want: []string{"`Integer` doesn't respond to `frobnicate`."},
		},
		{
			name: "invalid inherit",
			code: `class Shape {
  area -> Number.
}
class Broken {
  is Shape.
  area -> String => "broken".
}
`,
			want: []string{"`Broken` doesn't act as `Shape` because:"},
		},
		{
			name: "type assignment",
			code: `class Main {
  run -> String => 5.
  send -> Integer => self take: "no".
  take: Integer i -> Integer => i.
}

let Int32 x = "text".
`,
			want: []string{
				"`Integer` cannot act as `String`",
				"`String` cannot act as `Integer`",
				"`String` cannot act as `Int32`",
			},
		},
		{
			name: "variance",
			code: `class Sink<in T> {
  give -> T.
}
class Source<out T> {
  take: T v -> Integer => 1.
}
`,
			want: []string{
				"`T` is declared as `in` and cannot be used in output position.",
				"`T` is declared as `out` and cannot be used in input position.",
			},
		},
		{
			name: "number literals",
			code: `class Main {
  small -> Int8 => 300.
  negative -> UInt8 => -1.
  float -> Int32 => 1.5.
  precise -> Float32 => 0.1234567891234.
  fine -> Float32 => 0.5.
}

let UInt8 byte = 256.
`,
			want: []string{
				"`Int8` must not be greater than 127.",
				"`UInt8` must not be less than 0.",
				"`Int32` is not a valid type for this literal.",
				"`0.1234567891234` is too precise to be coerced to Float32 without losing precision.",
				"`UInt8` must not be greater than 255.",
			},
		},
		{
			name: "contextual literal receivers",
			code: `class Main {
  send -> Int32 => 1 + 2.
  cascade -> Int32 => 1 + 2; + 10.
}

let Int32 x = 1 + 2; + 10.
`,
		},
		{
			name: "private method",
			code: `class Vault {
  private secret -> Integer => 1.
  peek -> Integer => self secret.
}
class Main {
  run -> Integer => Vault secret.
}
`,
			want: []string{"`secret` is a private method of `Vault`."},
		},
		{
			name: "initializers",
			code: `class Pair {
  var Integer left.
  var Integer right.
  init left: Integer l => left: l.
  init both: Integer b => left: b right: b middle: b.
}
`,
			want: []string{
				"Initializer doesn't initialize `right`.",
				"`middle` is not a variable of `Pair`.",
			},
		},
		{
			name: "type argument count",
			code: `class Box<T>.
class Main {
  none -> Box => panic "".
  two -> Box<Integer, Integer> => panic "".
  plain -> Integer<String> => panic "".
}
`,
			want: []string{
				"`Box` takes 1 type arguments, but was provided none.",
				"`Box` takes 1 type arguments, but was provided 2.",
				"`Integer` takes no type arguments, but was provided 1.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, checkOne(t, tt.code), tt.want...)
		})
	}
}

func TestInvalidImports(t *testing.T) {
	diags := check(t, map[string]string{
		"geo.loa": `namespace Geo.

export class Point.
class Hidden.
`,
		"main.loa": `import Geo/Hidden.
import Geo/Nope.
import Geo/Point.
`,
	})
	expect(t, diags, "`Geo/Hidden` is not exported.", "`Geo/Nope` is undefined.")
	for _, d := range diags {
		if d.Code != diag.UnexportedImport && d.Code != diag.UndefinedImport {
			t.Fatalf("unexpected code %s", d.Code.ID())
		}
	}
}

func TestInheritExplainsOverride(t *testing.T) {
	diags := checkOne(t, `class Shape {
  area -> Number.
}
class Broken {
  is Shape.
  area -> String => "broken".
}
`)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d", len(diags))
	}
	msg := diags[0].Message
	for _, part := range []string{
		"it doesn't respond to `area` like `Shape` would",
		"`Broken area -> String` cannot act as `Shape area -> Number`",
		"because `String` cannot act as `Number`",
	} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q lacks %q", msg, part)
		}
	}
}

func TestFloatWarningSeverity(t *testing.T) {
	diags := checkOne(t, "class Main {\n  f -> Float64 => 0.1000000000000000000001.\n}\n")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d", len(diags))
	}
	if diags[0].Severity != diag.SevWarning {
		t.Fatalf("severity = %s", diags[0].Severity)
	}
	if diag.HasErrors(diags) {
		t.Fatal("a precision warning is not an error")
	}
	fixes := diags[0].Fixes
	if len(fixes) != 1 || len(fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}
	if edit := fixes[0].Edits[0]; edit.NewText != "0.1" || !edit.Span.Equal(diags[0].Primary) {
		t.Fatalf("edit = %+v", edit)
	}
}

func TestRunSubset(t *testing.T) {
	p := map[string]string{"main.loa": "class A.\nclass A.\nclass Main {\n  run => nothing.\n}\n"}
	all := check(t, p)
	if len(all) != 3 {
		t.Fatalf("all checkers: %d diagnostics", len(all))
	}
	var only []checkers.Checker
	for _, c := range checkers.All() {
		if c.Name == "undefined-reference" {
			only = append(only, c)
		}
	}
	if len(only) != 1 {
		t.Fatal("undefined-reference checker is missing")
	}

	std, _ := stdlib.Sources()
	trees := make(map[source.URI]*ast.Tree)
	for _, src := range append(std, source.New(source.KindModule, source.TestURI("main.loa"), p["main.loa"])) {
		tree, _ := parser.ParseSource(src)
		trees[src.URI] = tree
	}
	r := &diag.SliceReporter{}
	checkers.Run(semantics.NewAnalysis(trees), r, only...)
	expect(t, r.Items, "`nothing` is undefined.")
}
