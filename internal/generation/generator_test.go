package generation_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/generation"
	"loa/internal/parser"
	"loa/internal/semantics"
	"loa/internal/semantics/checkers"
	"loa/internal/source"
	"loa/internal/stdlib"
)

// analyze parses the standard library, the module code and the REPL lines
// (in order) and fails on any diagnostic.
func analyze(t *testing.T, code string, lines ...string) *semantics.Analysis {
	t.Helper()
	std, err := stdlib.Sources()
	if err != nil {
		t.Fatalf("stdlib: %v", err)
	}
	srcs := append([]*source.Source(nil), std...)
	if code != "" {
		srcs = append(srcs, source.New(source.KindModule, source.TestURI("main.loa"), code))
	}
	for i, line := range lines {
		srcs = append(srcs, source.REPLLine(i+1, line))
	}
	trees := make(map[source.URI]*ast.Tree, len(srcs))
	for _, src := range srcs {
		tree, diags := parser.ParseSource(src)
		if len(diags) != 0 {
			t.Fatalf("%s: syntax error: %s", src.URI, diags[0].Message)
		}
		trees[src.URI] = tree
	}
	a := semantics.NewAnalysis(trees)
	if diags := checkers.Check(a); diag.HasErrors(diags) {
		t.Fatalf("%s: %s", diags[0].Primary, diags[0].Message)
	}
	return a
}

func generateAll(t *testing.T, a *semantics.Analysis) generation.Instructions {
	t.Helper()
	out, err := generation.New(a).GenerateAll()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return out
}

// methodBody returns the instructions between BeginMethod name and its
// EndMethod.
func methodBody(t *testing.T, is generation.Instructions, name string) generation.Instructions {
	t.Helper()
	for i, in := range is {
		if in.Op != generation.OpBeginMethod || in.Name != name {
			continue
		}
		for j := i + 1; j < len(is); j++ {
			if is[j].Op == generation.OpEndMethod {
				return is[i+1 : j]
			}
		}
	}
	t.Fatalf("no method %q in\n%s", name, is)
	return nil
}

// ops renders the operations and their plain operands, ignoring callsites.
func ops(is generation.Instructions) string {
	parts := make([]string, len(is))
	for i, in := range is {
		switch {
		case in.Op == generation.OpCallMethod:
			parts[i] = "CallMethod"
		case in.Op == generation.OpLoadLazy:
			parts[i] = "LoadLazy " + ops(in.Body)
		default:
			parts[i] = in.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func TestMethodBodies(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		method string
		want   string
	}{
		{
			name:   "binary send",
			code:   "class Main {\n  run -> Integer => 40 + 2.\n}\n",
			method: "Main#run",
			want:   "[LoadConstI32 2, LoadConstI32 40, CallMethod, Return 1]",
		},
		{
			name:   "parameters",
			code:   "class Main {\n  at: Int32 a and: Int32 b -> Int32 => b.\n}\n",
			method: "Main#at:and:",
			want:   "[LoadLocal 2, Return 3]",
		},
		{
			name:   "self",
			code:   "class Main {\n  me -> Main => self.\n}\n",
			method: "Main#me",
			want:   "[LoadLocal 0, Return 1]",
		},
		{
			name:   "lazy argument",
			code:   "class Main {\n  at: Int32 x -> Int32 => x + (x + 1).\n}\n",
			method: "Main#at:",
			want:   "[LoadLocal 1, LoadLazy [LoadConstI32 1, LoadLocal 1, CallMethod, ReturnLazy 1], LoadLocal 2, CallMethod, Return 2]",
		},
		{
			name:   "let expression",
			code:   "class Main {\n  run -> Int32 => (let Int32 x = 1. x + x).\n}\n",
			method: "Main#run",
			want:   "[LoadConstI32 1, LoadLocal 0, LoadLocal 1, CallMethod, DropLocal 1, Return 1]",
		},
		{
			name:   "cascade",
			code:   "class Main {\n  run -> Integer => 1 + 2; + 3.\n}\n",
			method: "Main#run",
			want:   "[LoadConstI32 1, LoadConstI32 2, LoadLocal 1, CallMethod, DropLocal 0, LoadConstI32 3, LoadLocal 1, CallMethod, DropLocal 1, Return 1]",
		},
		{
			name:   "panic",
			code:   "class Main {\n  run -> Int32 => panic \"no\".\n}\n",
			method: "Main#run",
			want:   `[LoadConstString "no", Panic, Return 1]`,
		},
		{
			name:   "variable getter",
			code:   "class Box {\n  var Int32 value.\n  init of: Int32 v => value: v.\n  get -> Int32 => value.\n}\n",
			method: "Box#get",
			want:   "[LoadLocal 0, CallMethod, Return 1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := methodBody(t, generateAll(t, analyze(t, tt.code)), tt.method)
			if got := ops(body); got != tt.want {
				t.Fatalf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestNativeMethods(t *testing.T) {
	is := generateAll(t, analyze(t, "class Main.\n"))
	body := methodBody(t, is, "Loa/Number#+")
	want := generation.Instructions{generation.CallNative(generation.NativeNumberPlus), generation.Return(0)}
	if !body.Equal(want) {
		t.Fatalf("Number#+ = %s", body)
	}
	not := methodBody(t, is, "Loa/Boolean#not")
	if len(not) != 2 || not[0].Op != generation.OpLoadConstString || not[1].Op != generation.OpPanic {
		t.Fatalf("abstract method = %s", not)
	}
}

func TestInitializer(t *testing.T) {
	a := analyze(t, `class Pair {
  var Int32 left.
  var Int32 right.
  init left: Int32 l right: Int32 r => left: l right: r.
}
`)
	is := generateAll(t, a)
	body := methodBody(t, is, "Pair#left:right:")
	want := "[LoadLocal 2, LoadLocal 2, LoadObject %s, CallMethod, CallMethod, Return 3]"
	var pair *ast.Node
	for _, c := range a.Navigator.AllClasses() {
		if name, _, _ := a.Navigator.SymbolOf(c); name == "Pair" {
			pair = c
		}
	}
	if got := ops(body); got != strings.Replace(want, "%s", pair.ID.String(), 1) {
		t.Fatalf("initializer = %s", got)
	}
	if body[3].Hash != generation.SelectorHash("left:") || body[4].Hash != generation.SelectorHash("right:") {
		t.Fatal("setters are sent in declaration order")
	}

	var sawObject, sawVariable bool
	for _, in := range is {
		if in.Op == generation.OpDeclareClass && in.ID == generation.ClassObjectID(pair.ID) {
			sawObject = in.Name == "Pair class"
		}
		if in.Op == generation.OpDeclareVariable && in.Name == "right" {
			sawVariable = true
		}
	}
	if !sawObject || !sawVariable {
		t.Fatalf("class object %v, variable %v", sawObject, sawVariable)
	}
}

func TestInheritLinks(t *testing.T) {
	a := analyze(t, "class Main.\n")
	is := generateAll(t, a)
	nav := a.Navigator
	number := nav.FindStdlibClass("Loa/Number")
	i32 := nav.FindStdlibClass("Loa/Int32")
	want := generation.InheritMethod(number.ID, i32.ID, generation.SelectorHash("+"))
	for _, in := range is {
		if in.Equal(want) {
			return
		}
	}
	t.Fatalf("no %s", want)
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		code string
		want generation.Instruction
	}{
		{"u8 -> UInt8 => 250.", generation.LoadConstInt(generation.OpLoadConstU8, big.NewInt(250))},
		{"big -> Integer => 4000000000.", generation.LoadConstInt(generation.OpLoadConstI64, big.NewInt(4000000000))},
		{"nat -> Natural => 7.", generation.LoadConstInt(generation.OpLoadConstU32, big.NewInt(7))},
		{"f64 -> Float64 => 1.", generation.LoadConstF64(1)},
		{"half -> Float => 0.5.", generation.LoadConstF32(0.5)},
		{"tenth -> BigFloat => 0.1.", generation.LoadConstFBig(big.NewRat(1, 10))},
	}
	for _, tt := range tests {
		name, _, _ := strings.Cut(tt.code, " ")
		t.Run(name, func(t *testing.T) {
			is := generateAll(t, analyze(t, "class Main {\n  "+tt.code+"\n}\n"))
			body := methodBody(t, is, "Main#"+name)
			if len(body) != 2 || !body[0].Equal(tt.want) {
				t.Fatalf("got %s, want %s", body, tt.want)
			}
		})
	}
}

type recorder struct {
	types      []string
	behaviours []string
}

func (r *recorder) ShowType(t semantics.Type) { r.types = append(r.types, t.String()) }
func (r *recorder) ShowBehaviours(t semantics.Type, types *semantics.Types) {
	for _, b := range types.Behaviours(t) {
		r.behaviours = append(r.behaviours, b.Selector())
	}
}

func TestREPLLines(t *testing.T) {
	a := analyze(t, "", "let x = 40.", "x + 2.", ":t True.", ":b True.")
	r := &recorder{}
	is, err := generation.New(a).WithDirectives(r).GenerateAll()
	if err != nil {
		t.Fatal(err)
	}
	if is[len(is)-1].Op != generation.OpHalt {
		t.Fatal("program must end with Halt")
	}

	var binding ast.Id
	for i, in := range is {
		if in.Op == generation.OpStoreGlobal {
			binding = in.ID
			if is[i-1].Op != generation.OpLoadConstI32 {
				t.Fatalf("global value = %s", is[i-1])
			}
		}
	}
	if binding == ast.Null {
		t.Fatal("no StoreGlobal")
	}
	tail := is[len(is)-4:]
	if got := ops(tail); got != "[LoadConstI32 2, LoadGlobal "+binding.String()+", CallMethod, Halt]" {
		t.Fatalf("tail = %s", got)
	}
	if len(r.types) != 1 || r.types[0] != "True" {
		t.Fatalf("types = %v", r.types)
	}
	if !strings.Contains(strings.Join(r.behaviours, " "), "not") {
		t.Fatalf("behaviours = %v", r.behaviours)
	}
}

func TestGenerateModule(t *testing.T) {
	a := analyze(t, "class Main {\n  run -> Int32 => 1.\n}\n")
	is, err := generation.New(a).Generate(source.TestURI("main.loa"))
	if err != nil {
		t.Fatal(err)
	}
	if is[0].Op != generation.OpDeclareClass || is[0].Name != "Main" {
		t.Fatalf("first = %s", is[0])
	}
	if is[len(is)-1].Op == generation.OpHalt {
		t.Fatal("a single module has no Halt")
	}

	_, err = generation.New(a).Generate(source.TestURI("missing.loa"))
	if !errors.Is(err, generation.ErrTraversalFailure) {
		t.Fatalf("missing module: %v", err)
	}
}

func TestMainLine(t *testing.T) {
	std, _ := stdlib.Sources()
	code := source.New(source.KindModule, source.TestURI("main.loa"), "class Main {\n  run -> Int32 => 1.\n}\n")
	trees := make(map[source.URI]*ast.Tree)
	for _, src := range append(std, code, source.Main("Main")) {
		tree, _ := parser.ParseSource(src)
		trees[src.URI] = tree
	}
	is := generateAll(t, semantics.NewAnalysis(trees))
	tail := is[len(is)-3:]
	if tail[0].Op != generation.OpLoadObject || tail[1].Op != generation.OpCallMethod ||
		tail[1].Hash != generation.SelectorHash("run") || tail[1].Name != "main:" || tail[2].Op != generation.OpHalt {
		t.Fatalf("main line = %s", tail)
	}
}
