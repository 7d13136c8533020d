package semantics_test

import (
	"testing"

	"loa/internal/ast"
	"loa/internal/semantics"
)

const shapes = `class Point {
  x -> Integer => 1.
  y -> Integer => 2.
}

class Main {
  run -> Point => Point.
  sum: Integer a and: Integer b -> Integer => a + b.
  twice: Integer a -> Integer => let Integer b = a. b + b.
}
`

func TestFindDeclarationInScope(t *testing.T) {
	p := analyzeOne(t, shapes)
	nav := p.analysis.Navigator

	ref := p.main("Point.\n", 0, "ReferenceExpression")
	decl := nav.FindDeclaration(ref, semantics.DeclValue)
	if decl == nil {
		t.Fatal("Point is unresolved")
	}
	if name, _, _ := nav.SymbolOf(decl); name != "Point" || ast.KindName(decl.Kind) != "Class" {
		t.Fatalf("resolved to %s", decl)
	}

	a := p.main("a + b", 0, "ReferenceExpression")
	param := nav.FindDeclaration(a, semantics.DeclValue)
	if param == nil || ast.KindName(param.Kind) != "ParameterPattern" {
		t.Fatalf("a resolved to %s", param)
	}
	if nav.ClosestUpwards(param, func(n *ast.Node) bool { return ast.KindName(n.Kind) == "Method" }) !=
		nav.ClosestUpwards(a, func(n *ast.Node) bool { return ast.KindName(n.Kind) == "Method" }) {
		t.Fatal("parameter resolved into another method")
	}

	b := p.main("b + b", 0, "ReferenceExpression")
	if let := nav.FindDeclaration(b, semantics.DeclValue); let == nil || ast.KindName(let.Kind) != "LetBinding" {
		t.Fatalf("b resolved to %s", let)
	}
}

func TestFindDeclarationFallsBackToStdlib(t *testing.T) {
	p := analyzeOne(t, shapes)
	nav := p.analysis.Navigator

	te := p.main("Integer", 0, "ReferenceTypeExpression")
	decl := nav.FindDeclaration(te, semantics.DeclType)
	if decl == nil {
		t.Fatal("Integer is unresolved")
	}
	qn, ok := nav.QualifiedNameOf(decl)
	if !ok || qn != "Loa/Integer" {
		t.Fatalf("qualified name = %q", qn)
	}
	if !nav.DeclarationIsExported(decl) {
		t.Fatal("stdlib class is not exported")
	}
}

func TestTypeParametersAreVisibleInClassBody(t *testing.T) {
	p := analyzeOne(t, `class Box<out T> {
  of: T v -> T => v.
}
`)
	nav := p.analysis.Navigator
	te := p.main("T v", 0, "ReferenceTypeExpression")
	decl := nav.FindDeclaration(te, semantics.DeclType)
	if decl == nil || ast.KindName(decl.Kind) != "TypeParameter" {
		t.Fatalf("T resolved to %s", decl)
	}
	if semantics.VarianceOf(decl) != ast.Out {
		t.Fatalf("variance = %v", semantics.VarianceOf(decl))
	}
	// в пространстве значений T не виден
	if nav.FindDeclarationAbove(te, "T", semantics.DeclValue) != nil {
		t.Fatal("type parameter leaked into the value namespace")
	}
}

func TestImportsAndNamespaces(t *testing.T) {
	p := analyze(t, map[string]string{
		"geo.loa": `namespace Geo.

export class Point.
class Hidden.
`,
		"main.loa": `import Geo/Point.
import Geo/Point as P.

class Main {
  run -> Point => P.
}
`,
	})
	nav := p.analysis.Navigator

	imp := p.at("main.loa", "import Geo/Point.", 0, "ImportDirective")
	decl := nav.FindDeclarationFromImport(imp)
	if decl == nil {
		t.Fatal("import does not resolve")
	}
	if qn, _ := nav.QualifiedNameOf(decl); qn != "Geo/Point" {
		t.Fatalf("qualified name = %q", qn)
	}
	if got := nav.ImportDirectivesOf(decl); len(got) != 2 {
		t.Fatalf("ImportDirectivesOf = %d directives, want 2", len(got))
	}

	modules := nav.ModulesInNamespace("Geo")
	if len(modules) != 1 {
		t.Fatalf("ModulesInNamespace = %d", len(modules))
	}
	var exported []string
	for _, d := range nav.ModuleDeclarations(modules[0]) {
		if d.Exported {
			name, _, _ := nav.SymbolOf(d.Node)
			exported = append(exported, name)
		}
	}
	if len(exported) != 1 || exported[0] != "Point" {
		t.Fatalf("exported = %v", exported)
	}

	// ссылка через псевдоним находит класс
	alias := p.at("main.loa", "P.\n", 1, "ReferenceExpression")
	if got := p.analysis.Types.TypeOf(alias).String(); got != "Point" {
		t.Fatalf("type of alias reference = %s", got)
	}
}

func TestMainBootstrapFindsGlobalClass(t *testing.T) {
	p := analyze(t, map[string]string{
		"main.loa": `class Main {
  run -> Integer => 42.
}
`,
		"boot:repl": "Main run.",
	})
	nav := p.analysis.Navigator
	ref := p.at("boot:repl", "Main", 0, "ReferenceExpression")
	decl := nav.FindDeclaration(ref, semantics.DeclValue)
	if decl == nil || !nav.IsWithin(decl, nav.RootOf(p.main("class Main", 0, "Class"))) {
		t.Fatalf("Main resolved to %v", decl)
	}
	send := p.at("boot:repl", "Main run", 0, "MessageSendExpression")
	if got := p.typeOf(send); got != "Integer" {
		t.Fatalf("type of bootstrap send = %s", got)
	}
}

func TestFindReferences(t *testing.T) {
	p := analyzeOne(t, shapes)
	nav := p.analysis.Navigator

	point := p.main("class Point", 0, "Class")
	refs := nav.FindReferences(point, semantics.DeclType)
	if len(refs) != 1 {
		t.Fatalf("type references = %d, want 1", len(refs))
	}
	refs = nav.FindReferences(point, semantics.DeclValue)
	if len(refs) != 1 {
		t.Fatalf("value references = %d, want 1", len(refs))
	}

	a := p.main("Integer a and:", 0, "ParameterPattern")
	if refs := nav.FindReferences(a, semantics.DeclValue); len(refs) != 1 {
		t.Fatalf("references of a = %d, want 1", len(refs))
	}
}

func TestSelectorsAndArity(t *testing.T) {
	p := analyzeOne(t, shapes)
	nav := p.analysis.Navigator

	tests := []struct {
		marker   string
		selector string
		arity    int
	}{
		{"x ->", "x", 1},
		{"sum:", "sum:and:", 3},
		{"twice:", "twice:", 2},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			m := p.main(tt.marker, 0, "Method")
			sel, ok := nav.MethodSelector(m)
			if !ok || sel != tt.selector {
				t.Fatalf("selector = %q", sel)
			}
			arity, ok := nav.MethodArity(m)
			if !ok || arity != tt.arity {
				t.Fatalf("arity = %d", arity)
			}
			qn, _ := nav.QualifiedNameOfMethod(m)
			if want := "#" + tt.selector; len(qn) < len(want) || qn[len(qn)-len(want):] != want {
				t.Fatalf("qualified method name = %q", qn)
			}
		})
	}

	plus := p.main("+ b.", 0, "BinaryMessage")
	if sel, ok := nav.MessageSelector(plus); !ok || sel != "+" {
		t.Fatalf("binary selector = %q", sel)
	}
}

func TestSuperClassesAndOverrides(t *testing.T) {
	p := analyzeOne(t, `class A {
  name -> String => "a".
}
class B {
  is A.
  name -> String => "b".
}
class C {
  is B.
  is C.
}
`)
	nav := p.analysis.Navigator
	c := p.main("class C", 0, "Class")
	supers := nav.AllSuperClassesOf(c)
	if len(supers) != 2 {
		t.Fatalf("super classes = %d, want 2", len(supers))
	}
	if name, _, _ := nav.SymbolOf(supers[0]); name != "A" {
		t.Fatalf("farthest super class = %s", name)
	}

	bName := p.main(`name -> String => "b"`, 0, "Method")
	overridden := nav.MethodsOverriddenBy(bName)
	if len(overridden) != 1 || overridden[0].ID != p.main(`name -> String => "a"`, 0, "Method").ID {
		t.Fatalf("overridden = %v", overridden)
	}
}

func TestLocalsCrossingInto(t *testing.T) {
	p := analyzeOne(t, `class Counter {
  var Integer count.
  init count: Integer c => count: c.

  add: Integer a to: Integer b -> Integer => let Integer c = a. (c + b).
  next -> Integer => (count + 1).
  plain: Integer a -> Integer => (a + 1).
}
`)
	nav := p.analysis.Navigator

	tuple := p.main("(c + b)", 0, "TupleExpression")
	locals := nav.LocalsCrossingInto(tuple)
	var names []string
	for _, l := range locals {
		n, _, _ := nav.SymbolOf(l)
		names = append(names, n)
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "c" {
		t.Fatalf("crossing locals = %v", names)
	}
	if nav.SelfCrossesInto(tuple) {
		t.Fatal("self does not cross into (c + b)")
	}

	next := p.main("(count + 1)", 0, "TupleExpression")
	if len(nav.LocalsCrossingInto(next)) != 0 {
		t.Fatal("variables are read through self, not captured")
	}
	if !nav.SelfCrossesInto(next) {
		t.Fatal("a variable reference captures self")
	}

	class := p.main("class Counter", 0, "Class")
	if !nav.HasClassObject(class) {
		t.Fatal("class with an initializer has a class object")
	}
	if got := len(nav.VariablesOfClass(class)); got != 1 {
		t.Fatalf("variables = %d", got)
	}
	assigns := nav.InitializerAssignments(p.main("init count", 0, "Initializer"))
	if len(assigns) != 1 || assigns[0].Name != "count" {
		t.Fatalf("initializer assignments = %+v", assigns)
	}
}
