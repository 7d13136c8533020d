package generation

import (
	"slices"

	"fortio.org/safecast"

	"loa/internal/ast"
	"loa/internal/semantics"
	"loa/internal/source"
)

// Directives answers the REPL's `:t` and `:b` lines at generation time.
type Directives interface {
	ShowType(t semantics.Type)
	ShowBehaviours(t semantics.Type, types *semantics.Types)
}

type nopDirectives struct{}

func (nopDirectives) ShowType(semantics.Type)                           {}
func (nopDirectives) ShowBehaviours(semantics.Type, *semantics.Types) {}

// Generator lowers analysed trees to instructions. It assumes the checkers
// reported no errors; anything it cannot lower is an *Error.
type Generator struct {
	nav        *semantics.Navigator
	types      *semantics.Types
	directives Directives
	stack      simulatedStack
}

func New(a *semantics.Analysis) *Generator {
	return &Generator{nav: a.Navigator, types: a.Types, directives: nopDirectives{}}
}

// WithDirectives routes REPL directives to d.
func (g *Generator) WithDirectives(d Directives) *Generator {
	if d == nil {
		d = nopDirectives{}
	}
	g.directives = d
	return g
}

// Generate lowers one module or REPL line. Modules produce only the
// declaration passes; REPL lines also produce their statements.
func (g *Generator) Generate(uri source.URI) (Instructions, error) {
	root := g.nav.RootOfURI(uri)
	if root == nil {
		return nil, traversalFailure(nil, "no tree for %s", uri)
	}
	var out Instructions
	switch root.Kind.(type) {
	case ast.Module:
		if err := g.declarations(&out, g.moduleDeclarations(root)); err != nil {
			return nil, err
		}
	case ast.REPLLine:
		if err := g.replLine(&out, root); err != nil {
			return nil, err
		}
	default:
		return nil, invalidNode(root, "not a module or a REPL line")
	}
	return out, nil
}

// GenerateAll lowers the whole program: the declarations of every module,
// then every REPL line in the order it was entered, then Halt.
func (g *Generator) GenerateAll() (Instructions, error) {
	var decls []*ast.Node
	var lines []*ast.Node
	for _, root := range g.nav.Roots() {
		switch root.Kind.(type) {
		case ast.Module:
			decls = append(decls, g.moduleDeclarations(root)...)
		case ast.REPLLine:
			lines = append(lines, root)
		}
	}
	slices.SortFunc(lines, func(a, b *ast.Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	var out Instructions
	if err := g.declarations(&out, decls); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := g.replLine(&out, line); err != nil {
			return nil, err
		}
	}
	out = append(out, Halt())
	return out, nil
}

func (g *Generator) moduleDeclarations(module *ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, d := range g.nav.ModuleDeclarations(module) {
		out = append(out, d.Node)
	}
	return out
}

// declarations runs the global passes: classes first, then their members,
// then inheritance links, then global lets.
func (g *Generator) declarations(out *Instructions, decls []*ast.Node) error {
	var classes, lets []*ast.Node
	for _, d := range decls {
		switch k := d.Kind.(type) {
		case ast.Class:
			if !k.Partial {
				classes = append(classes, d)
			}
		case ast.LetBinding:
			lets = append(lets, d)
		}
	}

	for _, class := range classes {
		if err := g.declareClass(out, class); err != nil {
			return err
		}
	}
	for _, class := range classes {
		if err := g.classMembers(out, class); err != nil {
			return err
		}
	}
	for _, class := range classes {
		g.inheritLinks(out, class)
	}
	for _, let := range lets {
		if err := g.globalLet(out, let); err != nil {
			return err
		}
	}
	return nil
}

var markOps = map[string]Op{
	"Loa/True":       OpMarkClassTrue,
	"Loa/False":      OpMarkClassFalse,
	"Loa/String":     OpMarkClassString,
	"Loa/Character":  OpMarkClassCharacter,
	"Loa/Symbol":     OpMarkClassSymbol,
	"Loa/UInt8":      OpMarkClassU8,
	"Loa/UInt16":     OpMarkClassU16,
	"Loa/UInt32":     OpMarkClassU32,
	"Loa/UInt64":     OpMarkClassU64,
	"Loa/UInt128":    OpMarkClassU128,
	"Loa/BigNatural": OpMarkClassUBig,
	"Loa/Int8":       OpMarkClassI8,
	"Loa/Int16":      OpMarkClassI16,
	"Loa/Int32":      OpMarkClassI32,
	"Loa/Int64":      OpMarkClassI64,
	"Loa/Int128":     OpMarkClassI128,
	"Loa/BigInteger": OpMarkClassIBig,
	"Loa/Float32":    OpMarkClassF32,
	"Loa/Float64":    OpMarkClassF64,
	"Loa/BigFloat":   OpMarkClassFBig,
}

func (g *Generator) declareClass(out *Instructions, class *ast.Node) error {
	name, _, ok := g.nav.SymbolOf(class)
	if !ok {
		return invalidNode(class, "class without a name")
	}
	*out = append(*out, DeclareClass(class.ID, name))
	if qn, ok := g.nav.QualifiedNameOf(class); ok {
		if op, ok := markOps[qn]; ok {
			*out = append(*out, MarkClass(op, class.ID))
		}
	}
	if g.nav.HasClassObject(class) {
		*out = append(*out, DeclareClass(ClassObjectID(class.ID), name+" class"))
	}
	return nil
}

func (g *Generator) classMembers(out *Instructions, class *ast.Node) error {
	name, _, _ := g.nav.SymbolOf(class)
	// повторное объявление выбирает уже объявленный класс
	*out = append(*out, DeclareClass(class.ID, name))
	for _, v := range g.nav.VariablesOfClass(class) {
		vname, _, ok := g.nav.SymbolOf(v)
		if !ok {
			return invalidNode(v, "variable without a name")
		}
		*out = append(*out, DeclareVariable(v.ID, vname))
	}
	for _, m := range g.nav.MethodsOfClass(class) {
		if err := g.method(out, m); err != nil {
			return err
		}
	}

	if !g.nav.HasClassObject(class) {
		return nil
	}
	*out = append(*out, DeclareClass(ClassObjectID(class.ID), name+" class"))
	for _, init := range g.nav.InitializersOf(class) {
		if err := g.initializer(out, class, init); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) method(out *Instructions, method *ast.Node) error {
	selector, ok := g.nav.MethodSelector(method)
	if !ok {
		return invalidNode(method, "method without a selector")
	}
	name, _ := g.nav.QualifiedNameOfMethod(method)
	*out = append(*out, BeginMethod(SelectorHash(selector), name))

	body := g.nav.MethodBody(method)
	switch {
	case g.nav.MethodIsNative(method):
		if native, ok := NativeOfMethod(name); ok {
			*out = append(*out, CallNative(native), Return(0))
		} else {
			*out = append(*out, LoadConstString(name+" is not implemented."), Panic())
		}
	case body == nil:
		*out = append(*out, LoadConstString(name+" is not implemented."), Panic())
	default:
		arity, err := g.arity(method)
		if err != nil {
			return err
		}
		g.enterMember(method)
		if err := g.expression(out, body); err != nil {
			return err
		}
		*out = append(*out, Return(arity))
	}
	*out = append(*out, EndMethod())
	return nil
}

// initializer builds the instance by sending the variable setters to the
// constant instance of the class, one per assignment.
func (g *Generator) initializer(out *Instructions, class, init *ast.Node) error {
	selector, ok := g.nav.InitializerSelector(init)
	if !ok {
		return invalidNode(init, "initializer without a selector")
	}
	arity, err := g.arity(init)
	if err != nil {
		return err
	}
	name, _ := g.nav.QualifiedNameOfMethod(init)
	*out = append(*out, BeginMethod(SelectorHash(selector), name))

	g.enterMember(init)
	assignments := g.nav.InitializerAssignments(init)
	for i := len(assignments) - 1; i >= 0; i-- {
		if err := g.expression(out, assignments[i].Value); err != nil {
			return err
		}
	}
	*out = append(*out, LoadObject(class.ID))
	g.stack.pushExpression(class.ID)
	for _, a := range assignments {
		call, err := g.callMethod(a.Name+":", a.Keyword)
		if err != nil {
			return err
		}
		*out = append(*out, call)
		g.stack.dropIndex(1)
	}
	*out = append(*out, Return(arity), EndMethod())
	return nil
}

// enterMember resets the simulated stack to a call frame of member:
// parameters last to first, then self.
func (g *Generator) enterMember(member *ast.Node) {
	g.stack = simulatedStack{}
	params := g.nav.MethodParameters(member)
	for i := len(params) - 1; i >= 0; i-- {
		g.stack.pushDeclaration(params[i].ID)
	}
	g.stack.pushSelf()
}

func (g *Generator) arity(member *ast.Node) (uint16, error) {
	n, ok := g.nav.MethodArity(member)
	if !ok {
		return 0, invalidNode(member, "no message pattern")
	}
	arity, err := safecast.Conv[uint16](n)
	if err != nil {
		return 0, invalidNode(member, "arity %d: %v", n, err)
	}
	return arity, nil
}

// inheritLinks copies every method the class answers but does not declare
// from the class that declares it.
func (g *Generator) inheritLinks(out *Instructions, class *ast.Node) {
	ct, ok := g.types.TypeOfDeclaration(class).(semantics.ClassType)
	if !ok {
		return
	}
	for _, b := range g.types.Behaviours(ct) {
		method := g.nav.FindNode(b.MethodID)
		if method == nil {
			continue
		}
		owner := g.nav.ClosestClassUpwards(method)
		if owner == nil || owner.ID == class.ID {
			continue
		}
		if k, ok := owner.Kind.(ast.Class); ok && k.Partial {
			continue
		}
		*out = append(*out, InheritMethod(owner.ID, class.ID, SelectorHash(b.Selector())))
	}
}

func (g *Generator) globalLet(out *Instructions, binding *ast.Node) error {
	k := binding.Kind.(ast.LetBinding)
	expr := g.nav.FindChild(binding, k.Expression)
	if expr == nil {
		return traversalFailure(binding, "let binding without an expression")
	}
	g.stack = simulatedStack{}
	if err := g.expression(out, expr); err != nil {
		return err
	}
	*out = append(*out, StoreGlobal(binding.ID))
	g.stack.pop()
	return nil
}

// replLine declares the classes of the line up front, then lowers its
// statements in order. Every expression statement leaves its value on the
// stack.
func (g *Generator) replLine(out *Instructions, line *ast.Node) error {
	k := line.Kind.(ast.REPLLine)
	var classes []*ast.Node
	for _, d := range g.nav.REPLDeclarations(line) {
		if _, ok := d.Kind.(ast.Class); ok {
			classes = append(classes, d)
		}
	}
	if err := g.declarations(out, classes); err != nil {
		return err
	}

	for _, id := range k.Statements {
		stmt := g.nav.FindChild(line, id)
		if stmt == nil {
			return traversalFailure(line, "statement %s is missing", id)
		}
		if err := g.statement(out, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) statement(out *Instructions, stmt *ast.Node) error {
	g.stack = simulatedStack{}
	switch k := stmt.Kind.(type) {
	case ast.Exported:
		if decl := g.nav.FindChild(stmt, k.Declaration); decl != nil {
			return g.statement(out, decl)
		}
		return nil
	case ast.LetBinding:
		return g.globalLet(out, stmt)
	case ast.REPLExpression:
		expr := g.nav.FindChild(stmt, k.Expression)
		if expr == nil {
			return traversalFailure(stmt, "empty expression statement")
		}
		return g.expression(out, expr)
	case ast.REPLDirective:
		expr := g.nav.FindChild(stmt, k.Expression)
		if expr == nil {
			return nil
		}
		typ := g.types.TypeOfExpression(expr)
		switch k.Symbol.Text {
		case "t", "type":
			g.directives.ShowType(typ)
		case "b", "behaviours":
			g.directives.ShowBehaviours(typ, g.types)
		}
		return nil
	case ast.Class, ast.ImportDirective:
		return nil
	default:
		if stmt.IsExpression() {
			return g.expression(out, stmt)
		}
		return nil
	}
}

// callMethod builds a send of selector with the callsite of node. The
// callsite is stored as uint32, so positions past that range are rejected.
func (g *Generator) callMethod(selector string, node *ast.Node) (Instruction, error) {
	start := node.Span.Start
	line, err := safecast.Conv[uint32](start.Line)
	if err != nil {
		return Instruction{}, invalidNode(node, "callsite line %d: %v", start.Line, err)
	}
	char, err := safecast.Conv[uint32](start.Character)
	if err != nil {
		return Instruction{}, invalidNode(node, "callsite column %d: %v", start.Character, err)
	}
	return CallMethod(SelectorHash(selector), string(start.URI), line, char), nil
}
