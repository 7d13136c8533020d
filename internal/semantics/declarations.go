package semantics

import (
	"slices"
	"strings"

	"loa/internal/ast"
)

// StdlibNamespace is the namespace every standard library module declares.
const StdlibNamespace = "Loa"

// FindDeclaration resolves a reference (or self) to the node declaring it.
// Unresolved names fall back to top-level declarations of modules without a
// namespace and then to the standard library class `Loa/<name>`.
func (n *Navigator) FindDeclaration(ref *ast.Node, kind DeclarationKind) *ast.Node {
	if ref == nil {
		return nil
	}
	switch ref.Kind.(type) {
	case ast.SelfExpression, ast.SelfTypeExpression:
		return n.ClosestClassUpwards(ref)
	}
	name, _, ok := n.SymbolOf(ref)
	if !ok {
		return nil
	}
	if decl := n.FindDeclarationAbove(ref, name, kind); decl != nil {
		return decl
	}
	if decl := n.globalDeclaration(name, kind); decl != nil {
		return decl
	}
	return n.FindStdlibClass(StdlibNamespace + "/" + name)
}

// FindDeclarationAbove looks for name in the closest scope root above node and
// then in every enclosing scope. Nested scope roots are never entered; REPL
// lines together form a single scope.
func (n *Navigator) FindDeclarationAbove(node *ast.Node, name string, kind DeclarationKind) *ast.Node {
	for {
		scope := n.ClosestScopeRoot(node)
		if scope == nil {
			return nil
		}
		if decl := n.findInScope(scope, name, kind); decl != nil {
			return decl
		}
		node = n.Parent(scope)
		if node == nil {
			return nil
		}
	}
}

func (n *Navigator) findInScope(scope *ast.Node, name string, kind DeclarationKind) *ast.Node {
	// параметры типа класса видны внутри его тела
	if _, ok := scope.Kind.(ast.ClassBody); ok && kind != DeclValue {
		for _, tp := range n.TypeParametersOf(n.Parent(scope)) {
			if s, _, ok := n.SymbolOf(tp); ok && s == name {
				return tp
			}
		}
	}

	var result *ast.Node
	visit := func(c *ast.Node) bool {
		if result != nil {
			return false
		}
		if _, ok := c.Kind.(ast.TypeParameterList); ok {
			return false
		}
		if isImport(c) {
			if s, _, ok := n.SymbolOf(c); ok && s == name {
				if decl := n.FindDeclarationFromImport(c); decl != nil {
					result = decl
				} else {
					result = c
				}
				return false
			}
		}
		if IsDeclarationOf(c, kind) {
			if s, _, ok := n.SymbolOf(c); ok && s == name {
				result = c
				return false
			}
		}
		return c.ID == scope.ID || !c.IsScopeRoot() || isREPLLine(c)
	}
	if isREPLLine(scope) {
		n.traverseREPLLines(visit)
	} else {
		n.Traverse(scope, visit)
	}
	return result
}

// globalDeclaration finds a top-level declaration of a module that declares
// no namespace.
func (n *Navigator) globalDeclaration(name string, kind DeclarationKind) *ast.Node {
	globals := n.globals.Gate("", func() map[string]*ast.Node {
		out := make(map[string]*ast.Node)
		for _, module := range n.Modules() {
			if _, _, ok := n.NamespaceOfModule(module); ok {
				continue
			}
			for _, d := range n.ModuleDeclarations(module) {
				if s, _, ok := n.SymbolOf(d.Node); ok {
					if _, dup := out[s]; !dup {
						out[s] = d.Node
					}
				}
			}
		}
		return out
	})
	decl := globals[name]
	if decl == nil || !IsDeclarationOf(decl, kind) {
		return nil
	}
	return decl
}

// FindDeclarationFromImport resolves `import A/B/C.` to the top-level
// declaration C of a module in namespace A/B.
func (n *Navigator) FindDeclarationFromImport(imp *ast.Node) *ast.Node {
	if imp == nil {
		return nil
	}
	k, ok := imp.Kind.(ast.ImportDirective)
	if !ok {
		return nil
	}
	parts := n.qualifiedSymbolParts(n.FindChild(imp, k.QualifiedSymbol))
	if len(parts) == 0 {
		return nil
	}
	symbol := parts[len(parts)-1]
	namespace := strings.Join(parts[:len(parts)-1], "/")
	for _, module := range n.ModulesInNamespace(namespace) {
		for _, d := range n.ModuleDeclarations(module) {
			if s, _, ok := n.SymbolOf(d.Node); ok && s == symbol {
				return d.Node
			}
		}
	}
	return nil
}

// FindReferences returns every reference resolving to decl: inside its scope
// and, when decl is exported, through every matching import.
func (n *Navigator) FindReferences(decl *ast.Node, kind DeclarationKind) []*ast.Node {
	if decl == nil {
		return nil
	}
	name, _, ok := n.SymbolOf(decl)
	if !ok {
		return nil
	}
	var refs []*ast.Node

	if n.DeclarationIsExported(decl) {
		if module := n.RootOf(decl); module != nil {
			refs = append(refs, n.findReferencesThroughImports(module, name, kind)...)
		}
	}

	from := decl
	if decl.IsScopeRoot() {
		if p := n.Parent(decl); p != nil {
			from = p
		}
	}
	var scopes []*ast.Node
	if isImport(decl) {
		scopes = []*ast.Node{n.ClosestScopeRoot(from)}
	} else {
		scopes = n.referenceScopes(decl, from)
	}
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		refs = append(refs, n.AllDownwards(scope, func(c *ast.Node) bool {
			if !IsReferenceOf(c, kind) {
				return false
			}
			found := n.FindDeclaration(c, kind)
			if found == nil {
				return false
			}
			if isImport(decl) {
				// ссылка на импортированное имя
				if found.Span.URI() != c.Span.URI() {
					if s, _, ok := n.SymbolOf(c); ok && s == name {
						return true
					}
				}
			}
			return found.ID == decl.ID
		})...)
	}
	return refs
}

// referenceScopes lists the subtrees that may refer to decl. Declarations of
// namespace-less modules and of the standard library are visible program-wide.
func (n *Navigator) referenceScopes(decl, from *ast.Node) []*ast.Node {
	scope := n.ClosestScopeRoot(from)
	if scope == nil {
		return nil
	}
	if _, ok := scope.Kind.(ast.Module); !ok || !isClassOrLet(decl) {
		if isREPLLine(scope) {
			return n.replLines()
		}
		return []*ast.Node{scope}
	}
	_, _, namespaced := n.NamespaceOfModule(scope)
	if namespaced && !decl.Span.URI().IsStdlib() {
		return []*ast.Node{scope}
	}
	return n.Roots()
}

func (n *Navigator) replLines() []*ast.Node {
	var out []*ast.Node
	for _, root := range n.Roots() {
		if isREPLLine(root) {
			out = append(out, root)
		}
	}
	return out
}

func isClassOrLet(node *ast.Node) bool {
	switch node.Kind.(type) {
	case ast.Class, ast.LetBinding:
		return true
	}
	return false
}

func (n *Navigator) findReferencesThroughImports(module *ast.Node, exported string, kind DeclarationKind) []*ast.Node {
	namespace, _, ok := n.NamespaceOfModule(module)
	if !ok {
		return nil
	}
	var refs []*ast.Node
	for _, imp := range n.ImportsMatching(namespace + "/" + exported) {
		refs = append(refs, n.FindReferences(imp, kind)...)
	}
	return refs
}

// ImportsMatching returns every import directive importing qualifiedName.
func (n *Navigator) ImportsMatching(qualifiedName string) []*ast.Node {
	var out []*ast.Node
	for _, imp := range n.AllImports() {
		k := imp.Kind.(ast.ImportDirective)
		if n.QualifiedSymbolString(n.FindChild(imp, k.QualifiedSymbol)) == qualifiedName {
			out = append(out, imp)
		}
	}
	return out
}

// ImportDirectivesOf returns the imports pointing at an exported declaration.
func (n *Navigator) ImportDirectivesOf(decl *ast.Node) []*ast.Node {
	if !n.DeclarationIsExported(decl) {
		return nil
	}
	qn, ok := n.QualifiedNameOf(decl)
	if !ok || !strings.Contains(qn, "/") {
		return nil
	}
	return n.ImportsMatching(qn)
}

// ===== Пространства имён =====

// NamespaceOfModule returns the namespace declared by a module root.
func (n *Navigator) NamespaceOfModule(module *ast.Node) (string, *ast.Node, bool) {
	if module == nil {
		return "", nil, false
	}
	k, ok := module.Kind.(ast.Module)
	if !ok {
		return "", nil, false
	}
	dir := n.FindChild(module, k.Namespace)
	if dir == nil {
		return "", nil, false
	}
	qs := n.FindChild(dir, dir.Kind.(ast.NamespaceDirective).QualifiedSymbol)
	if qs == nil {
		return "", nil, false
	}
	return n.QualifiedSymbolString(qs), qs, true
}

// ModulesInNamespace returns every module declaring namespace.
func (n *Navigator) ModulesInNamespace(namespace string) []*ast.Node {
	var out []*ast.Node
	for _, module := range n.Modules() {
		if ns, _, ok := n.NamespaceOfModule(module); ok && ns == namespace {
			out = append(out, module)
		}
	}
	return out
}

// ModuleDeclaration is a top-level declaration and whether it is exported.
type ModuleDeclaration struct {
	Exported bool
	Node     *ast.Node
}

// ModuleDeclarations unwraps the declarations of a module root.
func (n *Navigator) ModuleDeclarations(module *ast.Node) []ModuleDeclaration {
	k, ok := module.Kind.(ast.Module)
	if !ok {
		return nil
	}
	out := make([]ModuleDeclaration, 0, len(k.Declarations))
	for _, id := range k.Declarations {
		d := n.FindChild(module, id)
		if d == nil {
			continue
		}
		if ex, ok := d.Kind.(ast.Exported); ok {
			if inner := n.FindChild(d, ex.Declaration); inner != nil {
				out = append(out, ModuleDeclaration{Exported: true, Node: inner})
			}
			continue
		}
		out = append(out, ModuleDeclaration{Node: d})
	}
	return out
}

// REPLDeclarations returns the declarations written as REPL statements.
func (n *Navigator) REPLDeclarations(line *ast.Node) []*ast.Node {
	k, ok := line.Kind.(ast.REPLLine)
	if !ok {
		return nil
	}
	var out []*ast.Node
	for _, id := range k.Statements {
		if s := n.FindChild(line, id); s != nil && IsDeclarationOf(s, DeclAny) {
			out = append(out, s)
		}
	}
	return out
}

func (n *Navigator) DeclarationIsExported(decl *ast.Node) bool {
	p := n.Parent(decl)
	if p == nil {
		return false
	}
	_, ok := p.Kind.(ast.Exported)
	return ok
}

// QualifiedNameOf returns `namespace/name`, or just the name when the module
// declares no namespace.
func (n *Navigator) QualifiedNameOf(decl *ast.Node) (string, bool) {
	name, _, ok := n.SymbolOf(decl)
	if !ok {
		return "", false
	}
	if ns, _, ok := n.NamespaceOfModule(n.RootOf(decl)); ok {
		return ns + "/" + name, true
	}
	return name, true
}

// QualifiedNameOfMethod returns `Class#selector`, e.g. `Loa/Number#+`.
func (n *Navigator) QualifiedNameOfMethod(method *ast.Node) (string, bool) {
	var selector string
	var ok bool
	switch method.Kind.(type) {
	case ast.Method:
		selector, ok = n.MethodSelector(method)
	case ast.Initializer:
		selector, ok = n.InitializerSelector(method)
	}
	if !ok {
		return "", false
	}
	qn, ok := n.QualifiedNameOf(n.ClosestClassUpwards(method))
	if !ok {
		return "", false
	}
	return qn + "#" + selector, true
}

// ===== Стандартная библиотека =====

// AllStdlibClasses maps the qualified name of each stdlib class to its node.
func (n *Navigator) AllStdlibClasses() map[string]*ast.Node {
	return n.stdlibClasses.Gate("", func() map[string]*ast.Node {
		out := make(map[string]*ast.Node)
		for _, root := range n.Roots() {
			if !root.Span.URI().IsStdlib() {
				continue
			}
			for _, class := range n.AllDownwards(root, isClass) {
				if qn, ok := n.QualifiedNameOf(class); ok {
					out[qn] = class
				}
			}
		}
		return out
	})
}

// FindStdlibClass returns the stdlib class with the qualified name.
func (n *Navigator) FindStdlibClass(qualifiedName string) *ast.Node {
	return n.AllStdlibClasses()[qualifiedName]
}

// ===== Области видимости =====

// AllDeclarationsInScope returns declarations and imports directly in scope,
// without entering nested scope roots.
func (n *Navigator) AllDeclarationsInScope(scope *ast.Node, kind DeclarationKind) []*ast.Node {
	var out []*ast.Node
	n.Traverse(scope, func(c *ast.Node) bool {
		if IsDeclarationOf(c, kind) || isImport(c) {
			out = append(out, c)
		}
		return c.ID == scope.ID || !c.IsScopeRoot()
	})
	return out
}

// DeclarationsInScope lists every name visible from node, innermost first
// winning, followed by the standard library classes. Used for completion.
func (n *Navigator) DeclarationsInScope(from *ast.Node, kind DeclarationKind) map[string]*ast.Node {
	out := make(map[string]*ast.Node)
	add := func(name string, decl *ast.Node) {
		if _, ok := out[name]; !ok {
			out[name] = decl
		}
	}
	for from != nil {
		scope := n.ClosestScopeRoot(from)
		if scope == nil {
			break
		}
		visit := func(c *ast.Node) bool {
			if _, ok := c.Kind.(ast.TypeParameterList); ok {
				return false
			}
			if IsDeclarationOf(c, kind) {
				if s, _, ok := n.SymbolOf(c); ok {
					add(s, c)
				}
			}
			if isImport(c) {
				if s, _, ok := n.SymbolOf(c); ok {
					if d := n.FindDeclarationFromImport(c); d != nil {
						add(s, d)
					}
				}
			}
			return c.ID == scope.ID || !c.IsScopeRoot() || isREPLLine(c)
		}
		if _, ok := scope.Kind.(ast.ClassBody); ok && kind != DeclValue {
			for _, tp := range n.TypeParametersOf(n.Parent(scope)) {
				if s, _, ok := n.SymbolOf(tp); ok {
					add(s, tp)
				}
			}
		}
		if isREPLLine(scope) {
			n.traverseREPLLines(visit)
		} else {
			n.Traverse(scope, visit)
		}
		from = n.Parent(scope)
	}
	names := make([]string, 0)
	for qn := range n.AllStdlibClasses() {
		names = append(names, qn)
	}
	slices.Sort(names)
	for _, qn := range names {
		class := n.AllStdlibClasses()[qn]
		if s, _, ok := n.SymbolOf(class); ok {
			add(s, class)
		}
	}
	return out
}
