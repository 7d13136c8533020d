package semantics

import (
	"slices"

	"loa/internal/ast"
)

func (n *Navigator) classMembers(class *ast.Node) []*ast.Node {
	if class == nil {
		return nil
	}
	k, ok := class.Kind.(ast.Class)
	if !ok {
		return nil
	}
	body := n.FindChild(class, k.Body)
	if body == nil {
		return nil
	}
	return n.Children(body)
}

func (n *Navigator) membersOfKind(class *ast.Node, pred func(ast.Kind) bool) []*ast.Node {
	var out []*ast.Node
	for _, m := range n.classMembers(class) {
		if pred(m.Kind) {
			out = append(out, m)
		}
	}
	return out
}

// SuperTypeExpressions returns the type expressions of the class's `is` directives.
func (n *Navigator) SuperTypeExpressions(class *ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, m := range n.classMembers(class) {
		if is, ok := m.Kind.(ast.IsDirective); ok {
			if te := n.FindChild(m, is.TypeExpression); te != nil {
				out = append(out, te)
			}
		}
	}
	return out
}

// AllSuperClassesOf collects every transitive super class, farthest first.
// Cycles in `is` directives are cut at the first repeated class.
func (n *Navigator) AllSuperClassesOf(class *ast.Node) []*ast.Node {
	var out []*ast.Node
	seen := map[ast.Id]bool{class.ID: true}
	var walk func(c *ast.Node)
	walk = func(c *ast.Node) {
		for _, te := range n.SuperTypeExpressions(c) {
			super := n.FindDeclaration(te, DeclType)
			if super == nil || !isClass(super) || seen[super.ID] {
				continue
			}
			seen[super.ID] = true
			walk(super)
			out = append(out, super)
		}
	}
	walk(class)
	return out
}

func (n *Navigator) MethodsOfClass(class *ast.Node) []*ast.Node {
	return n.membersOfKind(class, func(k ast.Kind) bool {
		_, ok := k.(ast.Method)
		return ok
	})
}

func (n *Navigator) VariablesOfClass(class *ast.Node) []*ast.Node {
	return n.membersOfKind(class, func(k ast.Kind) bool {
		_, ok := k.(ast.Variable)
		return ok
	})
}

func (n *Navigator) InitializersOf(class *ast.Node) []*ast.Node {
	return n.membersOfKind(class, func(k ast.Kind) bool {
		_, ok := k.(ast.Initializer)
		return ok
	})
}

// HasClassObject reports whether references to the class evaluate to a class
// object (which answers the initializers) rather than the constant instance.
func (n *Navigator) HasClassObject(class *ast.Node) bool {
	return len(n.InitializersOf(class)) > 0
}

// MessagePatternOf returns the pattern of a method or initializer.
func (n *Navigator) MessagePatternOf(member *ast.Node) *ast.Node {
	switch k := member.Kind.(type) {
	case ast.Method:
		sig := n.FindChild(member, k.Signature)
		if sig == nil {
			return nil
		}
		return n.FindChild(sig, sig.Kind.(ast.Signature).MessagePattern)
	case ast.Initializer:
		return n.FindChild(member, k.MessagePattern)
	}
	return nil
}

// ReturnTypeOf returns the ReturnType node of a method, if declared.
func (n *Navigator) ReturnTypeOf(method *ast.Node) *ast.Node {
	k, ok := method.Kind.(ast.Method)
	if !ok {
		return nil
	}
	sig := n.FindChild(method, k.Signature)
	if sig == nil {
		return nil
	}
	return n.FindChild(sig, sig.Kind.(ast.Signature).ReturnType)
}

func (n *Navigator) MethodSelector(method *ast.Node) (string, bool) {
	if _, ok := method.Kind.(ast.Method); !ok {
		return "", false
	}
	return n.MessagePatternSelector(n.MessagePatternOf(method))
}

func (n *Navigator) InitializerSelector(init *ast.Node) (string, bool) {
	if _, ok := init.Kind.(ast.Initializer); !ok {
		return "", false
	}
	return n.MessagePatternSelector(n.MessagePatternOf(init))
}

// MethodArity counts the receiver, like Return(arity) does.
func (n *Navigator) MethodArity(member *ast.Node) (int, bool) {
	pattern := n.MessagePatternOf(member)
	if pattern == nil {
		return 0, false
	}
	return n.MessageArity(pattern)
}

// MethodParameters returns the ParameterPatterns of a method or initializer.
func (n *Navigator) MethodParameters(member *ast.Node) []*ast.Node {
	return n.MessagePatternParameters(n.MessagePatternOf(member))
}

// InitializerAssignment is one `variable: expression` pair of an initializer.
type InitializerAssignment struct {
	Name    string
	Keyword *ast.Node
	Value   *ast.Node
}

func (n *Navigator) InitializerAssignments(init *ast.Node) []InitializerAssignment {
	k, ok := init.Kind.(ast.Initializer)
	if !ok {
		return nil
	}
	var out []InitializerAssignment
	for _, p := range n.KeywordPairs(init, k.KeywordPairs) {
		if name, _, ok := n.SymbolOf(p[0]); ok {
			out = append(out, InitializerAssignment{Name: name, Keyword: p[0], Value: p[1]})
		}
	}
	return out
}

// MethodBody returns the body expression of a method.
func (n *Navigator) MethodBody(method *ast.Node) *ast.Node {
	k, ok := method.Kind.(ast.Method)
	if !ok {
		return nil
	}
	body := n.FindChild(method, k.Body)
	if body == nil {
		return nil
	}
	return n.FindChild(body, body.Kind.(ast.MethodBody).Expression)
}

func (n *Navigator) MethodIsNative(method *ast.Node) bool {
	k, ok := method.Kind.(ast.Method)
	return ok && k.Native
}

func visibilityOf(member *ast.Node) ast.Visibility {
	switch k := member.Kind.(type) {
	case ast.Method:
		return k.Visibility
	case ast.Initializer:
		return k.Visibility
	case ast.Variable:
		return k.Visibility
	}
	return ast.VisDefault
}

// MethodIsVisibleFrom reports whether a send at from may call member. Private
// members are only visible inside their own class.
func (n *Navigator) MethodIsVisibleFrom(member, from *ast.Node) bool {
	if !visibilityOf(member).IsPrivate() {
		return true
	}
	owner := n.ClosestClassUpwards(member)
	caller := n.ClosestClassUpwards(from)
	return owner != nil && caller != nil && owner.ID == caller.ID
}

// MethodsOverriddenBy returns the super class methods with the same selector,
// transitively.
func (n *Navigator) MethodsOverriddenBy(method *ast.Node) []*ast.Node {
	selector, ok := n.MethodSelector(method)
	if !ok {
		return nil
	}
	class := n.ClosestClassUpwards(method)
	if class == nil {
		return nil
	}
	var out []*ast.Node
	for _, super := range n.AllSuperClassesOf(class) {
		for _, m := range n.MethodsOfClass(super) {
			if s, ok := n.MethodSelector(m); ok && s == selector {
				out = append(out, m)
			}
		}
	}
	return out
}

// LocalsCrossingInto returns the value declarations referenced inside expr but
// declared outside it (classes and globals excluded), ordered by position.
// These become the captured arguments of a lazy thunk.
func (n *Navigator) LocalsCrossingInto(expr *ast.Node) []*ast.Node {
	seen := make(map[ast.Id]*ast.Node)
	for _, ref := range n.AllDownwards(expr, func(c *ast.Node) bool { return IsReferenceOf(c, DeclValue) }) {
		decl := n.FindDeclaration(ref, DeclValue)
		if decl == nil || isClass(decl) || n.IsWithin(decl, expr) {
			continue
		}
		switch decl.Kind.(type) {
		case ast.Variable:
			continue
		case ast.LetBinding:
			if n.IsGlobalLet(decl) {
				continue
			}
		}
		seen[decl.ID] = decl
	}
	out := make([]*ast.Node, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *ast.Node) int {
		return a.Span.Start.Offset - b.Span.Start.Offset
	})
	return out
}

// IsGlobalLet reports whether a let binding is declared at module or REPL level.
func (n *Navigator) IsGlobalLet(binding *ast.Node) bool {
	p := n.Parent(binding)
	if p == nil {
		return false
	}
	switch p.Kind.(type) {
	case ast.Module, ast.REPLLine:
		return true
	case ast.Exported:
		return true
	}
	return false
}

// SelfCrossesInto reports whether expr refers to self, directly or through a
// variable of the enclosing class.
func (n *Navigator) SelfCrossesInto(expr *ast.Node) bool {
	return n.AnyDownwards(expr, func(c *ast.Node) bool {
		switch c.Kind.(type) {
		case ast.SelfExpression:
			return true
		case ast.ReferenceExpression:
			if d := n.FindDeclaration(c, DeclValue); d != nil {
				_, isVar := d.Kind.(ast.Variable)
				return isVar
			}
		}
		return false
	})
}

// TypeArgumentsOf returns the argument type expressions of a reference type.
func (n *Navigator) TypeArgumentsOf(ref *ast.Node) []*ast.Node {
	k, ok := ref.Kind.(ast.ReferenceTypeExpression)
	if !ok {
		return nil
	}
	list := n.FindChild(ref, k.TypeArguments)
	if list == nil {
		return nil
	}
	return n.Children(list)
}

// TypeParametersOf returns the type parameters declared by a class.
func (n *Navigator) TypeParametersOf(decl *ast.Node) []*ast.Node {
	if decl == nil {
		return nil
	}
	k, ok := decl.Kind.(ast.Class)
	if !ok {
		return nil
	}
	list := n.FindChild(decl, k.TypeParameters)
	if list == nil {
		return nil
	}
	return n.Children(list)
}

// VarianceOf returns the declared variance of a type parameter.
func VarianceOf(param *ast.Node) ast.Variance {
	if k, ok := param.Kind.(ast.TypeParameter); ok {
		return k.Variance
	}
	return ast.Invariant
}
