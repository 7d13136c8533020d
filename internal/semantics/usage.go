package semantics

import (
	"loa/internal/ast"
)

// Usage groups a declaration with everything pointing at it: references in
// scope (or message sends, for methods) and the import directives naming it.
type Usage struct {
	Declaration      *ast.Node
	References       []*ast.Node
	ImportDirectives []*ast.Node
}

// Members returns the declaration, the references and the imports.
func (u *Usage) Members() []*ast.Node {
	out := make([]*ast.Node, 0, 1+len(u.References)+len(u.ImportDirectives))
	out = append(out, u.Declaration)
	out = append(out, u.References...)
	return append(out, u.ImportDirectives...)
}

// FindUsage normalises node (a declaration, reference, import, symbol,
// operator, method, message pattern, message or initializer) to the usage
// of the declaration it denotes. The result is cached under every member of
// the usage, so asking again from any of them is a lookup.
func (a *Analysis) FindUsage(node *ast.Node) (*Usage, bool) {
	if node == nil {
		return nil, false
	}
	u := a.usages.Gate(node.ID, func() *Usage {
		u := a.computeUsage(node)
		if u != nil {
			for _, m := range u.Members() {
				a.usages.Set(m.ID, u)
			}
		}
		return u
	})
	return u, u != nil
}

func (a *Analysis) computeUsage(node *ast.Node) *Usage {
	nav := a.Navigator
	switch {
	case IsDeclarationOf(node, DeclAny):
		return &Usage{
			Declaration:      node,
			References:       nav.FindReferences(node, DeclarationKindOf(node)),
			ImportDirectives: nav.ImportDirectivesOf(node),
		}
	case isImport(node):
		return a.usageOf(nav.FindDeclarationFromImport(node))
	case IsReferenceOf(node, DeclAny):
		return a.usageOf(nav.FindDeclaration(node, DeclarationKindOf(node)))
	}

	switch node.Kind.(type) {
	case ast.Operator:
		return a.usageOf(nav.usageTargetFromOperator(node))
	case ast.Symbol:
		return a.usageOf(nav.usageTargetFromSymbol(node))
	case ast.Method, ast.Initializer:
		return &Usage{Declaration: node, References: a.Types.FindMethodReferences(node)}
	}

	if node.IsMessagePattern() {
		parent := nav.Parent(node)
		if parent == nil {
			return nil
		}
		switch parent.Kind.(type) {
		case ast.Signature:
			return a.usageOf(nav.Parent(parent))
		case ast.Initializer:
			return a.usageOf(parent)
		}
		return nil
	}
	if node.IsMessage() {
		return a.usageOf(a.Types.MethodFromMessage(node))
	}
	return nil
}

func (a *Analysis) usageOf(target *ast.Node) *Usage {
	if target == nil {
		return nil
	}
	u, _ := a.FindUsage(target)
	return u
}

func (n *Navigator) usageTargetFromOperator(op *ast.Node) *ast.Node {
	parent := n.Parent(op)
	if parent != nil && (parent.IsMessagePattern() || parent.IsMessage()) {
		return parent
	}
	return nil
}

// usageTargetFromSymbol maps a name token to the node whose usage it is
// part of. Only the last part of an imported qualified symbol counts.
func (n *Navigator) usageTargetFromSymbol(sym *ast.Node) *ast.Node {
	parent := n.Parent(sym)
	if parent == nil {
		return nil
	}
	if qs, ok := parent.Kind.(ast.QualifiedSymbol); ok {
		imp := n.Parent(parent)
		if imp == nil || !isImport(imp) || len(qs.Symbols) == 0 || qs.Symbols[len(qs.Symbols)-1] != sym.ID {
			return nil
		}
		return imp
	}
	if IsDeclarationOf(parent, DeclAny) || IsReferenceOf(parent, DeclAny) || isImport(parent) {
		return parent
	}
	if parent.IsMessage() || parent.IsMessagePattern() {
		return parent
	}
	if _, ok := parent.Kind.(ast.KeywordPair); ok {
		owner := n.Parent(parent)
		if owner != nil && (owner.IsMessage() || owner.IsMessagePattern()) {
			return owner
		}
	}
	return nil
}

// FindMethodReferences returns every message that resolves to method.
func (t *Types) FindMethodReferences(method *ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, msg := range t.nav.AllMessages() {
		if m := t.MethodFromMessage(msg); m != nil && m.ID == method.ID {
			out = append(out, msg)
		}
	}
	return out
}
