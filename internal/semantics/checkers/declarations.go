package checkers

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

// checkDuplicateDeclarations reports every name declared more than once in
// the same scope. A class lives in both namespaces but is reported once.
// Partial classes only announce a class and never clash. Type parameters
// are scoped to their class.
func checkDuplicateDeclarations(c *Context) {
	reported := make(map[ast.Id]bool)
	for _, scope := range c.Nav.AllScopeRoots() {
		for _, kind := range []semantics.DeclarationKind{semantics.DeclType, semantics.DeclValue} {
			var decls []*ast.Node
			for _, decl := range c.Nav.AllDeclarationsInScope(scope, kind) {
				switch k := decl.Kind.(type) {
				case ast.Class:
					if k.Partial {
						continue
					}
				case ast.TypeParameter:
					continue
				}
				decls = append(decls, decl)
			}
			reportDuplicates(c, decls, reported)
		}
	}
	for _, class := range c.Nav.AllClasses() {
		reportDuplicates(c, c.Nav.TypeParametersOf(class), reported)
	}
}

func reportDuplicates(c *Context, decls []*ast.Node, reported map[ast.Id]bool) {
	var order []string
	byName := make(map[string][]*ast.Node)
	for _, decl := range decls {
		name, _, ok := c.Nav.SymbolOf(decl)
		if !ok {
			continue
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = append(byName[name], decl)
	}
	for _, name := range order {
		same := byName[name]
		if len(same) < 2 {
			continue
		}
		for _, decl := range same {
			_, sym, ok := c.Nav.SymbolOf(decl)
			if !ok || reported[sym.ID] {
				continue
			}
			reported[sym.ID] = true
			c.Report(diag.NewDuplicatedDeclaration(sym.Span, name, len(same)))
		}
	}
}
