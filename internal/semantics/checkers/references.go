package checkers

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

func checkUndefinedReferences(c *Context) {
	for _, sym := range c.Nav.AllReferenceSymbols(semantics.DeclValue) {
		if _, ok := c.Analysis.FindUsage(sym); ok {
			continue
		}
		name, _, _ := c.Nav.SymbolOf(sym)
		c.Report(diag.NewUndefinedReference(sym.Span, name))
	}
}

func checkUndefinedTypeReferences(c *Context) {
	for _, sym := range c.Nav.AllReferenceSymbols(semantics.DeclType) {
		if _, ok := c.Analysis.FindUsage(sym); ok {
			continue
		}
		name, _, _ := c.Nav.SymbolOf(sym)
		c.Report(diag.NewUndefinedTypeReference(sym.Span, name))
	}
}

// checkUndefinedBehaviours reports messages the receiver doesn't answer.
// Receivers of unknown type are skipped: whatever made them unknown is
// reported on its own.
func checkUndefinedBehaviours(c *Context) {
	for _, msg := range c.Nav.AllMessages() {
		receiver := c.Nav.ReceiverOfMessage(msg)
		if receiver == nil {
			continue
		}
		typ := c.Types.TypeOfExpression(receiver)
		if semantics.IsUnknown(typ) {
			continue
		}
		if self, ok := typ.(semantics.SelfType); ok && semantics.IsUnknown(self.Of) {
			continue
		}
		selector, ok := c.Nav.MessageSelector(msg)
		if !ok {
			continue
		}
		if _, ok := c.Types.BehaviourBySelector(typ, selector); ok {
			continue
		}
		c.Report(diag.NewUndefinedBehaviour(msg.Span, typ.String(), selector))
	}
}

func checkImports(c *Context) {
	for _, imp := range c.Nav.AllImports() {
		k := imp.Kind.(ast.ImportDirective)
		qs := c.Nav.FindChild(imp, k.QualifiedSymbol)
		if qs == nil {
			continue
		}
		name := c.Nav.QualifiedSymbolString(qs)
		decl := c.Nav.FindDeclarationFromImport(imp)
		switch {
		case decl == nil:
			c.Report(diag.NewUndefinedImport(qs.Span, name))
		case !c.Nav.DeclarationIsExported(decl):
			c.Report(diag.NewUnexportedImport(qs.Span, name))
		}
	}
}

func checkTypeArgumentCounts(c *Context) {
	for _, te := range c.Nav.AllReferenceTypeExpressions() {
		decl := c.Nav.FindDeclaration(te, semantics.DeclType)
		if decl == nil || !semantics.IsDeclarationOf(decl, semantics.DeclType) {
			continue
		}
		params := len(c.Nav.TypeParametersOf(decl))
		args := len(c.Nav.TypeArgumentsOf(te))
		if params == args {
			continue
		}
		name, _, _ := c.Nav.SymbolOf(te)
		c.Report(diag.NewWrongNumberOfTypeArguments(te.Span, name, params, args))
	}
}
