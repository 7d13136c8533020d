// Package checkers runs the semantic checks over an analysed program and
// reports what is wrong with it.
package checkers

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

// Checker inspects the whole program and reports through the context.
type Checker struct {
	Name  string
	Check func(c *Context)
}

// Context is what a checker sees: the analysis and where to report.
type Context struct {
	Analysis *semantics.Analysis
	Nav      *semantics.Navigator
	Types    *semantics.Types

	reporter diag.Reporter
}

// Report forwards a ready diagnostic to the reporter.
func (c *Context) Report(d diag.Diagnostic) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(d)
}

// All returns every checker in the order they run.
func All() []Checker {
	return []Checker{
		{Name: "duplicate-declaration", Check: checkDuplicateDeclarations},
		{Name: "undefined-reference", Check: checkUndefinedReferences},
		{Name: "undefined-type-reference", Check: checkUndefinedTypeReferences},
		{Name: "undefined-behaviour", Check: checkUndefinedBehaviours},
		{Name: "invalid-import", Check: checkImports},
		{Name: "valid-inherit", Check: checkInherits},
		{Name: "type-assignment", Check: checkTypeAssignments},
		{Name: "type-parameter-variance", Check: checkVariance},
		{Name: "out-of-bounds-number", Check: checkNumberBounds},
		{Name: "imprecise-float-literal", Check: checkFloatPrecision},
		{Name: "private-methods", Check: checkPrivateAccess},
		{Name: "variable-initialization", Check: checkInitializers},
		{Name: "wrong-number-of-type-arguments", Check: checkTypeArgumentCounts},
	}
}

// Run runs the checkers in order against a. Checkers share the analysis
// caches, so they run one after another.
func Run(a *semantics.Analysis, r diag.Reporter, list ...Checker) {
	if len(list) == 0 {
		list = All()
	}
	c := &Context{Analysis: a, Nav: a.Navigator, Types: a.Types, reporter: r}
	for _, ch := range list {
		ch.Check(c)
	}
}

// Check runs every checker and returns the diagnostics in report order.
func Check(a *semantics.Analysis) []diag.Diagnostic {
	r := &diag.SliceReporter{}
	Run(a, r)
	return r.Items
}

func isKind[K ast.Kind](n *ast.Node) bool {
	if n == nil {
		return false
	}
	_, ok := n.Kind.(K)
	return ok
}
