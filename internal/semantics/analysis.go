package semantics

import (
	"loa/internal/ast"
	"loa/internal/source"
)

// Analysis bundles the queries over one immutable snapshot of a program.
// When any module changes the whole Analysis is rebuilt; nothing is
// invalidated piecemeal.
type Analysis struct {
	Navigator *Navigator
	Types     *Types

	program *ProgramNavigator
	usages  *Cache[ast.Id, *Usage]
}

// NewAnalysis builds an analysis over trees. The map must not be modified
// afterwards.
func NewAnalysis(trees map[source.URI]*ast.Tree) *Analysis {
	program := NewProgramNavigator(trees)
	nav := NewNavigator(program)
	return &Analysis{
		Navigator: nav,
		Types:     NewTypes(nav),
		program:   program,
		usages:    NewCache[ast.Id, *Usage](),
	}
}

// Clone returns an analysis sharing the trees and the caches. Both stay valid
// because the snapshot they were computed from never changes.
func (a *Analysis) Clone() *Analysis {
	c := *a
	return &c
}

// Tree returns the tree of uri, or nil.
func (a *Analysis) Tree(uri source.URI) *ast.Tree { return a.program.Tree(uri) }

// URIs lists the modules of the snapshot in a stable order.
func (a *Analysis) URIs() []source.URI { return a.program.URIs() }
