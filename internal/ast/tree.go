package ast

import (
	"errors"
	"fmt"
	"slices"

	"loa/internal/source"
)

// Tree is the arena of one parsed source.
type Tree struct {
	Source *source.Source
	Nodes  map[Id]*Node
	Root   Id
}

// NewTree creates an empty tree for src.
func NewTree(src *source.Source) *Tree {
	return &Tree{
		Source: src,
		Nodes:  make(map[Id]*Node, len(src.Code)/4+1),
	}
}

// Get resolves an id; absent ids yield nil.
func (t *Tree) Get(id Id) *Node {
	if t == nil || !id.IsValid() {
		return nil
	}
	return t.Nodes[id]
}

// Add inserts a node. The first parentless node becomes the root.
func (t *Tree) Add(n *Node) {
	t.Nodes[n.ID] = n
	if n.Parent == Null && t.Root == Null {
		t.Root = n.ID
	}
}

// Remove deletes a node without touching its children.
func (t *Tree) Remove(id Id) {
	delete(t.Nodes, id)
}

// RootNode returns the root node.
func (t *Tree) RootNode() *Node {
	return t.Get(t.Root)
}

// Children resolves the children of n.
func (t *Tree) Children(n *Node) []*Node {
	ids := n.Children()
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if c := t.Get(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Child resolves a single child id of n.
func (t *Tree) Child(n *Node, id Id) *Node {
	if n == nil {
		return nil
	}
	return t.Get(id)
}

// Parent resolves the parent of n.
func (t *Tree) Parent(n *Node) *Node {
	if n == nil {
		return nil
	}
	return t.Get(n.Parent)
}

// Traverse walks the subtree in pre-order. fn returns false to skip the
// children of the visited node.
func (t *Tree) Traverse(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range t.Children(n) {
		t.Traverse(c, fn)
	}
}

// TraverseAll walks the whole tree.
func (t *Tree) TraverseAll(fn func(*Node) bool) {
	t.Traverse(t.RootNode(), fn)
}

// ClosestUpwards returns the nearest node (n included) satisfying pred.
func (t *Tree) ClosestUpwards(n *Node, pred func(*Node) bool) *Node {
	for cur := n; cur != nil; cur = t.Parent(cur) {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

// AllDownwards collects every node below n (n included) satisfying pred.
func (t *Tree) AllDownwards(n *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	t.Traverse(n, func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// NodeAt returns the innermost node whose span contains loc.
func (t *Tree) NodeAt(loc source.Location) *Node {
	around := t.NodesAround(loc)
	if len(around) == 0 {
		return nil
	}
	return around[0]
}

// NodesAround returns every node containing loc, innermost first.
func (t *Tree) NodesAround(loc source.Location) []*Node {
	var chain []*Node
	cur := t.RootNode()
	if cur == nil || !cur.Span.Contains(loc) {
		return nil
	}
	for cur != nil {
		chain = append(chain, cur)
		var next *Node
		for _, c := range t.Children(cur) {
			if c.Span.Contains(loc) {
				next = c
				// на стыке двух детей выигрывает тот, что начинается в loc
				if c.Span.End.Offset == loc.Offset {
					continue
				}
				break
			}
		}
		cur = next
	}
	slices.Reverse(chain)
	return chain
}

// Namespace returns the qualified name declared by the module, if any.
func (t *Tree) Namespace() (string, bool) {
	root := t.RootNode()
	if root == nil {
		return "", false
	}
	mod, ok := root.Kind.(Module)
	if !ok {
		return "", false
	}
	ns := t.Get(mod.Namespace)
	if ns == nil {
		return "", false
	}
	dir := ns.Kind.(NamespaceDirective)
	return t.QualifiedName(t.Get(dir.QualifiedSymbol))
}

// QualifiedName joins the symbols of a QualifiedSymbol with '/'.
func (t *Tree) QualifiedName(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	qs, ok := n.Kind.(QualifiedSymbol)
	if !ok || len(qs.Symbols) == 0 {
		return "", false
	}
	var out []byte
	for i, id := range qs.Symbols {
		sym := t.Get(id)
		if sym == nil {
			return "", false
		}
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, sym.Kind.(Symbol).Token.Text...)
	}
	return string(out), true
}

// EndOfImportListLocation is where a new import directive should be inserted.
func (t *Tree) EndOfImportListLocation() source.Location {
	root := t.RootNode()
	if root == nil {
		return t.Source.LocationAt(0)
	}
	mod, ok := root.Kind.(Module)
	if !ok {
		return root.Span.Start
	}
	if n := len(mod.Imports); n > 0 {
		if last := t.Get(mod.Imports[n-1]); last != nil {
			return last.Span.End
		}
	}
	if ns := t.Get(mod.Namespace); ns != nil {
		return ns.Span.End
	}
	return t.Source.LocationAt(0)
}

// ErrInvalidTree is returned by Validate.
var ErrInvalidTree = errors.New("invalid tree")

// Validate checks that every child id resolves and parent links agree.
func (t *Tree) Validate() error {
	if t.Get(t.Root) == nil {
		return fmt.Errorf("%w: missing root %s", ErrInvalidTree, t.Root)
	}
	seen := make(map[Id]Id, len(t.Nodes))
	for id, n := range t.Nodes {
		if n.ID != id {
			return fmt.Errorf("%w: node stored under %s has id %s", ErrInvalidTree, id, n.ID)
		}
		for _, c := range n.Children() {
			child := t.Get(c)
			if child == nil {
				return fmt.Errorf("%w: %s references missing child %s", ErrInvalidTree, n, c)
			}
			if child.Parent != id {
				return fmt.Errorf("%w: %s has parent %s, expected %s", ErrInvalidTree, child, child.Parent, id)
			}
			if prev, dup := seen[c]; dup {
				return fmt.Errorf("%w: %s is a child of both %s and %s", ErrInvalidTree, c, prev, id)
			}
			seen[c] = id
		}
	}
	for id, n := range t.Nodes {
		if id == t.Root {
			continue
		}
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("%w: %s is unreachable", ErrInvalidTree, n)
		}
	}
	return nil
}
