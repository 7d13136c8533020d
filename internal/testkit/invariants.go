// Package testkit holds structural checks shared by parser tests and the
// fuzz harnesses.
package testkit

import (
	"fmt"

	"loa/internal/ast"
	"loa/internal/token"
)

// CheckTree runs the structural invariants on a parsed tree:
// 1) child ids resolve and parent links agree (ast.Tree.Validate)
// 2) every span belongs to the tree's source and lies within its text
// 3) no span ends before it starts
func CheckTree(tree *ast.Tree) error {
	if tree == nil || tree.Source == nil {
		return fmt.Errorf("nil tree or source")
	}
	if err := tree.Validate(); err != nil {
		return err
	}
	size := len(tree.Source.Code)
	for id, n := range tree.Nodes {
		sp := n.Span
		if sp.URI() != tree.Source.URI {
			return fmt.Errorf("node %s: span points to %s, tree is %s", id, sp.URI(), tree.Source.URI)
		}
		if sp.Start.Offset < 0 || sp.End.Offset > size {
			return fmt.Errorf("node %s (%s): span %d..%d outside 0..%d", id, ast.KindName(n.Kind), sp.Start.Offset, sp.End.Offset, size)
		}
		if sp.End.Offset < sp.Start.Offset {
			return fmt.Errorf("node %s (%s): span ends before it starts: %s", id, ast.KindName(n.Kind), sp)
		}
	}
	return nil
}

// CheckTokens verifies a token stream: offsets never go back, spans stay
// within size bytes, and exactly one EOF closes the stream.
func CheckTokens(tokens []token.Token, size int) error {
	if len(tokens) == 0 {
		return fmt.Errorf("empty token stream")
	}
	last := 0
	for i, tok := range tokens {
		start, end := tok.Span.Start.Offset, tok.Span.End.Offset
		if start < last || end < start || end > size {
			return fmt.Errorf("token %d (%v): span %d..%d after offset %d of %d", i, tok.Kind, start, end, last, size)
		}
		last = start
		isEOF := tok.Kind == token.EOF
		if isEOF != (i == len(tokens)-1) {
			return fmt.Errorf("token %d: EOF must close the stream and appear once", i)
		}
	}
	return nil
}
