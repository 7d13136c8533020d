package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"loa/internal/ast"
	"loa/internal/token"
)

// ASTNodeOutput представляет узел AST для JSON вывода
type ASTNodeOutput struct {
	Kind     string          `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Span     string          `json:"span"`
	Children []ASTNodeOutput `json:"children,omitempty"`
}

// leafToken returns the token a leaf node was built from.
func leafToken(n *ast.Node) (token.Token, bool) {
	switch k := n.Kind.(type) {
	case ast.Symbol:
		return k.Token, true
	case ast.Operator:
		return k.Token, true
	case ast.REPLDirective:
		return k.Symbol, true
	case ast.StringExpression:
		return k.Token, true
	case ast.CharacterExpression:
		return k.Token, true
	case ast.SymbolExpression:
		return k.Token, true
	case ast.IntegerExpression:
		return k.Token, true
	case ast.FloatExpression:
		return k.Token, true
	}
	return token.Token{}, false
}

func nodeLabel(n *ast.Node) string {
	var b strings.Builder
	b.WriteString(ast.KindName(n.Kind))
	if tok, ok := leafToken(n); ok {
		fmt.Fprintf(&b, " %q", tok.Text)
	}
	fmt.Fprintf(&b, " (%d:%d-%d:%d)", n.Span.Start.Line, n.Span.Start.Character, n.Span.End.Line, n.Span.End.Character)
	return b.String()
}

// FormatASTPretty печатает дерево с префиксами ├─ и └─.
func FormatASTPretty(w io.Writer, tree *ast.Tree) error {
	root := tree.RootNode()
	if root == nil {
		_, err := fmt.Fprintln(w, "<empty>")
		return err
	}
	var b strings.Builder
	b.WriteString(nodeLabel(root))
	b.WriteByte('\n')
	writeChildren(&b, tree, root, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChildren(b *strings.Builder, tree *ast.Tree, n *ast.Node, prefix string) {
	children := tree.Children(n)
	for i, c := range children {
		branch, next := "├─ ", "│  "
		if i == len(children)-1 {
			branch, next = "└─ ", "   "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(nodeLabel(c))
		b.WriteByte('\n')
		writeChildren(b, tree, c, prefix+next)
	}
}

// BuildASTOutput converts the subtree below n.
func BuildASTOutput(tree *ast.Tree, n *ast.Node) ASTNodeOutput {
	out := ASTNodeOutput{
		Kind: ast.KindName(n.Kind),
		Span: fmt.Sprintf("%d:%d-%d:%d", n.Span.Start.Line, n.Span.Start.Character, n.Span.End.Line, n.Span.End.Character),
	}
	if tok, ok := leafToken(n); ok {
		out.Text = tok.Text
	}
	for _, c := range tree.Children(n) {
		out.Children = append(out.Children, BuildASTOutput(tree, c))
	}
	return out
}

// FormatASTJSON форматирует AST в JSON
func FormatASTJSON(w io.Writer, tree *ast.Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	root := tree.RootNode()
	if root == nil {
		return enc.Encode(nil)
	}
	return enc.Encode(BuildASTOutput(tree, root))
}
