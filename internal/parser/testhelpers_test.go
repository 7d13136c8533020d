package parser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/source"
)

func diagnosticsSummary(diags []diag.Diagnostic) string {
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func parseModule(t *testing.T, code string) (*ast.Tree, []diag.Diagnostic) {
	t.Helper()
	tree, diags := New(source.New(source.KindModule, source.TestURI("test.loa"), code)).Parse()
	if err := tree.Validate(); err != nil {
		t.Fatalf("tree is invalid: %v", err)
	}
	return tree, diags
}

func mustParseModule(t *testing.T, code string) *ast.Tree {
	t.Helper()
	tree, diags := parseModule(t, code)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(diags))
	}
	return tree
}

func parseLine(t *testing.T, code string) (*ast.Tree, []diag.Diagnostic) {
	t.Helper()
	tree, diags := New(source.REPLLine(1, code)).ParseREPLLine()
	if err := tree.Validate(); err != nil {
		t.Fatalf("tree is invalid: %v", err)
	}
	return tree, diags
}

// parseExpr parses a single REPL expression and renders it as an s-expression.
func parseExpr(t *testing.T, code string) string {
	t.Helper()
	tree, diags := parseLine(t, code)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics for %q: %s", code, diagnosticsSummary(diags))
	}
	line := tree.RootNode().Kind.(ast.REPLLine)
	if len(line.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(line.Statements))
	}
	stmt, ok := tree.Get(line.Statements[0]).Kind.(ast.REPLExpression)
	if !ok {
		t.Fatalf("expected expression statement, got %s", tree.Get(line.Statements[0]))
	}
	return describe(tree, stmt.Expression)
}

func symbolText(tree *ast.Tree, id ast.Id) string {
	n := tree.Get(id)
	if n == nil {
		return "<nil>"
	}
	return n.Kind.(ast.Symbol).Token.Text
}

func describe(tree *ast.Tree, id ast.Id) string {
	n := tree.Get(id)
	if n == nil {
		return "<nil>"
	}
	switch k := n.Kind.(type) {
	case ast.ReferenceExpression:
		return symbolText(tree, k.Symbol)
	case ast.SelfExpression:
		return "self"
	case ast.IntegerExpression:
		return k.Value.String()
	case ast.FloatExpression:
		return k.Value.RatString()
	case ast.StringExpression:
		return strconv.Quote(k.Value)
	case ast.CharacterExpression:
		return strconv.QuoteRune(k.Value)
	case ast.SymbolExpression:
		return "#" + k.Value
	case ast.MessageSendExpression:
		return "(" + describe(tree, k.Receiver) + " " + describe(tree, k.Message) + ")"
	case ast.CascadeExpression:
		msgs := make([]string, len(k.Messages))
		for i, m := range k.Messages {
			msgs[i] = describe(tree, m)
		}
		return "(" + describe(tree, k.Receiver) + " " + strings.Join(msgs, "; ") + ")"
	case ast.UnaryMessage:
		return symbolText(tree, k.Symbol)
	case ast.BinaryMessage:
		return tree.Get(k.Operator).Kind.(ast.Operator).Token.Text + " " + describe(tree, k.Expression)
	case ast.KeywordMessage:
		pairs := make([]string, len(k.KeywordPairs))
		for i, p := range k.KeywordPairs {
			pair := tree.Get(p).Kind.(ast.KeywordPair)
			pairs[i] = symbolText(tree, pair.Keyword) + ": " + describe(tree, pair.Value)
		}
		return strings.Join(pairs, " ")
	case ast.TupleExpression:
		return "[" + describe(tree, k.Expression) + "]"
	case ast.LetExpression:
		binding := tree.Get(k.Binding).Kind.(ast.LetBinding)
		return "(let " + symbolText(tree, binding.Symbol) + " = " + describe(tree, binding.Expression) +
			". " + describe(tree, k.Expression) + ")"
	case ast.PanicExpression:
		return "(panic " + describe(tree, k.Expression) + ")"
	default:
		return ast.KindName(n.Kind)
	}
}

func hasDiagnostic(diags []diag.Diagnostic, msg string) bool {
	for _, d := range diags {
		if d.Message == msg {
			return true
		}
	}
	return false
}

func sourceFor(code string) *source.Source {
	return source.New(source.KindModule, source.TestURI("test.loa"), code)
}
