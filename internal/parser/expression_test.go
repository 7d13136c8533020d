package parser

import (
	"testing"

	"loa/internal/ast"
)

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"reference", "a", "a"},
		{"unary chain", "a b c", "((a b) c)"},
		{"binary left assoc", "1 + 2 * 3", "((1 + 2) * 3)"},
		{"unary binds tighter", "a b + c d", "((a b) + (c d))"},
		{"keyword last", "a b + c d: e f", "(((a b) + c) d: (e f))"},
		{"multi keyword", "d at: 1 put: 2 + 3", "(d at: 1 put: (2 + 3))"},
		{"parens", "(a + b) * c", "([(a + b)] * c)"},
		{"self", "self foo", "(self foo)"},
		{"negative literal", "x - -1", "(x - -1)"},
		{"minus without space is binary", "x -1", "(x - 1)"},
		{"leading negative", "-2 abs", "(-2 abs)"},
		{"negative float", "-0.5", "-1/2"},
		{"shift operator", "a >> b", "(a >> b)"},
		{"less than", "a < b", "(a < b)"},
		{"slash", "a / b", "(a / b)"},
		{"cascade", "a foo; bar: 1; + 2", "(a foo; bar: 1; + 2)"},
		{"cascade receiver is last receiver", "a b c; d", "((a b) c; d)"},
		{"let expression", "(let x = 1. x + x)", "[(let x = 1. (x + x))]"},
		{"typed let expression", "(let Integer x = 1. x)", "[(let x = 1. x)]"},
		{"panic", "panic \"boom\"", "(panic \"boom\")"},
		{"symbol literal", "#at:put:", "#at:put:"},
		{"character", "'a'", "'a'"},
		{"radix", "16#FF", "255"},
		{"float", "1.5", "3/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseExpr(t, tt.code); got != tt.want {
				t.Fatalf("parse %q:\nwant %s\ngot  %s", tt.code, tt.want, got)
			}
		})
	}
}

func TestStringLiteralValues(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{`"plain"`, `"plain"`},
		{`"a\nb"`, `"a\nb"`},
		{`"tab\tquote\""`, `"tab\tquote\""`},
		{`"\u{41}"`, `"A"`},
		{`"unknown \q"`, `"unknown q"`},
		{"\"e\u0301\"", "\"\u00e9\""}, // NFC
	}
	for _, tt := range tests {
		if got := parseExpr(t, tt.code); got != tt.want {
			t.Errorf("parse %s: want %s, got %s", tt.code, tt.want, got)
		}
	}
}

func TestLiteralErrors(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{`"abc`, "Unterminated string literal."},
		{`'ab'`, "Character literal must contain exactly one character."},
		{`''`, "Character literal must contain exactly one character."},
		{"a ;", "Cascade needs a message send."},
		{"a foo;", "Expected message."},
		{"(a", "Expected `)`."},
		{"a +", "Expected expression."},
		{":x 1", "Unknown directive `:x`."},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, diags := parseLine(t, tt.code)
			if !hasDiagnostic(diags, tt.want) {
				t.Fatalf("expected %q, got %s", tt.want, diagnosticsSummary(diags))
			}
		})
	}
}

func TestSendSpansAreTight(t *testing.T) {
	tree, _ := parseLine(t, "  foo bar: 1  ")
	var found bool
	tree.TraverseAll(func(n *ast.Node) bool {
		if n.Span.Start.Offset < 2 && n.ID != tree.Root {
			t.Errorf("node %s starts before its content", n)
		}
		if n.Span.End.Offset > 12 && n.ID != tree.Root {
			t.Errorf("node %s ends after its content", n)
		}
		found = true
		return true
	})
	if !found {
		t.Fatalf("nothing traversed")
	}
}
