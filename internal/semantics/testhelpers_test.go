package semantics_test

import (
	"fmt"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/parser"
	"loa/internal/semantics"
	"loa/internal/source"
	"loa/internal/stdlib"
)

// program is a parsed set of test modules plus the standard library.
type program struct {
	t        *testing.T
	analysis *semantics.Analysis
	sources  map[source.URI]*source.Source
	trees    map[source.URI]*ast.Tree
}

func summarize(diags []diag.Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("%s %s", d.Primary, d.Message)
	}
	return strings.Join(lines, "; ")
}

// analyze parses every module (name → code) without syntax errors. Names
// ending in ":repl" are parsed as REPL lines.
func analyze(t *testing.T, modules map[string]string) *program {
	t.Helper()
	p := &program{
		t:       t,
		sources: make(map[source.URI]*source.Source),
		trees:   make(map[source.URI]*ast.Tree),
	}
	std, err := stdlib.Sources()
	if err != nil {
		t.Fatalf("stdlib: %v", err)
	}
	srcs := append([]*source.Source(nil), std...)
	for name, code := range modules {
		if strings.HasSuffix(name, ":repl") {
			srcs = append(srcs, source.New(source.KindREPLLine, source.TestURI(name), code))
			continue
		}
		srcs = append(srcs, source.New(source.KindModule, source.TestURI(name), code))
	}
	for _, src := range srcs {
		tree, diags := parser.ParseSource(src)
		if len(diags) != 0 {
			t.Fatalf("%s: syntax errors: %s", src.URI, summarize(diags))
		}
		p.sources[src.URI] = src
		p.trees[src.URI] = tree
	}
	p.analysis = semantics.NewAnalysis(p.trees)
	return p
}

func analyzeOne(t *testing.T, code string) *program {
	t.Helper()
	return analyze(t, map[string]string{"main.loa": code})
}

// at returns the innermost node of the given kind containing the n-th
// occurrence (0-based) of marker in module name.
func (p *program) at(name, marker string, n int, kind string) *ast.Node {
	p.t.Helper()
	uri := source.TestURI(name)
	src, ok := p.sources[uri]
	if !ok {
		p.t.Fatalf("no module %q", name)
	}
	offset := -1
	from := 0
	for i := 0; i <= n; i++ {
		idx := strings.Index(src.Code[from:], marker)
		if idx < 0 {
			p.t.Fatalf("marker %q #%d not found in %s", marker, n, name)
		}
		offset = from + idx
		from = offset + len(marker)
	}
	for _, node := range p.trees[uri].NodesAround(src.LocationAt(offset)) {
		if ast.KindName(node.Kind) == kind {
			return node
		}
	}
	p.t.Fatalf("no %s around %q #%d in %s", kind, marker, n, name)
	return nil
}

func (p *program) main(marker string, n int, kind string) *ast.Node {
	p.t.Helper()
	return p.at("main.loa", marker, n, kind)
}

func (p *program) typeOf(node *ast.Node) string {
	return p.analysis.Types.TypeOf(node).String()
}
