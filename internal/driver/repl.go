package driver

import (
	"context"
	"maps"
	"strings"
	"unicode"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/generation"
	"loa/internal/parser"
	"loa/internal/semantics"
	"loa/internal/semantics/checkers"
	"loa/internal/source"
	"loa/internal/trace"
	"loa/internal/vm"
)

// Session is an interactive program: modules compiled once, then lines
// added one at a time to the same VM. A line with errors is discarded.
type Session struct {
	trees   map[source.URI]*ast.Tree
	sources map[source.URI]*source.Source
	machine *vm.VM
	next    int
	opts    Options
}

// LineResult is the outcome of one REPL line.
type LineResult struct {
	Source      *source.Source
	Diagnostics []diag.Diagnostic
	// Value is the value of the last expression statement, if any.
	Value *vm.Object
}

// NewSession builds the modules and runs their declarations on a new VM.
func NewSession(ctx context.Context, srcs []*source.Source, rt vm.Runtime, opts Options) (*Session, *Result, error) {
	opts.Cache = nil
	res, err := Build(ctx, srcs, opts)
	if err != nil {
		return nil, res, err
	}
	s := &Session{
		trees:   make(map[source.URI]*ast.Tree, len(srcs)),
		sources: res.Sources,
		machine: vm.New(rt).WithTracer(trace.FromContext(ctx)),
		next:    1,
		opts:    opts,
	}
	for _, uri := range res.Analysis.URIs() {
		s.trees[uri] = res.Analysis.Tree(uri)
	}
	if err := s.machine.Eval(res.Instructions); err != nil {
		return nil, res, err
	}
	return s, res, nil
}

// Sources returns every source the session knows, including accepted lines.
func (s *Session) Sources() map[source.URI]*source.Source {
	return s.sources
}

// Eval compiles and runs one line. Diagnostics only cover the line itself;
// the modules were checked when the session started.
func (s *Session) Eval(ctx context.Context, code string, directives generation.Directives) (*LineResult, error) {
	src := source.REPLLine(s.next, code)
	s.next++
	res := &LineResult{Source: src}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "repl_line", 0).WithExtra("uri", src.URI.String())
	defer span.End("")

	tree, diags := parser.ParseSource(src)
	trees := maps.Clone(s.trees)
	trees[src.URI] = tree
	a := semantics.NewAnalysis(trees)

	bag := diag.NewBag(s.opts.MaxDiagnostics)
	bag.AddAll(diags)
	for _, d := range checkers.Check(a) {
		if d.Primary.URI() == src.URI {
			bag.Add(d)
		}
	}
	bag.Sort()
	res.Diagnostics = bag.Items()
	if bag.HasErrors() {
		return res, ErrDiagnostics
	}

	is, err := generation.New(a).WithDirectives(directives).Generate(src.URI)
	if err != nil {
		return res, err
	}
	// строка принята: её объявления видны следующим строкам
	s.trees = trees
	s.sources[src.URI] = src

	height := s.machine.Len()
	if err := s.machine.Eval(is); err != nil {
		return res, err
	}
	if s.machine.Len() > height {
		res.Value, err = s.machine.EvalPop()
		if err != nil {
			return res, err
		}
	}
	// промежуточные значения выражений не копятся между строками
	for s.machine.Len() > height {
		if _, err := s.machine.EvalPop(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Incomplete reports whether code breaks off in the middle of a construct:
// a syntax error right at the end of the text means more lines may fix it.
func Incomplete(code string) bool {
	end := len(strings.TrimRightFunc(code, unicode.IsSpace))
	if end == 0 {
		return false
	}
	_, diags := parser.ParseSource(source.REPLLine(0, code))
	for _, d := range diags {
		if d.Severity == diag.SevError && d.Primary.Start.Offset >= end {
			return true
		}
	}
	return false
}
