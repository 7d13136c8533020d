package parser

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/lexer"
	"loa/internal/source"
	"loa/internal/token"
)

type Options struct {
	// MaxErrors ограничивает число синтаксических ошибок; 0: без лимита.
	MaxErrors uint
}

// Parser: состояние парсера на один источник.
type Parser struct {
	src     *source.Source
	toks    []token.Token // только значимые токены, последний всегда EOF
	pos     int
	tree    *ast.Tree
	opts    Options
	rep     diag.SliceReporter
	errors  uint
	lastEnd source.Location // конец последнего съеденного токена
}

// New creates a parser over the significant tokens of src.
func New(src *source.Source) *Parser {
	return NewWithOptions(src, Options{})
}

func NewWithOptions(src *source.Source, opts Options) *Parser {
	all := lexer.Tokenize(src)
	toks := make([]token.Token, 0, len(all)/2+1)
	for _, tok := range all {
		if tok.Kind.IsTrivia() {
			continue
		}
		toks = append(toks, tok)
	}
	return &Parser{
		src:     src,
		toks:    toks,
		tree:    ast.NewTree(src),
		opts:    opts,
		lastEnd: src.LocationAt(0),
	}
}

// Parse parses a whole module. It never fails: malformed input yields a tree
// with missing children plus syntax diagnostics.
func (p *Parser) Parse() (*ast.Tree, []diag.Diagnostic) {
	root := ast.NewRootBuilder(p.src.LocationAt(0))
	module := p.parseModule(root)
	p.finishRoot(root, module)
	return p.tree, p.rep.Items
}

// ParseREPLLine parses a line typed into the REPL (or the bootstrap main
// source): a sequence of declarations, imports, directives and expressions.
func (p *Parser) ParseREPLLine() (*ast.Tree, []diag.Diagnostic) {
	root := ast.NewRootBuilder(p.src.LocationAt(0))
	line := p.parseREPLLine(root)
	p.finishRoot(root, line)
	return p.tree, p.rep.Items
}

// ParseSource picks the entry point by the kind of the source.
func ParseSource(src *source.Source) (*ast.Tree, []diag.Diagnostic) {
	p := New(src)
	switch src.Kind {
	case source.KindREPLLine, source.KindMain:
		return p.ParseREPLLine()
	default:
		return p.Parse()
	}
}

// корень покрывает весь исходник, чтобы NodeAt находил его из любой позиции
func (p *Parser) finishRoot(root *ast.NodeBuilder, kind ast.Kind) {
	node := root.Finalize(p.src.EndLocation(), kind)
	p.tree.Add(node)
	p.tree.Root = node.ID
}
