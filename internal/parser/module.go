package parser

import (
	"loa/internal/ast"
	"loa/internal/token"
)

// parseModule: основной цикл верхнего уровня:
// namespace? import* declaration*, импорты допускаются и между объявлениями.
func (p *Parser) parseModule(root *ast.NodeBuilder) ast.Kind {
	var mod ast.Module
	if p.at(token.KwNamespace) {
		mod.Namespace = p.parseNamespace(root)
	}
	for !p.at(token.EOF) {
		before := p.pos
		switch {
		case p.at(token.KwImport):
			if id := p.parseImport(root); id != ast.Null {
				mod.Imports = append(mod.Imports, id)
			}
		case p.at(token.KwNamespace):
			p.errHere("Namespace directive must come first.")
			p.discard(p.parseNamespace(root))
		default:
			if id := p.parseDeclaration(root); id != ast.Null {
				mod.Declarations = append(mod.Declarations, id)
			}
		}
		if p.pos == before {
			p.errHere("Expected declaration.")
			p.advance()
		}
	}
	return mod
}

func (p *Parser) parseNamespace(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // namespace
	q := p.parseQualifiedSymbol(b)
	p.expectPeriod()
	return p.finish(b, ast.NamespaceDirective{QualifiedSymbol: q})
}

func (p *Parser) parseImport(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // import
	imp := ast.ImportDirective{QualifiedSymbol: p.parseQualifiedSymbol(b)}
	if p.eat(token.KwAs) {
		imp.Alias = p.expectSymbol(b, "import alias")
	}
	p.expectPeriod()
	return p.finish(b, imp)
}

// parseQualifiedSymbol: `A/B/C`.
func (p *Parser) parseQualifiedSymbol(parent *ast.NodeBuilder) ast.Id {
	if !p.at(token.SimpleSymbol) {
		p.errHere("Expected qualified symbol.")
		return ast.Null
	}
	b := parent.Child(p.startLoc())
	var q ast.QualifiedSymbol
	q.Symbols = append(q.Symbols, p.parseSymbol(b))
	for p.at(token.Slash) {
		p.advance()
		sym := p.expectSymbol(b, "symbol after `/`")
		if sym == ast.Null {
			break
		}
		q.Symbols = append(q.Symbols, sym)
	}
	return p.finish(b, q)
}

// parseDeclaration выбирает по первому токену: class, let или export-обёртку.
// Ничего не съедает, если токен не начинает объявление.
func (p *Parser) parseDeclaration(parent *ast.NodeBuilder) ast.Id {
	switch p.peek().Kind {
	case token.KwExport:
		b := parent.Child(p.startLoc())
		p.advance()
		decl := p.parseDeclaration(b)
		if decl == ast.Null {
			p.errHere("Expected declaration after `export`.")
		} else if _, nested := p.tree.Get(decl).Kind.(ast.Exported); nested {
			p.errAt(p.tree.Get(decl).Span, "Declaration is exported twice.")
		}
		return p.finish(b, ast.Exported{Declaration: decl})
	case token.KwPartial, token.KwClass:
		return p.parseClass(parent)
	case token.KwLet:
		b := parent.Child(p.startLoc())
		p.advance()
		binding := p.parseLetBindingAfterLet(b)
		p.expectPeriod()
		return binding
	default:
		return ast.Null
	}
}

// parseREPLLine: (directive | import | declaration | expression) разделённые точками.
func (p *Parser) parseREPLLine(root *ast.NodeBuilder) ast.Kind {
	var line ast.REPLLine
	for !p.at(token.EOF) {
		before := p.pos
		var stmt ast.Id
		switch {
		case p.at(token.Colon):
			stmt = p.parseREPLDirective(root)
		case p.at(token.KwImport):
			stmt = p.parseImport(root)
		case p.atAny(token.KwExport, token.KwPartial, token.KwClass, token.KwLet):
			stmt = p.parseDeclaration(root)
		default:
			b := root.Child(p.startLoc())
			expr := p.parseExpression(b)
			if expr == ast.Null {
				break
			}
			stmt = p.finish(b, ast.REPLExpression{Expression: expr})
			if !p.at(token.EOF) {
				p.expectPeriod()
			}
		}
		if stmt != ast.Null {
			line.Statements = append(line.Statements, stmt)
		}
		if p.pos == before {
			p.errHere("Expected expression.")
			p.advance()
		}
	}
	return line
}

// replDirectives: `:t` / `:type` печатает тип, `:b` / `:behaviours` печатает поведения.
var replDirectives = map[string]bool{
	"t":          true,
	"type":       true,
	"b":          true,
	"behaviours": true,
}

func (p *Parser) parseREPLDirective(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // ':'
	name, ok := p.expect(token.SimpleSymbol, "directive name")
	if ok && !replDirectives[name.Text] {
		p.errAt(name.Span, "Unknown directive `:"+name.Text+"`.")
	}
	dir := ast.REPLDirective{Symbol: name}
	dir.Expression = p.parseExpression(b)
	if dir.Expression == ast.Null {
		p.errHere("Expected expression.")
	}
	if !p.at(token.EOF) {
		p.expectPeriod()
	}
	return p.finish(b, dir)
}
