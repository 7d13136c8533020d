package parser

import (
	"slices"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/source"
	"loa/internal/token"
)

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

// peekN смотрит на n токенов вперёд, не выходя за EOF.
func (p *Parser) peekN(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

// advance: съедает следующий токен и обновляет lastEnd
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.pos++
		p.lastEnd = tok.Span.End
	}
	return tok
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// atSymbol: контекстные слова (`var`, `init`, `Self`) лексер отдаёт как символы.
func (p *Parser) atSymbol(text string) bool {
	tok := p.peek()
	return tok.Kind == token.SimpleSymbol && tok.Text == text
}

func (p *Parser) atOperator(text string) bool {
	tok := p.peek()
	return tok.Kind == token.Operator && tok.Text == text
}

// atKeywordStart: `name:` начинает ключевое сообщение или пару.
func (p *Parser) atKeywordStart() bool {
	return p.at(token.SimpleSymbol) && p.peekN(1).Kind == token.Colon
}

func (p *Parser) atBinaryOperator() bool {
	return p.peek().Kind.IsBinaryOperator()
}

// eat съедает токен, если он нужного вида.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect: ожидаем конкретный токен. Если нет, репортим и возвращаем false, ничего не съедая.
func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errHere("Expected " + what + ".")
	return p.peek(), false
}

// startLoc: начало следующего значимого токена.
func (p *Parser) startLoc() source.Location {
	return p.peek().Span.Start
}

// diagnosticSpan: на EOF указываем сразу за последним съеденным токеном.
func (p *Parser) diagnosticSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF && p.pos > 0 {
		return source.Span{Start: p.lastEnd, End: p.lastEnd}
	}
	return tok.Span
}

func (p *Parser) errHere(msg string) {
	p.errAt(p.diagnosticSpan(), msg)
}

func (p *Parser) errAt(sp source.Span, msg string) {
	p.errors++
	if p.opts.MaxErrors != 0 && p.errors > p.opts.MaxErrors {
		return
	}
	p.rep.Report(diag.NewSyntaxError(sp, msg))
}

// finish закрывает узел концом последнего съеденного токена и кладёт в дерево.
func (p *Parser) finish(b *ast.NodeBuilder, kind ast.Kind) ast.Id {
	node := b.Finalize(p.lastEnd, kind)
	p.tree.Add(node)
	return node.ID
}

// reparent переносит уже готовый узел под нового родителя (сворачивание цепочек сообщений).
func (p *Parser) reparent(id, parent ast.Id) {
	if n := p.tree.Get(id); n != nil {
		n.Parent = parent
	}
}

// leafNode строит узел из одного токена.
func (p *Parser) leafNode(parent *ast.NodeBuilder, kind func(token.Token) ast.Kind) ast.Id {
	b := parent.Child(p.startLoc())
	tok := p.advance()
	return p.finish(b, kind(tok))
}

func (p *Parser) parseSymbol(parent *ast.NodeBuilder) ast.Id {
	if !p.at(token.SimpleSymbol) {
		return ast.Null
	}
	return p.leafNode(parent, func(tok token.Token) ast.Kind { return ast.Symbol{Token: tok} })
}

// expectSymbol: как parseSymbol, но с диагностикой.
func (p *Parser) expectSymbol(parent *ast.NodeBuilder, what string) ast.Id {
	if id := p.parseSymbol(parent); id != ast.Null {
		return id
	}
	p.errHere("Expected " + what + ".")
	return ast.Null
}

// expectPeriod завершает объявление или член класса.
func (p *Parser) expectPeriod() {
	p.expect(token.Period, "`.`")
}

// discard удаляет поддерево, разобранное только ради восстановления после ошибки.
func (p *Parser) discard(id ast.Id) {
	n := p.tree.Get(id)
	if n == nil {
		return
	}
	for _, c := range n.Children() {
		p.discard(c)
	}
	p.tree.Remove(id)
}
