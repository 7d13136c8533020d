package parser

import (
	"loa/internal/ast"
	"loa/internal/token"
)

// parseClass: 'partial'? 'class' symbol typeParams? (classBody | '.')
func (p *Parser) parseClass(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	var class ast.Class
	if p.eat(token.KwPartial) {
		class.Partial = true
	}
	p.expect(token.KwClass, "`class`")
	class.Symbol = p.expectSymbol(b, "class name")
	if p.at(token.OpenAngle) {
		class.TypeParameters = p.parseTypeParameterList(b)
	}
	switch {
	case p.at(token.OpenCurly):
		class.Body = p.parseClassBody(b)
	case p.eat(token.Period):
	default:
		p.errHere("Expected class body or `.`.")
	}
	return p.finish(b, class)
}

func (p *Parser) parseTypeParameterList(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // '<'
	var list ast.TypeParameterList
	for !p.atAny(token.CloseAngle, token.EOF, token.OpenCurly, token.Period) {
		before := p.pos
		if param := p.parseTypeParameter(b); param != ast.Null {
			list.Parameters = append(list.Parameters, param)
		}
		if p.pos == before {
			p.errHere("Expected type parameter.")
			p.advance()
			continue
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseAngle, "`>`")
	return p.finish(b, list)
}

func (p *Parser) parseTypeParameter(parent *ast.NodeBuilder) ast.Id {
	if !p.atAny(token.KwIn, token.KwOut, token.KwInout, token.SimpleSymbol) {
		return ast.Null
	}
	b := parent.Child(p.startLoc())
	param := ast.TypeParameter{Variance: ast.Invariant}
	switch p.peek().Kind {
	case token.KwIn:
		param.Variance = ast.In
		p.advance()
	case token.KwOut:
		param.Variance = ast.Out
		p.advance()
	case token.KwInout:
		param.Variance = ast.Inout
		p.advance()
	}
	param.Symbol = p.expectSymbol(b, "type parameter name")
	return p.finish(b, param)
}

func (p *Parser) parseClassBody(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // '{'
	var body ast.ClassBody
	for !p.atAny(token.CloseCurly, token.EOF) {
		before := p.pos
		if member := p.parseClassMember(b); member != ast.Null {
			body.Members = append(body.Members, member)
		}
		if p.pos == before {
			p.errHere("Expected class member.")
			p.advance()
		}
	}
	p.expect(token.CloseCurly, "`}`")
	return p.finish(b, body)
}

// parseClassMember: is-директива, переменная, инициализатор или метод.
func (p *Parser) parseClassMember(parent *ast.NodeBuilder) ast.Id {
	if p.at(token.KwIs) {
		b := parent.Child(p.startLoc())
		p.advance()
		typ := p.parseTypeExpression(b)
		if typ == ast.Null {
			p.errHere("Expected type expression.")
		}
		p.expectPeriod()
		return p.finish(b, ast.IsDirective{TypeExpression: typ})
	}

	b := parent.Child(p.startLoc())
	vis := ast.VisDefault
	switch {
	case p.eat(token.KwPublic):
		vis = ast.VisPublic
	case p.eat(token.KwPrivate):
		vis = ast.VisPrivate
	}

	switch {
	case p.atSymbol("var") && p.startsTypeExpression(1):
		p.advance()
		v := ast.Variable{Visibility: vis}
		v.TypeExpression = p.parseTypeExpression(b)
		v.Symbol = p.expectSymbol(b, "variable name")
		p.expectPeriod()
		return p.finish(b, v)
	case p.atSymbol("init") && p.peekN(1).Kind == token.SimpleSymbol && p.peekN(2).Kind == token.Colon:
		p.advance()
		return p.parseInitializer(b, vis)
	}

	native := p.eat(token.KwNative)
	sig := p.parseSignature(b)
	if sig == ast.Null {
		if vis == ast.VisDefault && !native {
			// ничего не съели: пусть цикл тела класса сообщит об ошибке
			return ast.Null
		}
		p.errHere("Expected method signature.")
	}
	method := ast.Method{Visibility: vis, Native: native, Signature: sig}
	if p.at(token.FatArrow) {
		bodyB := b.Child(p.startLoc())
		p.advance()
		expr := p.parseExpression(bodyB)
		if expr == ast.Null {
			p.errHere("Expected expression.")
		}
		method.Body = p.finish(bodyB, ast.MethodBody{Expression: expr})
		if native {
			p.errAt(p.tree.Get(method.Body).Span, "Native methods cannot have a body.")
		}
	}
	p.expectPeriod()
	return p.finish(b, method)
}

// parseInitializer: `init` уже съеден; keywordPattern '=>' (keyword: expression)+ '.'
func (p *Parser) parseInitializer(b *ast.NodeBuilder, vis ast.Visibility) ast.Id {
	init := ast.Initializer{Visibility: vis}
	init.MessagePattern = p.parseKeywordPattern(b)
	if _, ok := p.expect(token.FatArrow, "`=>`"); ok {
		for p.atKeywordStart() {
			init.KeywordPairs = append(init.KeywordPairs, p.parseKeywordPair(b, p.parseBinaryExpression))
		}
		if len(init.KeywordPairs) == 0 {
			p.errHere("Expected variable assignment.")
		}
	}
	p.expectPeriod()
	return p.finish(b, init)
}
