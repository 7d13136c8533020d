package parser

import (
	"loa/internal/ast"
	"loa/internal/source"
	"loa/internal/token"
)

// parseSignature: messagePattern ('->' typeExpr)?
func (p *Parser) parseSignature(parent *ast.NodeBuilder) ast.Id {
	if !p.at(token.SimpleSymbol) && !p.atBinaryOperator() {
		return ast.Null
	}
	b := parent.Child(p.startLoc())
	var sig ast.Signature
	switch {
	case p.atKeywordStart():
		sig.MessagePattern = p.parseKeywordPattern(b)
	case p.at(token.SimpleSymbol):
		pb := b.Child(p.startLoc())
		sym := p.parseSymbol(pb)
		sig.MessagePattern = p.finish(pb, ast.UnaryMessagePattern{Symbol: sym})
	default:
		pb := b.Child(p.startLoc())
		op := p.parseOperator(pb)
		param := p.parseParameterPattern(pb)
		if param == ast.Null {
			p.errHere("Expected parameter.")
		}
		sig.MessagePattern = p.finish(pb, ast.BinaryMessagePattern{Operator: op, Parameter: param})
	}
	if p.at(token.Arrow) {
		rb := b.Child(p.startLoc())
		p.advance()
		typ := p.parseTypeExpression(rb)
		if typ == ast.Null {
			p.errHere("Expected return type.")
		}
		sig.ReturnType = p.finish(rb, ast.ReturnType{TypeExpression: typ})
	}
	return p.finish(b, sig)
}

func (p *Parser) parseKeywordPattern(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	var pattern ast.KeywordMessagePattern
	for p.atKeywordStart() {
		pattern.KeywordPairs = append(pattern.KeywordPairs, p.parseKeywordPair(b, func(pb *ast.NodeBuilder) ast.Id {
			param := p.parseParameterPattern(pb)
			if param == ast.Null {
				p.errHere("Expected parameter.")
			}
			return param
		}))
	}
	if len(pattern.KeywordPairs) == 0 {
		p.errHere("Expected keyword.")
	}
	return p.finish(b, pattern)
}

// parseKeywordPair: `keyword: value`, значение разбирает parseValue.
// Символ ключевого слова покрывает и двоеточие.
func (p *Parser) parseKeywordPair(parent *ast.NodeBuilder, parseValue func(*ast.NodeBuilder) ast.Id) ast.Id {
	b := parent.Child(p.startLoc())
	kb := b.Child(p.startLoc())
	kw := p.advance()
	p.advance() // ':'
	keyword := p.finish(kb, ast.Symbol{Token: kw})
	value := parseValue(b)
	return p.finish(b, ast.KeywordPair{Keyword: keyword, Value: value})
}

// parseParameterPattern: typeExpr? symbol
func (p *Parser) parseParameterPattern(parent *ast.NodeBuilder) ast.Id {
	if !p.at(token.SimpleSymbol) {
		return ast.Null
	}
	b := parent.Child(p.startLoc())
	var param ast.ParameterPattern
	typed := p.peekN(1).Kind == token.OpenAngle ||
		(p.startsTypeExpression(1) && p.peekN(2).Kind != token.Colon)
	if typed {
		param.TypeExpression = p.parseTypeExpression(b)
	}
	param.Symbol = p.expectSymbol(b, "parameter name")
	return p.finish(b, param)
}

// startsTypeExpression: токен на смещении n может начинать типовое выражение.
func (p *Parser) startsTypeExpression(n int) bool {
	return p.peekN(n).Kind == token.SimpleSymbol
}

// parseTypeExpression: 'Self' | symbol typeArgs?
func (p *Parser) parseTypeExpression(parent *ast.NodeBuilder) ast.Id {
	if !p.at(token.SimpleSymbol) {
		return ast.Null
	}
	b := parent.Child(p.startLoc())
	if p.atSymbol("Self") {
		p.advance()
		return p.finish(b, ast.SelfTypeExpression{})
	}
	typ := ast.ReferenceTypeExpression{Symbol: p.parseSymbol(b)}
	if p.at(token.OpenAngle) {
		typ.TypeArguments = p.parseTypeArgumentList(b)
	}
	return p.finish(b, typ)
}

func (p *Parser) parseTypeArgumentList(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // '<'
	var list ast.TypeArgumentList
	for !p.atAny(token.CloseAngle, token.EOF) {
		arg := p.parseTypeExpression(b)
		if arg == ast.Null {
			p.errHere("Expected type argument.")
			break
		}
		list.Arguments = append(list.Arguments, arg)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseAngle, "`>`")
	return p.finish(b, list)
}

// parseOperator съедает бинарный оператор. Лексер режет `>>` на две
// закрывающие угловые скобки, здесь они склеиваются обратно.
func (p *Parser) parseOperator(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	tok := p.advance()
	for tok.Kind == token.CloseAngle && p.at(token.CloseAngle) && p.peek().Span.Start.Offset == tok.Span.End.Offset {
		next := p.advance()
		tok.Text += next.Text
		tok.Span = source.Span{Start: tok.Span.Start, End: next.Span.End}
	}
	tok.Kind = token.Operator
	return p.finish(b, ast.Operator{Token: tok})
}
