package parser

import (
	"loa/internal/ast"
	"loa/internal/source"
	"loa/internal/token"
)

// Приоритеты как в Smalltalk: унарные сообщения связывают сильнее бинарных,
// бинарные: сильнее ключевых. Цепочки сворачиваются влево: уже готовый
// получатель переносится под новый узел отправки.

// parseExpression: keyword-level выражение с необязательным каскадом.
func (p *Parser) parseExpression(parent *ast.NodeBuilder) ast.Id {
	expr := p.parseKeywordExpression(parent)
	if expr == ast.Null || !p.at(token.Semicolon) {
		return expr
	}
	return p.parseCascade(parent, expr)
}

func (p *Parser) parseKeywordExpression(parent *ast.NodeBuilder) ast.Id {
	start := p.startLoc()
	recv := p.parseBinaryExpression(parent)
	if recv == ast.Null || !p.atKeywordStart() {
		return recv
	}
	return p.wrapSend(parent, recv, start, p.parseKeywordMessage)
}

func (p *Parser) parseBinaryExpression(parent *ast.NodeBuilder) ast.Id {
	start := p.startLoc()
	recv := p.parseUnaryExpression(parent)
	if recv == ast.Null {
		return ast.Null
	}
	for p.atBinaryOperator() {
		recv = p.wrapSend(parent, recv, start, p.parseBinaryMessage)
	}
	return recv
}

func (p *Parser) parseUnaryExpression(parent *ast.NodeBuilder) ast.Id {
	start := p.startLoc()
	recv := p.parseLeaf(parent)
	if recv == ast.Null {
		return ast.Null
	}
	for p.at(token.SimpleSymbol) && p.peekN(1).Kind != token.Colon {
		recv = p.wrapSend(parent, recv, start, p.parseUnaryMessage)
	}
	return recv
}

// wrapSend строит MessageSendExpression вокруг готового получателя.
func (p *Parser) wrapSend(parent *ast.NodeBuilder, recv ast.Id, start source.Location, parseMessage func(*ast.NodeBuilder) ast.Id) ast.Id {
	s := parent.Child(start)
	p.reparent(recv, s.ID())
	msg := parseMessage(s)
	return p.finish(s, ast.MessageSendExpression{Receiver: recv, Message: msg})
}

func (p *Parser) parseUnaryMessage(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	sym := p.parseSymbol(b)
	return p.finish(b, ast.UnaryMessage{Symbol: sym})
}

func (p *Parser) parseBinaryMessage(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	op := p.parseOperator(b)
	operand := p.parseUnaryExpression(b)
	if operand == ast.Null {
		p.errHere("Expected expression.")
	}
	return p.finish(b, ast.BinaryMessage{Operator: op, Expression: operand})
}

func (p *Parser) parseKeywordMessage(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	var msg ast.KeywordMessage
	for p.atKeywordStart() {
		msg.KeywordPairs = append(msg.KeywordPairs, p.parseKeywordPair(b, p.parseArgument))
	}
	return p.finish(b, msg)
}

// parseArgument: аргумент ключевого сообщения, то есть бинарное выражение.
func (p *Parser) parseArgument(parent *ast.NodeBuilder) ast.Id {
	arg := p.parseBinaryExpression(parent)
	if arg == ast.Null {
		p.errHere("Expected expression.")
	}
	return arg
}

// parseCascade: `r m1; m2; m3`, все сообщения уходят получателю последней
// отправки. Уже построенная отправка разбирается на части и удаляется.
func (p *Parser) parseCascade(parent *ast.NodeBuilder, expr ast.Id) ast.Id {
	node := p.tree.Get(expr)
	send, ok := node.Kind.(ast.MessageSendExpression)
	if !ok {
		p.errHere("Cascade needs a message send.")
		p.advance()
		return expr
	}
	c := parent.Child(node.Span.Start)
	p.reparent(send.Receiver, c.ID())
	p.reparent(send.Message, c.ID())
	p.tree.Remove(expr)

	cascade := ast.CascadeExpression{Receiver: send.Receiver, Messages: []ast.Id{send.Message}}
	for p.eat(token.Semicolon) {
		var msg ast.Id
		switch {
		case p.atKeywordStart():
			msg = p.parseKeywordMessage(c)
		case p.at(token.SimpleSymbol):
			msg = p.parseUnaryMessage(c)
		case p.atBinaryOperator():
			msg = p.parseBinaryMessage(c)
		default:
			p.errHere("Expected message.")
		}
		if msg != ast.Null {
			cascade.Messages = append(cascade.Messages, msg)
		}
	}
	return p.finish(c, cascade)
}

// parseLeaf разбирает первичное выражение; не съедает ничего, если токен
// не может начинать выражение.
func (p *Parser) parseLeaf(parent *ast.NodeBuilder) ast.Id {
	tok := p.peek()
	switch tok.Kind {
	case token.SimpleString, token.SimpleCharacter, token.SymbolLiteral,
		token.SimpleInteger, token.SimpleFloat:
		return p.parseLiteral(parent)
	case token.Operator:
		if p.atNegativeNumber() {
			return p.parseNegativeNumber(parent)
		}
		return ast.Null
	case token.KwSelf:
		return p.leafNode(parent, func(token.Token) ast.Kind { return ast.SelfExpression{} })
	case token.SimpleSymbol:
		b := parent.Child(p.startLoc())
		sym := p.parseSymbol(b)
		return p.finish(b, ast.ReferenceExpression{Symbol: sym})
	case token.OpenParen:
		b := parent.Child(p.startLoc())
		p.advance()
		expr := p.parseExpression(b)
		if expr == ast.Null {
			p.errHere("Expected expression.")
		}
		p.expect(token.CloseParen, "`)`")
		return p.finish(b, ast.TupleExpression{Expression: expr})
	case token.KwLet:
		return p.parseLetExpression(parent)
	case token.KwPanic:
		b := parent.Child(p.startLoc())
		p.advance()
		expr := p.parseKeywordExpression(b)
		if expr == ast.Null {
			p.errHere("Expected expression.")
		}
		return p.finish(b, ast.PanicExpression{Expression: expr})
	default:
		return ast.Null
	}
}

// parseLetExpression: 'let' binding '.' expression
func (p *Parser) parseLetExpression(parent *ast.NodeBuilder) ast.Id {
	b := parent.Child(p.startLoc())
	p.advance() // let
	binding := p.parseLetBindingAfterLet(b.Child(p.startLoc()))
	p.expectPeriod()
	body := p.parseExpression(b)
	if body == ast.Null {
		p.errHere("Expected expression.")
	}
	return p.finish(b, ast.LetExpression{Binding: binding, Expression: body})
}

// parseLetBindingAfterLet: [Type] name '=' expression; b уже создан для самой привязки.
func (p *Parser) parseLetBindingAfterLet(b *ast.NodeBuilder) ast.Id {
	var binding ast.LetBinding
	untyped := p.at(token.SimpleSymbol) && p.peekN(1).Kind == token.Operator && p.peekN(1).Text == "="
	if !untyped {
		binding.TypeExpression = p.parseTypeExpression(b)
	}
	binding.Symbol = p.expectSymbol(b, "binding name")
	if p.atOperator("=") {
		p.advance()
		binding.Expression = p.parseExpression(b)
		if binding.Expression == ast.Null {
			p.errHere("Expected expression.")
		}
	} else {
		p.errHere("Expected `=`.")
	}
	return p.finish(b, binding)
}
