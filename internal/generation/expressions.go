package generation

import (
	"fortio.org/safecast"

	"loa/internal/ast"
	"loa/internal/semantics"
)

// expression lowers expr so that exactly one value is pushed.
func (g *Generator) expression(out *Instructions, expr *ast.Node) error {
	switch k := expr.Kind.(type) {
	case ast.SelfExpression:
		idx, ok := g.stack.indexOfSelf()
		if !ok {
			return traversalFailure(expr, "self outside of a class")
		}
		*out = append(*out, LoadLocal(idx))
		g.stack.pushExpression(expr.ID)
		return nil

	case ast.ReferenceExpression:
		return g.reference(out, expr)

	case ast.TupleExpression:
		inner := g.nav.FindChild(expr, k.Expression)
		if inner == nil {
			return traversalFailure(expr, "empty tuple")
		}
		return g.expression(out, inner)

	case ast.MessageSendExpression:
		receiver := g.nav.FindChild(expr, k.Receiver)
		message := g.nav.FindChild(expr, k.Message)
		if receiver == nil || message == nil {
			return traversalFailure(expr, "incomplete message send")
		}
		return g.send(out, expr, message, func() error { return g.expression(out, receiver) })

	case ast.CascadeExpression:
		return g.cascade(out, expr, k)

	case ast.LetExpression:
		return g.let(out, expr, k)

	case ast.PanicExpression:
		msg := g.nav.FindChild(expr, k.Expression)
		if msg == nil {
			return traversalFailure(expr, "panic without a message")
		}
		if err := g.expression(out, msg); err != nil {
			return err
		}
		*out = append(*out, Panic())
		// значение так и не появится, но стек должен сходиться
		g.stack.pop()
		g.stack.pushExpression(expr.ID)
		return nil

	case ast.StringExpression:
		*out = append(*out, LoadConstString(k.Value))
	case ast.CharacterExpression:
		*out = append(*out, LoadConstCharacter(k.Value))
	case ast.SymbolExpression:
		*out = append(*out, LoadConstSymbol(k.Value))
	case ast.IntegerExpression:
		i, err := g.integer(expr, k)
		if err != nil {
			return err
		}
		*out = append(*out, i)
	case ast.FloatExpression:
		i, err := g.float(expr, k)
		if err != nil {
			return err
		}
		*out = append(*out, i)

	default:
		return invalidNode(expr, "%s is not an expression", ast.KindName(expr.Kind))
	}
	g.stack.pushExpression(expr.ID)
	return nil
}

func (g *Generator) reference(out *Instructions, expr *ast.Node) error {
	decl := g.nav.FindDeclaration(expr, semantics.DeclValue)
	if decl == nil {
		return traversalFailure(expr, "reference to nothing")
	}
	switch k := decl.Kind.(type) {
	case ast.Class:
		if k.Partial {
			return invalidNode(expr, "reference to a partial class")
		}
		id := decl.ID
		if g.nav.HasClassObject(decl) {
			id = ClassObjectID(id)
		}
		*out = append(*out, LoadObject(id))

	case ast.ParameterPattern:
		idx, ok := g.stack.indexOf(decl.ID)
		if !ok {
			return traversalFailure(expr, "parameter is not on the stack")
		}
		*out = append(*out, LoadLocal(idx))

	case ast.LetBinding:
		if idx, ok := g.stack.indexOf(decl.ID); ok {
			*out = append(*out, LoadLocal(idx))
		} else if g.nav.IsGlobalLet(decl) {
			*out = append(*out, LoadGlobal(decl.ID))
		} else {
			return traversalFailure(expr, "let binding is not on the stack")
		}

	case ast.Variable:
		name, _, ok := g.nav.SymbolOf(decl)
		if !ok {
			return invalidNode(decl, "variable without a name")
		}
		self, ok := g.stack.indexOfSelf()
		if !ok {
			return traversalFailure(expr, "variable outside of a class")
		}
		call, err := g.callMethod(name, expr)
		if err != nil {
			return err
		}
		*out = append(*out, LoadLocal(self), call)

	default:
		return invalidNode(decl, "%s cannot be referenced as a value", ast.KindName(decl.Kind))
	}
	g.stack.pushExpression(expr.ID)
	return nil
}

// send lowers the arguments of message last to first, then the receiver,
// then the call. Compound arguments are passed as lazies.
func (g *Generator) send(out *Instructions, site, message *ast.Node, receiver func() error) error {
	selector, ok := g.nav.MessageSelector(message)
	if !ok {
		return invalidNode(message, "message without a selector")
	}
	args := g.nav.MessageArguments(message)
	for i := len(args) - 1; i >= 0; i-- {
		if err := g.argument(out, args[i]); err != nil {
			return err
		}
	}
	if err := receiver(); err != nil {
		return err
	}
	call, err := g.callMethod(selector, message)
	if err != nil {
		return err
	}
	*out = append(*out, call)
	g.stack.popN(len(args) + 1)
	g.stack.pushExpression(site.ID)
	return nil
}

func (g *Generator) argument(out *Instructions, arg *ast.Node) error {
	switch arg.Kind.(type) {
	case ast.TupleExpression, ast.MessageSendExpression, ast.CascadeExpression, ast.PanicExpression:
		return g.lazy(out, arg)
	}
	return g.expression(out, arg)
}

// cascade keeps the receiver in a temporary slot and sends every message to
// it; only the last result survives.
func (g *Generator) cascade(out *Instructions, expr *ast.Node, k ast.CascadeExpression) error {
	receiver := g.nav.FindChild(expr, k.Receiver)
	if receiver == nil {
		return traversalFailure(expr, "cascade without a receiver")
	}
	if err := g.expression(out, receiver); err != nil {
		return err
	}
	if len(k.Messages) == 0 {
		g.stack.pop()
		g.stack.pushExpression(expr.ID)
		return nil
	}
	g.stack.declareTop(expr.ID)

	loadTemp := func() error {
		idx, ok := g.stack.indexOf(expr.ID)
		if !ok {
			return traversalFailure(expr, "cascade receiver is not on the stack")
		}
		*out = append(*out, LoadLocal(idx))
		g.stack.pushExpression(receiver.ID)
		return nil
	}
	for i, id := range k.Messages {
		message := g.nav.FindChild(expr, id)
		if message == nil {
			return traversalFailure(expr, "cascade message %s is missing", id)
		}
		if err := g.send(out, message, message, loadTemp); err != nil {
			return err
		}
		if i < len(k.Messages)-1 {
			*out = append(*out, DropLocal(0))
			g.stack.pop()
		}
	}
	if err := g.dropDeclaration(out, expr, expr.ID); err != nil {
		return err
	}
	g.stack.pop()
	g.stack.pushExpression(expr.ID)
	return nil
}

func (g *Generator) let(out *Instructions, expr *ast.Node, k ast.LetExpression) error {
	binding := g.nav.FindChild(expr, k.Binding)
	body := g.nav.FindChild(expr, k.Expression)
	if binding == nil || body == nil {
		return traversalFailure(expr, "incomplete let expression")
	}
	bk, ok := binding.Kind.(ast.LetBinding)
	if !ok {
		return invalidNode(binding, "expected a let binding")
	}
	value := g.nav.FindChild(binding, bk.Expression)
	if value == nil {
		return traversalFailure(binding, "let binding without an expression")
	}
	if err := g.expression(out, value); err != nil {
		return err
	}
	g.stack.declareTop(binding.ID)
	if err := g.expression(out, body); err != nil {
		return err
	}
	if err := g.dropDeclaration(out, expr, binding.ID); err != nil {
		return err
	}
	g.stack.pop()
	g.stack.pushExpression(expr.ID)
	return nil
}

func (g *Generator) dropDeclaration(out *Instructions, at *ast.Node, id ast.Id) error {
	idx, ok := g.stack.indexOf(id)
	if !ok {
		return traversalFailure(at, "declaration %s is not on the stack", id)
	}
	*out = append(*out, DropLocal(idx))
	g.stack.dropIndex(int(idx))
	return nil
}

// lazy wraps expr in a thunk. The locals it uses and self, when needed, are
// captured in that order and become the bottom of the thunk's own stack.
func (g *Generator) lazy(out *Instructions, expr *ast.Node) error {
	crossing := g.nav.LocalsCrossingInto(expr)
	withSelf := g.nav.SelfCrossesInto(expr)

	sub := &Generator{nav: g.nav, types: g.types, directives: g.directives}
	for _, decl := range crossing {
		idx, ok := g.stack.indexOf(decl.ID)
		if !ok {
			return traversalFailure(expr, "captured %s is not on the stack", decl.ID)
		}
		*out = append(*out, LoadLocal(idx))
		g.stack.pushDeclaration(decl.ID)
		sub.stack.pushDeclaration(decl.ID)
	}
	n := len(crossing)
	if withSelf {
		idx, ok := g.stack.indexOfSelf()
		if !ok {
			return traversalFailure(expr, "self outside of a class")
		}
		*out = append(*out, LoadLocal(idx))
		g.stack.pushExpression(expr.ID)
		sub.stack.pushSelf()
		n++
	}
	arity, err := safecast.Conv[uint16](n)
	if err != nil {
		return invalidNode(expr, "too many captured values: %v", err)
	}

	var body Instructions
	if err := sub.expression(&body, expr); err != nil {
		return err
	}
	body = append(body, ReturnLazy(arity))

	*out = append(*out, LoadLazy(arity, body))
	g.stack.popN(n)
	g.stack.pushExpression(expr.ID)
	return nil
}
