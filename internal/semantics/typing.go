package semantics

import (
	"loa/internal/ast"
)

// Types computes and caches the static types of nodes.
type Types struct {
	nav *Navigator

	types      *Cache[ast.Id, Type]
	behaviours *Cache[ast.Id, []Behaviour]
}

// NewTypes creates a type oracle over nav.
func NewTypes(nav *Navigator) *Types {
	return &Types{
		nav:        nav,
		types:      NewCache[ast.Id, Type](),
		behaviours: NewCache[ast.Id, []Behaviour](),
	}
}

// Navigator returns the navigator the types are computed with.
func (t *Types) Navigator() *Navigator { return t.nav }

// TypeOf dispatches to the typing rule matching the node.
func (t *Types) TypeOf(node *ast.Node) Type {
	switch {
	case node == nil:
		return Unknown{}
	case node.IsExpression():
		return t.TypeOfExpression(node)
	case node.IsTypeExpression():
		return t.TypeOfTypeExpression(node)
	case IsDeclarationOf(node, DeclAny):
		return t.TypeOfDeclaration(node)
	}
	switch k := node.Kind.(type) {
	case ast.ReturnType:
		return t.TypeOfTypeExpression(t.nav.FindChild(node, k.TypeExpression))
	case ast.MethodBody:
		return t.TypeOfExpression(t.nav.FindChild(node, k.Expression))
	case ast.Method:
		if b, ok := t.BehaviourOfMethod(node, t.TypeOfDeclaration(t.nav.ClosestClassUpwards(node))); ok {
			return BehaviourType{Behaviour: &b}
		}
	}
	return Unknown{}
}

// TypeOfExpression types an expression. Number literals take their type from
// the context they appear in; see ExpectedType.
func (t *Types) TypeOfExpression(expr *ast.Node) Type {
	if expr == nil {
		return Unknown{}
	}
	return t.types.LoopSafeGate(expr.ID, Unknown{}, func() Type {
		switch k := expr.Kind.(type) {
		case ast.ReferenceExpression:
			decl := t.nav.FindDeclaration(expr, DeclValue)
			if decl == nil {
				return Unknown{}
			}
			if isClass(decl) {
				ct, ok := t.TypeOfDeclaration(decl).(ClassType)
				if !ok {
					return Unknown{}
				}
				if t.nav.HasClassObject(decl) {
					return ClassObjectType{Class: ct}
				}
				return ct
			}
			return t.TypeOfDeclaration(decl)
		case ast.SelfExpression:
			class := t.nav.ClosestClassUpwards(expr)
			if class == nil {
				return Unknown{}
			}
			return SelfType{Of: t.TypeOfDeclaration(class)}
		case ast.MessageSendExpression:
			if b, ok := t.BehaviourOfMessage(t.nav.FindChild(expr, k.Message)); ok {
				return b.Return
			}
			return Unknown{}
		case ast.CascadeExpression:
			if len(k.Messages) == 0 {
				return t.TypeOfExpression(t.nav.FindChild(expr, k.Receiver))
			}
			if b, ok := t.BehaviourOfMessage(t.nav.FindChild(expr, k.Messages[len(k.Messages)-1])); ok {
				return b.Return
			}
			return Unknown{}
		case ast.TupleExpression:
			return t.TypeOfExpression(t.nav.FindChild(expr, k.Expression))
		case ast.LetExpression:
			return t.TypeOfExpression(t.nav.FindChild(expr, k.Expression))
		case ast.PanicExpression:
			return Unknown{}
		case ast.StringExpression:
			return t.stdlibClassType("String")
		case ast.CharacterExpression:
			return t.stdlibClassType("Character")
		case ast.SymbolExpression:
			return SymbolType{Value: k.Value}
		case ast.IntegerExpression:
			if ct, ok := t.numericContext(expr); ok {
				return ct
			}
			return UnresolvedInteger{}
		case ast.FloatExpression:
			if ct, ok := t.numericContext(expr); ok {
				return ct
			}
			return UnresolvedFloat{}
		default:
			return Unknown{}
		}
	})
}

// numericContext returns the expected type of a number literal when that
// type is one of the numeric classes.
func (t *Types) numericContext(literal *ast.Node) (ClassType, bool) {
	ct, ok := t.ExpectedType(literal).(ClassType)
	if !ok {
		return ClassType{}, false
	}
	qn, ok := t.nav.QualifiedNameOf(t.nav.FindNode(ct.ID))
	if !ok {
		return ClassType{}, false
	}
	if _, ok := NumberClassOf(qn); !ok {
		return ClassType{}, false
	}
	return ct, true
}

// ExpectedType returns the type the context of expr asks for: an annotated
// let binding, a declared return type, the parameter a message argument is
// bound to, or (for a receiver) the expected type of the whole send or
// cascade.
// nil means the context expects nothing in particular.
func (t *Types) ExpectedType(expr *ast.Node) Type {
	parent := t.nav.Parent(expr)
	if parent == nil {
		return nil
	}
	switch k := parent.Kind.(type) {
	case ast.LetBinding:
		if k.Expression == expr.ID && k.TypeExpression.IsValid() {
			return t.TypeOfTypeExpression(t.nav.FindChild(parent, k.TypeExpression))
		}
	case ast.MethodBody:
		method := t.nav.Parent(parent)
		if method == nil {
			return nil
		}
		if rt := t.nav.ReturnTypeOf(method); rt != nil {
			return t.TypeOf(rt)
		}
	case ast.BinaryMessage:
		if k.Expression == expr.ID {
			if b, ok := t.BehaviourOfMessage(parent); ok {
				return argAt(b.Message.Arguments, 0)
			}
		}
	case ast.KeywordPair:
		owner := t.nav.Parent(parent)
		if owner == nil || k.Value != expr.ID {
			return nil
		}
		switch ow := owner.Kind.(type) {
		case ast.KeywordMessage:
			for i, id := range ow.KeywordPairs {
				if id != parent.ID {
					continue
				}
				if b, found := t.BehaviourOfMessage(owner); found {
					return argAt(b.Message.Arguments, i)
				}
			}
		case ast.Initializer:
			name, _, found := t.nav.SymbolOf(t.nav.FindChild(parent, k.Keyword))
			if !found {
				return nil
			}
			for _, v := range t.nav.VariablesOfClass(t.nav.ClosestClassUpwards(owner)) {
				if s, _, _ := t.nav.SymbolOf(v); s == name {
					return t.TypeOfDeclaration(v)
				}
			}
		}
	case ast.MessageSendExpression:
		if k.Receiver == expr.ID {
			return t.ExpectedType(parent)
		}
	case ast.CascadeExpression:
		// все сообщения каскада уходят одному получателю
		if k.Receiver == expr.ID {
			return t.ExpectedType(parent)
		}
	case ast.TupleExpression:
		return t.ExpectedType(parent)
	case ast.LetExpression:
		if k.Expression == expr.ID {
			return t.ExpectedType(parent)
		}
	}
	return nil
}

func (t *Types) stdlibClassType(name string) Type {
	class := t.nav.FindStdlibClass(StdlibNamespace + "/" + name)
	if class == nil {
		return Unknown{}
	}
	return t.TypeOfDeclaration(class)
}

// TypeOfDeclaration types a declaration node.
func (t *Types) TypeOfDeclaration(decl *ast.Node) Type {
	if decl == nil {
		return Unknown{}
	}
	return t.types.LoopSafeGate(decl.ID, Unknown{}, func() Type {
		switch k := decl.Kind.(type) {
		case ast.ParameterPattern:
			return t.TypeOfTypeExpression(t.nav.FindChild(decl, k.TypeExpression))
		case ast.Variable:
			return t.TypeOfTypeExpression(t.nav.FindChild(decl, k.TypeExpression))
		case ast.LetBinding:
			if k.TypeExpression.IsValid() {
				return t.TypeOfTypeExpression(t.nav.FindChild(decl, k.TypeExpression))
			}
			return t.TypeOfExpression(t.nav.FindChild(decl, k.Expression))
		case ast.Class:
			name, _, ok := t.nav.SymbolOf(decl)
			if !ok {
				return Unknown{}
			}
			params := t.nav.TypeParametersOf(decl)
			var args []Type
			for _, p := range params {
				args = append(args, t.TypeOfDeclaration(p))
			}
			return ClassType{Name: name, ID: decl.ID, Args: args}
		case ast.TypeParameter:
			name, _, ok := t.nav.SymbolOf(decl)
			if !ok {
				return Unknown{}
			}
			return ParameterType{Name: name, ID: decl.ID}
		default:
			return Unknown{}
		}
	})
}

// TypeOfTypeExpression types `Self` or `Name<Args>`.
func (t *Types) TypeOfTypeExpression(te *ast.Node) Type {
	if te == nil {
		return Unknown{}
	}
	return t.types.LoopSafeGate(te.ID, Unknown{}, func() Type {
		switch te.Kind.(type) {
		case ast.SelfTypeExpression:
			class := t.nav.ClosestClassUpwards(te)
			if class == nil {
				return Unknown{}
			}
			return SelfType{Of: t.TypeOfDeclaration(class)}
		case ast.ReferenceTypeExpression:
			var args []Type
			for _, a := range t.nav.TypeArgumentsOf(te) {
				args = append(args, t.TypeOfTypeExpression(a))
			}
			decl := t.nav.FindDeclaration(te, DeclType)
			if decl == nil {
				return Unknown{}
			}
			return WithArgs(t.TypeOfDeclaration(decl), args)
		default:
			return Unknown{}
		}
	})
}

// ===== Поведения =====

// Behaviours returns everything a value of type typ responds to, including
// inherited behaviours with type arguments substituted. Overrides win over
// inherited behaviours with the same selector.
func (t *Types) Behaviours(typ Type) []Behaviour {
	switch tt := typ.(type) {
	case ClassType:
		return t.classBehaviours(tt, tt)
	case SelfType:
		if ct, ok := tt.Of.(ClassType); ok {
			return t.classBehaviours(ct, tt)
		}
		return t.Behaviours(tt.Of)
	case ClassObjectType:
		return t.initializerBehaviours(tt)
	case SymbolType:
		return t.Behaviours(t.stdlibClassType("Symbol"))
	case UnresolvedInteger:
		return t.Behaviours(t.stdlibClassType("Integer"))
	case UnresolvedFloat:
		return t.Behaviours(t.stdlibClassType("Float"))
	default:
		return nil
	}
}

// BehaviourBySelector finds the behaviour of typ answering selector.
func (t *Types) BehaviourBySelector(typ Type, selector string) (Behaviour, bool) {
	for _, b := range t.Behaviours(typ) {
		if b.Selector() == selector {
			return b, true
		}
	}
	return Behaviour{}, false
}

func (t *Types) classBehaviours(ct ClassType, receiver Type) []Behaviour {
	class := t.nav.FindNode(ct.ID)
	raw := t.rawBehaviours(class)
	if len(raw) == 0 {
		return nil
	}
	m := make(map[ast.Id]Type)
	for i, p := range t.nav.TypeParametersOf(class) {
		m[p.ID] = argAt(ct.Args, i)
	}
	out := make([]Behaviour, len(raw))
	for i, b := range raw {
		out[i] = b.WithTypeArguments(m).withSelf(receiver)
	}
	return out
}

// rawBehaviours are the behaviours of a class in terms of its own type
// parameters and with Self unbound.
func (t *Types) rawBehaviours(class *ast.Node) []Behaviour {
	if class == nil || !isClass(class) {
		return nil
	}
	return t.behaviours.LoopSafeGate(class.ID, nil, func() []Behaviour {
		declared := t.TypeOfDeclaration(class)
		var out []Behaviour
		seen := make(map[string]bool)
		for _, method := range t.nav.MethodsOfClass(class) {
			b, ok := t.BehaviourOfMethod(method, declared)
			if !ok || seen[b.Selector()] {
				continue
			}
			seen[b.Selector()] = true
			out = append(out, b)
		}
		for _, te := range t.nav.SuperTypeExpressions(class) {
			super, ok := t.TypeOfTypeExpression(te).(ClassType)
			if !ok {
				continue
			}
			superClass := t.nav.FindNode(super.ID)
			m := make(map[ast.Id]Type)
			for i, p := range t.nav.TypeParametersOf(superClass) {
				m[p.ID] = argAt(super.Args, i)
			}
			for _, b := range t.rawBehaviours(superClass) {
				if seen[b.Selector()] {
					continue
				}
				seen[b.Selector()] = true
				out = append(out, b.WithTypeArguments(m))
			}
		}
		return out
	})
}

// BehaviourOfMethod builds the behaviour a method declares on receiver. A
// method without a return type returns the type of its body.
func (t *Types) BehaviourOfMethod(method *ast.Node, receiver Type) (Behaviour, bool) {
	pattern := t.nav.MessagePatternOf(method)
	if pattern == nil {
		return Behaviour{}, false
	}
	msg, ok := t.messageOfPattern(pattern)
	if !ok {
		return Behaviour{}, false
	}
	var ret Type = Unknown{}
	if rt := t.nav.ReturnTypeOf(method); rt != nil {
		ret = t.TypeOf(rt)
	} else if body := t.nav.MethodBody(method); body != nil {
		ret = t.TypeOfExpression(body)
	}
	return Behaviour{MethodID: method.ID, Receiver: receiver, Message: msg, Return: ret}, true
}

func (t *Types) messageOfPattern(pattern *ast.Node) (Message, bool) {
	switch k := pattern.Kind.(type) {
	case ast.UnaryMessagePattern:
		name, _, ok := t.nav.SymbolOf(t.nav.FindChild(pattern, k.Symbol))
		return Message{Kind: UnaryMessage, Parts: []string{name}}, ok
	case ast.BinaryMessagePattern:
		op, _, ok := t.nav.SymbolOf(t.nav.FindChild(pattern, k.Operator))
		arg := t.TypeOfDeclaration(t.nav.FindChild(pattern, k.Parameter))
		return Message{Kind: BinaryMessage, Parts: []string{op}, Arguments: []Type{arg}}, ok
	case ast.KeywordMessagePattern:
		msg := Message{Kind: KeywordMessage}
		for _, p := range t.nav.KeywordPairs(pattern, k.KeywordPairs) {
			kw, _, ok := t.nav.SymbolOf(p[0])
			if !ok {
				return Message{}, false
			}
			msg.Parts = append(msg.Parts, kw)
			msg.Arguments = append(msg.Arguments, t.TypeOfDeclaration(p[1]))
		}
		return msg, len(msg.Parts) > 0
	default:
		return Message{}, false
	}
}

// initializerBehaviours are the behaviours of a class object: one per
// initializer, each returning an instance of the class.
func (t *Types) initializerBehaviours(obj ClassObjectType) []Behaviour {
	class := t.nav.FindNode(obj.Class.ID)
	var out []Behaviour
	for _, init := range t.nav.InitializersOf(class) {
		msg, ok := t.messageOfPattern(t.nav.MessagePatternOf(init))
		if !ok {
			continue
		}
		out = append(out, Behaviour{MethodID: init.ID, Receiver: obj, Message: msg, Return: obj.Class})
	}
	return out
}

// ReceiverOfMessage returns the receiver expression a message is sent to.
func (n *Navigator) ReceiverOfMessage(message *ast.Node) *ast.Node {
	parent := n.Parent(message)
	if parent == nil {
		return nil
	}
	switch k := parent.Kind.(type) {
	case ast.MessageSendExpression:
		return n.FindChild(parent, k.Receiver)
	case ast.CascadeExpression:
		return n.FindChild(parent, k.Receiver)
	}
	return nil
}

// BehaviourOfMessage resolves the behaviour a message invokes.
func (t *Types) BehaviourOfMessage(message *ast.Node) (Behaviour, bool) {
	if message == nil || !message.IsMessage() {
		return Behaviour{}, false
	}
	receiver := t.nav.ReceiverOfMessage(message)
	if receiver == nil {
		return Behaviour{}, false
	}
	selector, ok := t.nav.MessageSelector(message)
	if !ok {
		return Behaviour{}, false
	}
	return t.BehaviourBySelector(t.TypeOfExpression(receiver), selector)
}

// MethodFromMessage returns the method (or initializer) a message invokes.
func (t *Types) MethodFromMessage(message *ast.Node) *ast.Node {
	b, ok := t.BehaviourOfMessage(message)
	if !ok {
		return nil
	}
	return t.nav.FindNode(b.MethodID)
}

// SuperTypes returns the super types of a class type with its arguments applied.
func (t *Types) SuperTypes(ct ClassType) []ClassType {
	class := t.nav.FindNode(ct.ID)
	m := make(map[ast.Id]Type)
	for i, p := range t.nav.TypeParametersOf(class) {
		m[p.ID] = argAt(ct.Args, i)
	}
	var out []ClassType
	for _, te := range t.nav.SuperTypeExpressions(class) {
		if super, ok := ApplyTypeArguments(t.TypeOfTypeExpression(te), m).(ClassType); ok {
			out = append(out, super)
		}
	}
	return out
}
