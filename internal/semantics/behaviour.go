package semantics

import (
	"strings"

	"loa/internal/ast"
)

// MessageKind is the syntactic shape of a selector.
type MessageKind uint8

const (
	UnaryMessage MessageKind = iota
	BinaryMessage
	KeywordMessage
)

// Message is the externally visible shape of a selector: the unary name, the
// operator, or the keywords (without colons), with the argument types.
type Message struct {
	Kind      MessageKind
	Parts     []string
	Arguments []Type
}

// Selector renders `foo`, `+` or `at:put:`.
func (m Message) Selector() string {
	if m.Kind != KeywordMessage {
		if len(m.Parts) == 0 {
			return ""
		}
		return m.Parts[0]
	}
	var sb strings.Builder
	for _, p := range m.Parts {
		sb.WriteString(p)
		sb.WriteByte(':')
	}
	return sb.String()
}

// Behaviour is what a receiver type answers to: one method, seen through the
// receiver it is looked up on.
type Behaviour struct {
	MethodID ast.Id
	Receiver Type
	Message  Message
	Return   Type
}

func (b Behaviour) Selector() string { return b.Message.Selector() }

// WithTypeArguments substitutes type parameters in every type of b.
func (b Behaviour) WithTypeArguments(m map[ast.Id]Type) Behaviour {
	out := b
	out.Receiver = ApplyTypeArguments(b.Receiver, m)
	out.Return = ApplyTypeArguments(b.Return, m)
	out.Message.Arguments = applyAll(b.Message.Arguments, m)
	return out
}

func (b Behaviour) withSelf(receiver Type) Behaviour {
	out := b
	out.Receiver = receiver
	out.Return = bindSelf(b.Return, receiver)
	out.Message.Arguments = bindSelfAll(b.Message.Arguments, receiver)
	return out
}

// String renders `Recv sel -> Ret`, `Recv + T -> Ret` or
// `Recv at: T put: U -> Ret`.
func (b Behaviour) String() string {
	var sb strings.Builder
	sb.WriteString(typeString(b.Receiver))
	sb.WriteByte(' ')
	switch b.Message.Kind {
	case UnaryMessage:
		sb.WriteString(b.Message.Selector())
	case BinaryMessage:
		sb.WriteString(b.Message.Selector())
		sb.WriteByte(' ')
		sb.WriteString(typeString(argAt(b.Message.Arguments, 0)))
	case KeywordMessage:
		for i, kw := range b.Message.Parts {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(kw)
			sb.WriteString(": ")
			sb.WriteString(typeString(argAt(b.Message.Arguments, i)))
		}
	}
	sb.WriteString(" -> ")
	sb.WriteString(typeString(b.Return))
	return sb.String()
}

func argAt(args []Type, i int) Type {
	if i < len(args) {
		return args[i]
	}
	return Unknown{}
}
