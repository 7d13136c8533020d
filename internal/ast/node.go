package ast

import (
	"fmt"

	"loa/internal/source"
)

// Node is one arena entry. Parent is Null for the root.
type Node struct {
	ID     Id
	Parent Id
	Kind   Kind
	Span   source.Span
}

// Children returns the non-null child ids in source order.
func (n *Node) Children() []Id {
	if n == nil || n.Kind == nil {
		return nil
	}
	return n.Kind.Children()
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%s %s", KindName(n.Kind), n.ID, n.Span)
}

// IsScopeRoot reports whether declarations below the node are scoped to it.
func (n *Node) IsScopeRoot() bool {
	switch n.Kind.(type) {
	case Module, REPLLine, ClassBody, Method, Initializer:
		return true
	default:
		return false
	}
}

// IsDeclaration reports whether the node introduces a name.
func (n *Node) IsDeclaration() bool {
	switch n.Kind.(type) {
	case Class, TypeParameter, ParameterPattern, LetBinding, Variable:
		return true
	default:
		return false
	}
}

// IsExpression reports whether the node produces a value.
func (n *Node) IsExpression() bool {
	switch n.Kind.(type) {
	case ReferenceExpression, SelfExpression, MessageSendExpression, CascadeExpression,
		TupleExpression, LetExpression, PanicExpression, StringExpression,
		CharacterExpression, SymbolExpression, IntegerExpression, FloatExpression:
		return true
	default:
		return false
	}
}

// IsTypeExpression reports whether the node denotes a type.
func (n *Node) IsTypeExpression() bool {
	switch n.Kind.(type) {
	case ReferenceTypeExpression, SelfTypeExpression:
		return true
	default:
		return false
	}
}

// IsMessage reports whether the node is a message of a send.
func (n *Node) IsMessage() bool {
	switch n.Kind.(type) {
	case UnaryMessage, BinaryMessage, KeywordMessage:
		return true
	default:
		return false
	}
}

// IsMessagePattern reports whether the node is the pattern of a signature.
func (n *Node) IsMessagePattern() bool {
	switch n.Kind.(type) {
	case UnaryMessagePattern, BinaryMessagePattern, KeywordMessagePattern:
		return true
	default:
		return false
	}
}

// NodeBuilder remembers where a node starts before its children are parsed.
type NodeBuilder struct {
	start  source.Location
	id     Id
	parent Id
}

// NewRootBuilder starts the root of a tree.
func NewRootBuilder(start source.Location) *NodeBuilder {
	return &NodeBuilder{start: start, id: NewId(), parent: Null}
}

// ID returns the id the finished node will have.
func (b *NodeBuilder) ID() Id { return b.id }

// Start returns the recorded start location.
func (b *NodeBuilder) Start() source.Location { return b.start }

// Child starts a node whose parent is the node being built.
func (b *NodeBuilder) Child(start source.Location) *NodeBuilder {
	return &NodeBuilder{start: start, id: NewId(), parent: b.id}
}

// Reparent moves the builder under another parent before it is finalized.
func (b *NodeBuilder) Reparent(parent Id) {
	b.parent = parent
}

// Finalize creates the node spanning from the start to end.
func (b *NodeBuilder) Finalize(end source.Location, kind Kind) *Node {
	if end.Offset < b.start.Offset {
		end = b.start
	}
	return &Node{
		ID:     b.id,
		Parent: b.parent,
		Kind:   kind,
		Span:   source.Span{Start: b.start, End: end},
	}
}
