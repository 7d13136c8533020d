package generation

import (
	"errors"
	"fmt"

	"loa/internal/ast"
)

// ErrTraversalFailure is wrapped by errors about nodes the generator
// expected to find and did not.
var ErrTraversalFailure = errors.New("traversal failure")

// ErrInvalidNode is wrapped by errors about nodes of an unexpected shape.
var ErrInvalidNode = errors.New("invalid node")

// ErrorKind classifies a generation failure.
type ErrorKind uint8

const (
	TraversalFailure ErrorKind = iota + 1
	InvalidNode
)

func (k ErrorKind) String() string {
	switch k {
	case TraversalFailure:
		return "traversal failure"
	case InvalidNode:
		return "invalid node"
	default:
		return "unknown"
	}
}

// Error is an internal compiler error. A program that passes the checkers
// never produces one.
type Error struct {
	Kind    ErrorKind
	Node    *ast.Node
	Message string
}

func (e *Error) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s at %s (node %s, %s): %s",
		e.Kind, e.Node.Span.Start, e.Node.ID, ast.KindName(e.Node.Kind), e.Message)
}

func (e *Error) Unwrap() error {
	if e.Kind == TraversalFailure {
		return ErrTraversalFailure
	}
	return ErrInvalidNode
}

func invalidNode(node *ast.Node, format string, args ...any) error {
	return &Error{Kind: InvalidNode, Node: node, Message: fmt.Sprintf(format, args...)}
}

func traversalFailure(node *ast.Node, format string, args ...any) error {
	return &Error{Kind: TraversalFailure, Node: node, Message: fmt.Sprintf(format, args...)}
}
