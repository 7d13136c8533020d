package semantics

import (
	"strings"

	"loa/internal/ast"
)

// Type is the static type of an expression, declaration or type expression.
type Type interface {
	String() string
	isType()
}

// Unknown is assignable to and from everything. It is produced wherever a
// lookup failed, so one error does not cascade into many.
type Unknown struct{}

// SelfType is the type of `self` and of the `Self` type expression inside Of.
type SelfType struct {
	Of Type
}

// ClassType is a nominal class type; identity is the class node's Id.
type ClassType struct {
	Name string
	ID   ast.Id
	Args []Type
}

// ClassObjectType is the type of a reference to a class that has initializers.
type ClassObjectType struct {
	Class ClassType
}

// ParameterType is a reference to a type parameter.
type ParameterType struct {
	Name string
	ID   ast.Id
	Args []Type
}

// SymbolType is the type of a symbol literal such as #foo.
type SymbolType struct {
	Value string
}

// UnresolvedInteger is an integer literal with no contextual type.
type UnresolvedInteger struct{}

// UnresolvedFloat is a float literal with no contextual type.
type UnresolvedFloat struct{}

// BehaviourType is the type of a method signature.
type BehaviourType struct {
	Behaviour *Behaviour
}

func (Unknown) isType()           {}
func (SelfType) isType()          {}
func (ClassType) isType()         {}
func (ClassObjectType) isType()   {}
func (ParameterType) isType()     {}
func (SymbolType) isType()        {}
func (UnresolvedInteger) isType() {}
func (UnresolvedFloat) isType()   {}
func (BehaviourType) isType()     {}

func (Unknown) String() string { return "?" }

func (t SelfType) String() string { return "Self" }

func (t ClassType) String() string { return withArgs(t.Name, t.Args) }

func (t ClassObjectType) String() string { return t.Class.String() + " class" }

func (t ParameterType) String() string { return withArgs(t.Name, t.Args) }

func (t SymbolType) String() string { return "#" + t.Value }

func (UnresolvedInteger) String() string { return "Integer" }

func (UnresolvedFloat) String() string { return "Float" }

func (t BehaviourType) String() string {
	if t.Behaviour == nil {
		return "?"
	}
	return t.Behaviour.String()
}

func withArgs(name string, args []Type) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = typeString(a)
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func typeString(t Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// IsUnknown reports whether t carries no information.
func IsUnknown(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(Unknown)
	return ok
}

// WithArgs returns t applied to args; only class and parameter types take
// arguments.
func WithArgs(t Type, args []Type) Type {
	switch t := t.(type) {
	case ClassType:
		t.Args = args
		return t
	case ParameterType:
		t.Args = args
		return t
	default:
		return t
	}
}

// ApplyTypeArguments substitutes type parameters by the types in m.
func ApplyTypeArguments(t Type, m map[ast.Id]Type) Type {
	if len(m) == 0 {
		return t
	}
	switch t := t.(type) {
	case ParameterType:
		if r, ok := m[t.ID]; ok {
			return r
		}
		t.Args = applyAll(t.Args, m)
		return t
	case ClassType:
		t.Args = applyAll(t.Args, m)
		return t
	case ClassObjectType:
		t.Class.Args = applyAll(t.Class.Args, m)
		return t
	case SelfType:
		return SelfType{Of: ApplyTypeArguments(t.Of, m)}
	case BehaviourType:
		if t.Behaviour == nil {
			return t
		}
		b := t.Behaviour.WithTypeArguments(m)
		return BehaviourType{Behaviour: &b}
	default:
		return t
	}
}

func applyAll(ts []Type, m map[ast.Id]Type) []Type {
	if len(ts) == 0 {
		return ts
	}
	out := make([]Type, len(ts))
	for i, a := range ts {
		out[i] = ApplyTypeArguments(a, m)
	}
	return out
}

// bindSelf replaces Self by the concrete receiver the behaviours are asked for.
func bindSelf(t Type, receiver Type) Type {
	switch t := t.(type) {
	case SelfType:
		return receiver
	case ClassType:
		t.Args = bindSelfAll(t.Args, receiver)
		return t
	case ParameterType:
		t.Args = bindSelfAll(t.Args, receiver)
		return t
	default:
		return t
	}
}

func bindSelfAll(ts []Type, receiver Type) []Type {
	if len(ts) == 0 {
		return ts
	}
	out := make([]Type, len(ts))
	for i, a := range ts {
		out[i] = bindSelf(a, receiver)
	}
	return out
}

// TypesEqual compares types structurally; classes and parameters by Id.
func TypesEqual(a, b Type) bool {
	switch a := a.(type) {
	case Unknown:
		_, ok := b.(Unknown)
		return ok
	case SelfType:
		bb, ok := b.(SelfType)
		return ok && TypesEqual(a.Of, bb.Of)
	case ClassType:
		bb, ok := b.(ClassType)
		return ok && a.ID == bb.ID && typesEqualAll(a.Args, bb.Args)
	case ClassObjectType:
		bb, ok := b.(ClassObjectType)
		return ok && TypesEqual(a.Class, bb.Class)
	case ParameterType:
		bb, ok := b.(ParameterType)
		return ok && a.ID == bb.ID && typesEqualAll(a.Args, bb.Args)
	case SymbolType:
		bb, ok := b.(SymbolType)
		return ok && a.Value == bb.Value
	case UnresolvedInteger:
		_, ok := b.(UnresolvedInteger)
		return ok
	case UnresolvedFloat:
		_, ok := b.(UnresolvedFloat)
		return ok
	case BehaviourType:
		bb, ok := b.(BehaviourType)
		return ok && a.Behaviour != nil && bb.Behaviour != nil && a.Behaviour.MethodID == bb.Behaviour.MethodID
	default:
		return false
	}
}

func typesEqualAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
