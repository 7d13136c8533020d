package ast

import (
	"fmt"
	"math/big"
	"strings"

	"loa/internal/token"
)

// Kind is the production a node was parsed from. Every kind stores its
// children as Ids only; leaves keep the token they were built from.
type Kind interface {
	Children() []Id
	isKind()
}

// KindName returns the short name of a kind, e.g. "MessageSendExpression".
func KindName(k Kind) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", k), "ast.")
}

func collect(single []Id, lists ...[]Id) []Id {
	out := make([]Id, 0, len(single)+4)
	for _, id := range single {
		if id.IsValid() {
			out = append(out, id)
		}
	}
	for _, l := range lists {
		for _, id := range l {
			if id.IsValid() {
				out = append(out, id)
			}
		}
	}
	return out
}

// ===== Модули и REPL =====

type Module struct {
	Namespace    Id
	Imports      []Id
	Declarations []Id
}

type REPLLine struct {
	Statements []Id
}

type REPLExpression struct {
	Expression Id
}

// REPLDirective is `:t expr` or `:b expr`.
type REPLDirective struct {
	Symbol     token.Token
	Expression Id
}

type Exported struct {
	Declaration Id
}

type NamespaceDirective struct {
	QualifiedSymbol Id
}

type ImportDirective struct {
	QualifiedSymbol Id
	Alias           Id
}

type QualifiedSymbol struct {
	Symbols []Id
}

type Symbol struct {
	Token token.Token
}

// ===== Классы =====

type Class struct {
	Partial        bool
	Symbol         Id
	TypeParameters Id
	Body           Id
}

type TypeParameterList struct {
	Parameters []Id
}

type TypeParameter struct {
	Variance Variance
	Symbol   Id
}

type ClassBody struct {
	Members []Id
}

type IsDirective struct {
	TypeExpression Id
}

type Method struct {
	Visibility Visibility
	Native     bool
	Signature  Id
	Body       Id
}

// Variable is `var T name.` inside a class body.
type Variable struct {
	Visibility     Visibility
	TypeExpression Id
	Symbol         Id
}

// Initializer is `init new: T x => var: x.`; its keyword pairs assign variables.
type Initializer struct {
	Visibility     Visibility
	MessagePattern Id
	KeywordPairs   []Id
}

type Signature struct {
	MessagePattern Id
	ReturnType     Id
}

type UnaryMessagePattern struct {
	Symbol Id
}

type BinaryMessagePattern struct {
	Operator  Id
	Parameter Id
}

type KeywordMessagePattern struct {
	KeywordPairs []Id
}

// KeywordPair is a `keyword: value` pair. Value is a ParameterPattern in
// patterns and an expression in messages and initializers.
type KeywordPair struct {
	Keyword Id
	Value   Id
}

type Operator struct {
	Token token.Token
}

type ReturnType struct {
	TypeExpression Id
}

type ParameterPattern struct {
	TypeExpression Id
	Symbol         Id
}

// ===== Типовые выражения =====

type ReferenceTypeExpression struct {
	Symbol        Id
	TypeArguments Id
}

type SelfTypeExpression struct{}

type TypeArgumentList struct {
	Arguments []Id
}

// ===== Выражения =====

type MethodBody struct {
	Expression Id
}

type ReferenceExpression struct {
	Symbol Id
}

type SelfExpression struct{}

type MessageSendExpression struct {
	Receiver Id
	Message  Id
}

// CascadeExpression sends every message to the same receiver; its value is the last result.
type CascadeExpression struct {
	Receiver Id
	Messages []Id
}

type UnaryMessage struct {
	Symbol Id
}

type BinaryMessage struct {
	Operator   Id
	Expression Id
}

type KeywordMessage struct {
	KeywordPairs []Id
}

// TupleExpression is a parenthesised expression.
type TupleExpression struct {
	Expression Id
}

type LetExpression struct {
	Binding    Id
	Expression Id
}

// LetBinding is `let [T] name = expression`.
type LetBinding struct {
	TypeExpression Id
	Symbol         Id
	Expression     Id
}

type PanicExpression struct {
	Expression Id
}

// ===== Литералы =====

type StringExpression struct {
	Token token.Token
	Value string
}

type CharacterExpression struct {
	Token token.Token
	Value rune
}

type SymbolExpression struct {
	Token token.Token
	Value string
}

type IntegerExpression struct {
	Token token.Token
	Value *big.Int
}

// FloatExpression keeps the exact rational value of the literal.
type FloatExpression struct {
	Token token.Token
	Value *big.Rat
}

func (k Module) Children() []Id {
	return collect([]Id{k.Namespace}, k.Imports, k.Declarations)
}
func (k REPLLine) Children() []Id           { return collect(nil, k.Statements) }
func (k REPLExpression) Children() []Id     { return collect([]Id{k.Expression}) }
func (k REPLDirective) Children() []Id      { return collect([]Id{k.Expression}) }
func (k Exported) Children() []Id           { return collect([]Id{k.Declaration}) }
func (k NamespaceDirective) Children() []Id { return collect([]Id{k.QualifiedSymbol}) }
func (k ImportDirective) Children() []Id    { return collect([]Id{k.QualifiedSymbol, k.Alias}) }
func (k QualifiedSymbol) Children() []Id    { return collect(nil, k.Symbols) }
func (k Symbol) Children() []Id             { return nil }
func (k Class) Children() []Id {
	return collect([]Id{k.Symbol, k.TypeParameters, k.Body})
}
func (k TypeParameterList) Children() []Id { return collect(nil, k.Parameters) }
func (k TypeParameter) Children() []Id     { return collect([]Id{k.Symbol}) }
func (k ClassBody) Children() []Id         { return collect(nil, k.Members) }
func (k IsDirective) Children() []Id       { return collect([]Id{k.TypeExpression}) }
func (k Method) Children() []Id            { return collect([]Id{k.Signature, k.Body}) }
func (k Variable) Children() []Id          { return collect([]Id{k.TypeExpression, k.Symbol}) }
func (k Initializer) Children() []Id {
	return collect([]Id{k.MessagePattern}, k.KeywordPairs)
}
func (k Signature) Children() []Id             { return collect([]Id{k.MessagePattern, k.ReturnType}) }
func (k UnaryMessagePattern) Children() []Id   { return collect([]Id{k.Symbol}) }
func (k BinaryMessagePattern) Children() []Id  { return collect([]Id{k.Operator, k.Parameter}) }
func (k KeywordMessagePattern) Children() []Id { return collect(nil, k.KeywordPairs) }
func (k KeywordPair) Children() []Id           { return collect([]Id{k.Keyword, k.Value}) }
func (k Operator) Children() []Id              { return nil }
func (k ReturnType) Children() []Id            { return collect([]Id{k.TypeExpression}) }
func (k ParameterPattern) Children() []Id      { return collect([]Id{k.TypeExpression, k.Symbol}) }
func (k ReferenceTypeExpression) Children() []Id {
	return collect([]Id{k.Symbol, k.TypeArguments})
}
func (k SelfTypeExpression) Children() []Id    { return nil }
func (k TypeArgumentList) Children() []Id      { return collect(nil, k.Arguments) }
func (k MethodBody) Children() []Id            { return collect([]Id{k.Expression}) }
func (k ReferenceExpression) Children() []Id   { return collect([]Id{k.Symbol}) }
func (k SelfExpression) Children() []Id        { return nil }
func (k MessageSendExpression) Children() []Id { return collect([]Id{k.Receiver, k.Message}) }
func (k CascadeExpression) Children() []Id     { return collect([]Id{k.Receiver}, k.Messages) }
func (k UnaryMessage) Children() []Id          { return collect([]Id{k.Symbol}) }
func (k BinaryMessage) Children() []Id         { return collect([]Id{k.Operator, k.Expression}) }
func (k KeywordMessage) Children() []Id        { return collect(nil, k.KeywordPairs) }
func (k TupleExpression) Children() []Id       { return collect([]Id{k.Expression}) }
func (k LetExpression) Children() []Id         { return collect([]Id{k.Binding, k.Expression}) }
func (k LetBinding) Children() []Id {
	return collect([]Id{k.TypeExpression, k.Symbol, k.Expression})
}
func (k PanicExpression) Children() []Id     { return collect([]Id{k.Expression}) }
func (k StringExpression) Children() []Id    { return nil }
func (k CharacterExpression) Children() []Id { return nil }
func (k SymbolExpression) Children() []Id    { return nil }
func (k IntegerExpression) Children() []Id   { return nil }
func (k FloatExpression) Children() []Id     { return nil }

func (Module) isKind()                  {}
func (REPLLine) isKind()                {}
func (REPLExpression) isKind()          {}
func (REPLDirective) isKind()           {}
func (Exported) isKind()                {}
func (NamespaceDirective) isKind()      {}
func (ImportDirective) isKind()         {}
func (QualifiedSymbol) isKind()         {}
func (Symbol) isKind()                  {}
func (Class) isKind()                   {}
func (TypeParameterList) isKind()       {}
func (TypeParameter) isKind()           {}
func (ClassBody) isKind()               {}
func (IsDirective) isKind()             {}
func (Method) isKind()                  {}
func (Variable) isKind()                {}
func (Initializer) isKind()             {}
func (Signature) isKind()               {}
func (UnaryMessagePattern) isKind()     {}
func (BinaryMessagePattern) isKind()    {}
func (KeywordMessagePattern) isKind()   {}
func (KeywordPair) isKind()             {}
func (Operator) isKind()                {}
func (ReturnType) isKind()              {}
func (ParameterPattern) isKind()        {}
func (ReferenceTypeExpression) isKind() {}
func (SelfTypeExpression) isKind()      {}
func (TypeArgumentList) isKind()        {}
func (MethodBody) isKind()              {}
func (ReferenceExpression) isKind()     {}
func (SelfExpression) isKind()          {}
func (MessageSendExpression) isKind()   {}
func (CascadeExpression) isKind()       {}
func (UnaryMessage) isKind()            {}
func (BinaryMessage) isKind()           {}
func (KeywordMessage) isKind()          {}
func (TupleExpression) isKind()         {}
func (LetExpression) isKind()           {}
func (LetBinding) isKind()              {}
func (PanicExpression) isKind()         {}
func (StringExpression) isKind()        {}
func (CharacterExpression) isKind()     {}
func (SymbolExpression) isKind()        {}
func (IntegerExpression) isKind()       {}
func (FloatExpression) isKind()         {}
