package checkers

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

// checkTypeAssignments reports every place a value flows into a slot whose
// type it cannot act as: method bodies against declared return types,
// message arguments against parameters, annotated let bindings and
// initializer assignments against class variables.
func checkTypeAssignments(c *Context) {
	check := func(assignee semantics.Type, value *ast.Node) {
		if value == nil {
			return
		}
		r := c.Types.CheckAssignment(assignee, c.Types.TypeOfExpression(value), false)
		if !r.Valid {
			c.Report(diag.NewUnassignableType(value.Span, r.String()))
		}
	}

	for _, method := range c.Nav.AllMethods() {
		rt := c.Nav.ReturnTypeOf(method)
		body := c.Nav.MethodBody(method)
		if rt == nil || body == nil {
			continue
		}
		check(c.Types.TypeOf(rt), body)
	}

	for _, msg := range c.Nav.AllMessages() {
		b, ok := c.Types.BehaviourOfMessage(msg)
		if !ok {
			continue
		}
		for i, arg := range c.Nav.MessageArguments(msg) {
			if i >= len(b.Message.Arguments) {
				break
			}
			check(b.Message.Arguments[i], arg)
		}
	}

	for _, binding := range c.Nav.AllMatching(isKind[ast.LetBinding]) {
		k := binding.Kind.(ast.LetBinding)
		if !k.TypeExpression.IsValid() {
			continue
		}
		declared := c.Types.TypeOfTypeExpression(c.Nav.FindChild(binding, k.TypeExpression))
		check(declared, c.Nav.FindChild(binding, k.Expression))
	}

	for _, init := range c.Nav.AllInitializers() {
		variables := make(map[string]*ast.Node)
		for _, v := range c.Nav.VariablesOfClass(c.Nav.ClosestClassUpwards(init)) {
			if name, _, ok := c.Nav.SymbolOf(v); ok {
				variables[name] = v
			}
		}
		for _, assign := range c.Nav.InitializerAssignments(init) {
			if v, ok := variables[assign.Name]; ok {
				check(c.Types.TypeOfDeclaration(v), assign.Value)
			}
		}
	}
}

// checkVariance reports `in` parameters used as return types and `out`
// parameters used as parameter types.
func checkVariance(c *Context) {
	for _, param := range c.Nav.AllTypeParameters() {
		variance := semantics.VarianceOf(param)
		if variance != ast.In && variance != ast.Out {
			continue
		}
		name, _, ok := c.Nav.SymbolOf(param)
		if !ok {
			continue
		}
		for _, ref := range c.Nav.FindReferences(param, semantics.DeclType) {
			switch position(c.Nav, ref) {
			case outputPosition:
				if variance == ast.In {
					c.Report(diag.NewInvalidVarianceUsage(ref.Span, name, variance.String(), "output"))
				}
			case inputPosition:
				if variance == ast.Out {
					c.Report(diag.NewInvalidVarianceUsage(ref.Span, name, variance.String(), "input"))
				}
			}
		}
	}
}

type typePosition uint8

const (
	otherPosition typePosition = iota
	inputPosition
	outputPosition
)

// position finds whether a type expression sits in a method's return type or
// in one of its parameters.
func position(nav *semantics.Navigator, te *ast.Node) typePosition {
	for n := nav.Parent(te); n != nil; n = nav.Parent(n) {
		switch n.Kind.(type) {
		case ast.ReturnType:
			return outputPosition
		case ast.ParameterPattern:
			if nav.ClosestUpwards(n, isKind[ast.Signature]) != nil {
				return inputPosition
			}
			return otherPosition
		case ast.Signature, ast.Method, ast.Initializer, ast.ClassBody, ast.Module:
			return otherPosition
		}
	}
	return otherPosition
}
