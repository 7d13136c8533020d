package checkers

import (
	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

// checkInherits verifies that a class can act as each of its super types:
// it responds to every behaviour of the super type, and each override is
// assignable to the behaviour it replaces.
func checkInherits(c *Context) {
	for _, class := range c.Nav.AllClasses() {
		sub, ok := c.Types.TypeOfDeclaration(class).(semantics.ClassType)
		if !ok {
			continue
		}
		for _, te := range c.Nav.SuperTypeExpressions(class) {
			super, ok := c.Types.TypeOfTypeExpression(te).(semantics.ClassType)
			if !ok || super.ID == sub.ID {
				continue
			}
			if violations := inheritViolations(c, sub, super); len(violations) > 0 {
				c.Report(diag.NewInvalidInherit(te.Span, sub.String(), super.String(), violations))
			}
		}
	}
}

func inheritViolations(c *Context, sub, super semantics.ClassType) []diag.InheritViolation {
	// Self внутри поведений сравнивается как Self, а не как конкретный класс
	subBehaviours := make(map[string]semantics.Behaviour)
	for _, b := range c.Types.Behaviours(semantics.SelfType{Of: sub}) {
		subBehaviours[b.Selector()] = b
	}

	var out []diag.InheritViolation
	for _, want := range c.Types.Behaviours(semantics.SelfType{Of: super}) {
		selector := want.Selector()
		want.Receiver = super
		got, ok := subBehaviours[selector]
		if !ok {
			out = append(out, diag.InheritViolation{Behaviour: want.String(), Selector: selector})
			continue
		}
		if got.MethodID == want.MethodID && got.MethodID != ast.Null {
			continue
		}
		got.Receiver = sub
		r := c.Types.CheckAssignment(
			semantics.BehaviourType{Behaviour: &want},
			semantics.BehaviourType{Behaviour: &got},
			false,
		)
		if !r.Valid {
			out = append(out, diag.InheritViolation{Selector: selector, Because: r.String()})
		}
	}
	return out
}
