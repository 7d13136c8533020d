package semantics

import (
	"fmt"
	"strings"

	"loa/internal/ast"
)

// Assignability is the result of asking whether a value of type Assigned may
// be stored where Assignee is expected. An invalid result keeps the checks
// that failed underneath it in Because, so the diagnostic can explain itself.
type Assignability struct {
	Valid     bool
	Assignee  Type
	Assigned  Type
	Invariant bool
	Because   []Assignability
}

var valid = Assignability{Valid: true}

func invalid(assignee, assigned Type, invariant bool, because ...Assignability) Assignability {
	return Assignability{Assignee: assignee, Assigned: assigned, Invariant: invariant, Because: because}
}

// String renders the explanation tree, one level of indentation per `because`.
func (a Assignability) String() string {
	if a.Valid {
		return ""
	}
	var sb strings.Builder
	a.render(&sb, 0)
	sb.WriteByte('.')
	return sb.String()
}

func (a Assignability) render(sb *strings.Builder, depth int) {
	if a.Valid {
		return
	}
	if depth > 0 {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("because ")
	}
	if a.Invariant {
		fmt.Fprintf(sb, "`%s` isn't the same as `%s`", typeString(a.Assigned), typeString(a.Assignee))
	} else {
		fmt.Fprintf(sb, "`%s` cannot act as `%s`", typeString(a.Assigned), typeString(a.Assignee))
	}
	for _, b := range a.Because {
		b.render(sb, depth+1)
	}
}

// CheckAssignment checks assigned against assignee. In an invariant context
// the two types must be the same class; otherwise super types of assigned are
// tried in declaration order and the first valid one wins.
//
// Lookups that fail on the way (a class node that cannot be found, an
// unresolved type) count as valid: whatever broke them is reported elsewhere.
func (t *Types) CheckAssignment(assignee, assigned Type, invariant bool) Assignability {
	if IsUnknown(assignee) || IsUnknown(assigned) {
		return valid
	}

	// Self справа разворачивается, слева принимает только Self.
	if as, ok := assigned.(SelfType); ok {
		if _, ok := assignee.(SelfType); ok {
			return valid
		}
		if r := t.CheckAssignment(assignee, as.Of, invariant); !r.Valid {
			return invalid(assignee, assigned, invariant, r)
		}
		return valid
	}
	if _, ok := assignee.(SelfType); ok {
		return invalid(assignee, assigned, invariant)
	}

	// Ограничения параметров типа пока не поддерживаются.
	if _, ok := assignee.(ParameterType); ok {
		return valid
	}
	if _, ok := assigned.(ParameterType); ok {
		return valid
	}

	assignee = t.literalClass(assignee)
	assigned = t.literalClass(assigned)
	if IsUnknown(assignee) || IsUnknown(assigned) {
		return valid
	}

	switch ee := assignee.(type) {
	case ClassType:
		ed, ok := assigned.(ClassType)
		if !ok {
			return invalid(assignee, assigned, invariant)
		}
		return t.checkClasses(ee, ed, invariant)

	case ClassObjectType:
		ed, ok := assigned.(ClassObjectType)
		if !ok || ed.Class.ID != ee.Class.ID {
			return invalid(assignee, assigned, invariant)
		}
		return valid

	case BehaviourType:
		ed, ok := assigned.(BehaviourType)
		if !ok {
			return invalid(assignee, assigned, invariant)
		}
		return t.checkBehaviours(ee, ed, invariant)
	}
	return valid
}

// literalClass replaces literal-only types by the standard library class
// that gives them their behaviours.
func (t *Types) literalClass(typ Type) Type {
	switch typ.(type) {
	case UnresolvedInteger:
		return t.stdlibClassType("Integer")
	case UnresolvedFloat:
		return t.stdlibClassType("Float")
	case SymbolType:
		return t.stdlibClassType("Symbol")
	}
	return typ
}

func (t *Types) checkClasses(assignee, assigned ClassType, invariant bool) Assignability {
	assigneeClass := t.nav.FindNode(assignee.ID)
	if assigneeClass == nil || t.nav.FindNode(assigned.ID) == nil {
		return valid
	}

	if assignee.ID != assigned.ID {
		if invariant {
			return invalid(assignee, assigned, invariant)
		}
		var attempts []Assignability
		for _, super := range t.SuperTypes(assigned) {
			r := t.CheckAssignment(assignee, super, false)
			if r.Valid {
				return r
			}
			attempts = append(attempts, r)
		}
		return invalid(assignee, assigned, invariant, attempts...)
	}

	var issues []Assignability
	for i, param := range t.nav.TypeParametersOf(assigneeClass) {
		a, b := argAt(assignee.Args, i), argAt(assigned.Args, i)
		var r Assignability
		switch VarianceOf(param) {
		case ast.Out:
			r = t.CheckAssignment(a, b, false)
		case ast.In:
			r = t.CheckAssignment(b, a, false)
		default:
			r = t.CheckAssignment(a, b, true)
		}
		if !r.Valid {
			issues = append(issues, r)
		}
	}
	if len(issues) > 0 {
		return invalid(assignee, assigned, invariant, issues...)
	}
	return valid
}

// checkBehaviours is used for overrides: the assigned behaviour must answer
// the same selector, accept at least the arguments of the assignee and return
// something that acts as the assignee's return type.
func (t *Types) checkBehaviours(assignee, assigned BehaviourType, invariant bool) Assignability {
	ee, ed := assignee.Behaviour, assigned.Behaviour
	if ee == nil || ed == nil {
		return valid
	}
	if ee.Selector() != ed.Selector() {
		return invalid(assignee, assigned, invariant)
	}
	var issues []Assignability
	for i := range ee.Message.Arguments {
		r := t.CheckAssignment(argAt(ed.Message.Arguments, i), ee.Message.Arguments[i], false)
		if !r.Valid {
			issues = append(issues, r)
		}
	}
	if r := t.CheckAssignment(ee.Return, ed.Return, false); !r.Valid {
		issues = append(issues, r)
	}
	if len(issues) > 0 {
		return invalid(assignee, assigned, invariant, issues...)
	}
	return valid
}
